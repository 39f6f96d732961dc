package store

import (
	"context"

	"github.com/carepilot/docintel/internal/model"
)

// RecordFilter specifies criteria for listing extraction records.
type RecordFilter struct {
	UserID     string             `json:"user_id,omitempty"`
	DocType    model.DocumentType `json:"doc_type,omitempty"`
	DocumentID string             `json:"document_id,omitempty"`
	Limit      int                `json:"limit,omitempty"`
	Offset     int                `json:"offset,omitempty"`
}

// Store defines the persistence interface for documents, extraction
// runs, and finalized records.
type Store interface {
	// Documents
	SaveDocument(ctx context.Context, doc *model.Document) error
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	ListDocuments(ctx context.Context, userID string) ([]model.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// Runs
	CreateRun(ctx context.Context, run *model.Run) error
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	FinishRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, documentID string) ([]model.Run, error)

	// Records
	SaveRecord(ctx context.Context, rec *model.Record) error
	GetRecord(ctx context.Context, id string) (*model.Record, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]model.Record, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

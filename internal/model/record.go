package model

import "time"

// RunStatus is the pipeline state machine position, persisted so a
// caller polling a run can see where it is.
type RunStatus string

const (
	RunInit       RunStatus = "init"
	RunChunking   RunStatus = "chunking"
	RunSelecting  RunStatus = "selecting"
	RunExtracting RunStatus = "extracting"
	RunMerging    RunStatus = "merging"
	RunAnalyzing  RunStatus = "analyzing"
	RunFinalizing RunStatus = "finalizing"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// Run records one extraction attempt over a document.
type Run struct {
	ID         string       `json:"id"`
	DocumentID string       `json:"document_id"`
	UserID     string       `json:"user_id"`
	DocType    DocumentType `json:"doc_type"`
	Status     RunStatus    `json:"status"`
	Passes     int          `json:"passes"`
	Missing    []string     `json:"missing,omitempty"`
	Error      string       `json:"error,omitempty"`
	Usage      TokenUsage   `json:"usage"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}

// Record is a finalized extraction result.
type Record struct {
	ID            string         `json:"id"`
	RunID         string         `json:"run_id"`
	UserID        string         `json:"user_id"`
	DocumentID    string         `json:"source_document_id"`
	DocType       DocumentType   `json:"doc_type"`
	Fields        map[string]any `json:"fields"`
	Missing       []string       `json:"missing,omitempty"`
	ExtractedDate time.Time      `json:"extracted_date"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

// Add merges token usage from another instance.
func (t *TokenUsage) Add(other TokenUsage) {
	t.InputTokens += other.InputTokens
	t.OutputTokens += other.OutputTokens
	t.Cost += other.Cost
}

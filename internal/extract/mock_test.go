package extract

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/carepilot/docintel/internal/model"
	"github.com/carepilot/docintel/internal/store"
	"github.com/carepilot/docintel/pkg/anthropic"
	"github.com/carepilot/docintel/pkg/azopenai"
	"github.com/carepilot/docintel/pkg/pinecone"
)

// mockAI answers CreateMessage by matching a substring of the prompt
// to a scripted reply. Unmatched prompts get the fallback.
type mockAI struct {
	mu       sync.Mutex
	replies  map[string]string
	fallback string
	calls    []string
	err      error
}

func (m *mockAI) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	prompt := req.Messages[len(req.Messages)-1].Content
	m.calls = append(m.calls, prompt)

	text := m.fallback
	for needle, reply := range m.replies {
		if strings.Contains(prompt, needle) {
			text = reply
			break
		}
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}, nil
}

func (m *mockAI) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockAI) callsContaining(needle string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if strings.Contains(c, needle) {
			n++
		}
	}
	return n
}

// mockEmbedder returns a fixed unit vector per input.
type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, inputs []string) (*azopenai.EmbedResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	resp := &azopenai.EmbedResponse{}
	for i := range inputs {
		resp.Data = append(resp.Data, azopenai.Embedding{Index: i, Embedding: []float64{1, 0, 0}})
	}
	return resp, nil
}

// mockIndex returns scripted matches for every query.
type mockIndex struct {
	matches []pinecone.Match
	err     error
	queries []pinecone.QueryRequest
}

func (m *mockIndex) Query(_ context.Context, req pinecone.QueryRequest) (*pinecone.QueryResponse, error) {
	m.queries = append(m.queries, req)
	if m.err != nil {
		return nil, m.err
	}
	return &pinecone.QueryResponse{Matches: m.matches}, nil
}

func (m *mockIndex) Upsert(_ context.Context, req pinecone.UpsertRequest) (*pinecone.UpsertResponse, error) {
	return &pinecone.UpsertResponse{UpsertedCount: len(req.Vectors)}, nil
}

func (m *mockIndex) DeleteByFilter(context.Context, string, map[string]any) error {
	return nil
}

func (m *mockIndex) Stats(context.Context) (*pinecone.StatsResponse, error) {
	return &pinecone.StatsResponse{}, nil
}

// memStore is an in-memory store.Store for pipeline tests.
type memStore struct {
	mu      sync.Mutex
	docs    map[string]*model.Document
	runs    map[string]*model.Run
	records map[string]*model.Record
}

func newMemStore() *memStore {
	return &memStore{
		docs:    map[string]*model.Document{},
		runs:    map[string]*model.Run{},
		records: map[string]*model.Record{},
	}
}

func (s *memStore) SaveDocument(_ context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *doc
	s.docs[doc.ID] = &cp
	return nil
}

func (s *memStore) GetDocument(_ context.Context, id string) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, eris.Errorf("store: document %s not found", id)
	}
	cp := *doc
	return &cp, nil
}

func (s *memStore) ListDocuments(_ context.Context, userID string) ([]model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Document
	for _, d := range s.docs {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *memStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

func (s *memStore) CreateRun(_ context.Context, run *model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *memStore) UpdateRunStatus(_ context.Context, runID string, status model.RunStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return eris.Errorf("store: run %s not found", runID)
	}
	run.Status = status
	return nil
}

func (s *memStore) FinishRun(_ context.Context, run *model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *memStore) GetRun(_ context.Context, runID string) (*model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil, eris.Errorf("store: run %s not found", runID)
	}
	cp := *run
	return &cp, nil
}

func (s *memStore) ListRuns(_ context.Context, documentID string) ([]model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Run
	for _, r := range s.runs {
		if r.DocumentID == documentID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memStore) SaveRecord(_ context.Context, rec *model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

func (s *memStore) GetRecord(_ context.Context, id string) (*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, eris.Errorf("store: record %s not found", id)
	}
	cp := *rec
	return &cp, nil
}

func (s *memStore) ListRecords(_ context.Context, filter store.RecordFilter) ([]model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Record
	for _, r := range s.records {
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.DocType != "" && r.DocType != filter.DocType {
			continue
		}
		if filter.DocumentID != "" && r.DocumentID != filter.DocumentID {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *memStore) Migrate(context.Context) error { return nil }
func (s *memStore) Close() error                  { return nil }

// Package ingest turns source files into stored documents and
// per-chunk vectors in the private Pinecone namespace. Extraction
// runs read those vectors back through the chunk selector.
package ingest

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/carepilot/docintel/internal/chunker"
	"github.com/carepilot/docintel/internal/config"
	"github.com/carepilot/docintel/internal/model"
	"github.com/carepilot/docintel/internal/ocr"
	"github.com/carepilot/docintel/internal/store"
	"github.com/carepilot/docintel/pkg/azopenai"
	"github.com/carepilot/docintel/pkg/pinecone"
)

// Request names one file to ingest for one user.
type Request struct {
	Path    string
	UserID  string
	DocType model.DocumentType
	// DocID is optional. When empty a new id is generated; passing an
	// existing id re-ingests that document in place.
	DocID string
}

// Result reports what a completed ingest produced.
type Result struct {
	Document *model.Document
	Vectors  int
}

// Ingestor runs the OCR, chunk, persist and index steps.
type Ingestor struct {
	cfg      *config.Config
	store    store.Store
	ocr      ocr.Extractor
	embedder azopenai.Client
	index    pinecone.Client
	limiter  *rate.Limiter
}

func New(cfg *config.Config, st store.Store, ex ocr.Extractor, embedder azopenai.Client, index pinecone.Client) *Ingestor {
	rps := cfg.Ingest.EmbedRPS
	if rps <= 0 {
		rps = 5
	}
	return &Ingestor{
		cfg:      cfg,
		store:    st,
		ocr:      ex,
		embedder: embedder,
		index:    index,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Ingest extracts text from the file, splits it into chunks, saves the
// document, and upserts one embedding per chunk. Re-ingesting an
// existing document id replaces its vectors.
func (g *Ingestor) Ingest(ctx context.Context, req Request) (*Result, error) {
	if !model.ValidDocumentType(req.DocType) {
		return nil, eris.Errorf("ingest: unknown document type %q", req.DocType)
	}
	if req.UserID == "" {
		return nil, eris.New("ingest: user id is required")
	}

	docID := req.DocID
	if docID == "" {
		docID = uuid.NewString()
	}
	log := zap.L().With(zap.String("doc_id", docID), zap.String("path", req.Path))

	text, err := g.ocr.ExtractText(ctx, req.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: extract text from %s", req.Path)
	}
	if strings.TrimSpace(text) == "" {
		return nil, eris.Errorf("ingest: no text extracted from %s", req.Path)
	}

	chunks := chunker.Split(text, chunker.Config{
		Strategy: chunker.Strategy(g.cfg.Chunking.Strategy),
		MaxChars: g.cfg.Chunking.MaxChars,
		Overlap:  g.cfg.Chunking.Overlap,
	})
	log.Info("ingest: document chunked",
		zap.Int("chars", len(text)),
		zap.Int("chunks", len(chunks)))

	doc := &model.Document{
		ID:        docID,
		UserID:    req.UserID,
		Type:      req.DocType,
		Name:      filepath.Base(req.Path),
		Text:      text,
		NumChunks: len(chunks),
	}
	if err := g.store.SaveDocument(ctx, doc); err != nil {
		return nil, eris.Wrap(err, "ingest: save document")
	}

	// Clear any vectors from a previous ingest of the same id so the
	// index never holds stale chunks alongside new ones.
	if req.DocID != "" {
		err := g.index.DeleteByFilter(ctx, g.cfg.Pinecone.PrivateNamespace,
			map[string]any{"doc_id": map[string]any{"$eq": docID}})
		if err != nil {
			log.Warn("ingest: delete stale vectors failed", zap.Error(err))
		}
	}

	vectors, err := g.embedChunks(ctx, doc, chunks)
	if err != nil {
		return nil, err
	}
	if err := g.upsert(ctx, vectors); err != nil {
		return nil, err
	}

	log.Info("ingest: document indexed", zap.Int("vectors", len(vectors)))
	return &Result{Document: doc, Vectors: len(vectors)}, nil
}

// embedChunks embeds chunk batches concurrently. Each batch writes a
// disjoint slice range, so no locking is needed.
func (g *Ingestor) embedChunks(ctx context.Context, doc *model.Document, chunks []model.Chunk) ([]pinecone.Vector, error) {
	batchSize := g.cfg.Ingest.UpsertBatch
	if batchSize <= 0 {
		batchSize = 50
	}
	concurrency := g.cfg.Ingest.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	vectors := make([]pinecone.Vector, len(chunks))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		offset := start

		eg.Go(func() error {
			if err := g.limiter.Wait(ctx); err != nil {
				return eris.Wrap(err, "ingest: rate limit wait")
			}
			inputs := make([]string, len(batch))
			for i, c := range batch {
				inputs[i] = c.Text
			}
			resp, err := g.embedder.Embed(ctx, inputs)
			if err != nil {
				return eris.Wrapf(err, "ingest: embed chunks %d-%d", offset, offset+len(batch)-1)
			}
			if len(resp.Data) != len(batch) {
				return eris.Errorf("ingest: embedding count mismatch: want %d got %d", len(batch), len(resp.Data))
			}
			for _, emb := range resp.Data {
				if emb.Index < 0 || emb.Index >= len(batch) {
					return eris.Errorf("ingest: embedding index %d out of range", emb.Index)
				}
				c := batch[emb.Index]
				vectors[offset+emb.Index] = pinecone.Vector{
					ID:     vectorID(doc.ID, c.Index),
					Values: emb.Embedding,
					Metadata: map[string]any{
						"doc_id":      doc.ID,
						"user_id":     doc.UserID,
						"doc_type":    string(doc.Type),
						"chunk_index": c.Index,
						"text":        c.Text,
					},
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (g *Ingestor) upsert(ctx context.Context, vectors []pinecone.Vector) error {
	batchSize := g.cfg.Ingest.UpsertBatch
	if batchSize <= 0 {
		batchSize = 50
	}
	for start := 0; start < len(vectors); start += batchSize {
		end := start + batchSize
		if end > len(vectors) {
			end = len(vectors)
		}
		_, err := g.index.Upsert(ctx, pinecone.UpsertRequest{
			Namespace: g.cfg.Pinecone.PrivateNamespace,
			Vectors:   vectors[start:end],
		})
		if err != nil {
			return eris.Wrapf(err, "ingest: upsert vectors %d-%d", start, end-1)
		}
	}
	return nil
}

// Delete removes a document's row and its vectors from the index.
func (g *Ingestor) Delete(ctx context.Context, docID string) error {
	err := g.index.DeleteByFilter(ctx, g.cfg.Pinecone.PrivateNamespace,
		map[string]any{"doc_id": map[string]any{"$eq": docID}})
	if err != nil {
		return eris.Wrapf(err, "ingest: delete vectors for %s", docID)
	}
	return g.store.DeleteDocument(ctx, docID)
}

// vectorID is deterministic so re-ingesting a document overwrites its
// previous vectors instead of duplicating them.
func vectorID(docID string, chunkIndex int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%d", docID, chunkIndex)))
	return hex.EncodeToString(sum[:])
}

// Package kb seeds the shared knowledge-base namespace with reference
// entries: CPT and ICD-10 codes, LOINC codes, payer policies, and lab
// test definitions. Entries are embedded once and shared by all users.
package kb

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/carepilot/docintel/internal/config"
	"github.com/carepilot/docintel/pkg/azopenai"
	"github.com/carepilot/docintel/pkg/pinecone"
)

// Entry is one knowledge-base item. Text is what gets embedded; the
// rest rides along as metadata for retrieval display.
type Entry struct {
	ID    string   `yaml:"id" json:"id"`
	Kind  string   `yaml:"kind" json:"kind"`
	Title string   `yaml:"title" json:"title"`
	Text  string   `yaml:"text" json:"text"`
	Tags  []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

type seedFile struct {
	Entries []Entry `yaml:"entries" json:"entries"`
}

// Seeder embeds knowledge entries and writes them to the kb namespace.
type Seeder struct {
	cfg      *config.Config
	embedder azopenai.Client
	index    pinecone.Client
	limiter  *rate.Limiter
}

func New(cfg *config.Config, embedder azopenai.Client, index pinecone.Client) *Seeder {
	rps := cfg.Ingest.EmbedRPS
	if rps <= 0 {
		rps = 5
	}
	return &Seeder{
		cfg:      cfg,
		embedder: embedder,
		index:    index,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// LoadEntries parses a YAML or JSON seed file. YAML parsing accepts
// both, so no format sniffing is needed.
func LoadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "kb: read seed file %s", path)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "kb: parse seed file %s", path)
	}
	if len(f.Entries) == 0 {
		return nil, eris.Errorf("kb: seed file %s has no entries", path)
	}
	seen := make(map[string]bool, len(f.Entries))
	for i, e := range f.Entries {
		if strings.TrimSpace(e.ID) == "" {
			return nil, eris.Errorf("kb: entry %d has no id", i)
		}
		if strings.TrimSpace(e.Text) == "" {
			return nil, eris.Errorf("kb: entry %q has no text", e.ID)
		}
		if seen[e.ID] {
			return nil, eris.Errorf("kb: duplicate entry id %q", e.ID)
		}
		seen[e.ID] = true
	}
	return f.Entries, nil
}

// Seed embeds and upserts all entries from the file. It returns the
// number of vectors written.
func (s *Seeder) Seed(ctx context.Context, path string) (int, error) {
	entries, err := LoadEntries(path)
	if err != nil {
		return 0, err
	}

	batchSize := s.cfg.Ingest.UpsertBatch
	if batchSize <= 0 {
		batchSize = 50
	}

	log := zap.L().With(zap.String("namespace", s.cfg.Pinecone.KBNamespace))
	written := 0
	for start := 0; start < len(entries); start += batchSize {
		end := start + batchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]

		if err := s.limiter.Wait(ctx); err != nil {
			return written, eris.Wrap(err, "kb: rate limit wait")
		}
		inputs := make([]string, len(batch))
		for i, e := range batch {
			inputs[i] = e.Text
		}
		resp, err := s.embedder.Embed(ctx, inputs)
		if err != nil {
			return written, eris.Wrapf(err, "kb: embed entries %d-%d", start, end-1)
		}
		if len(resp.Data) != len(batch) {
			return written, eris.Errorf("kb: embedding count mismatch: want %d got %d", len(batch), len(resp.Data))
		}

		vectors := make([]pinecone.Vector, len(batch))
		for _, emb := range resp.Data {
			if emb.Index < 0 || emb.Index >= len(batch) {
				return written, eris.Errorf("kb: embedding index %d out of range", emb.Index)
			}
			e := batch[emb.Index]
			meta := map[string]any{
				"kind":  e.Kind,
				"title": e.Title,
				"text":  e.Text,
			}
			if len(e.Tags) > 0 {
				meta["tags"] = e.Tags
			}
			vectors[emb.Index] = pinecone.Vector{
				ID:       e.ID,
				Values:   emb.Embedding,
				Metadata: meta,
			}
		}

		if _, err := s.index.Upsert(ctx, pinecone.UpsertRequest{
			Namespace: s.cfg.Pinecone.KBNamespace,
			Vectors:   vectors,
		}); err != nil {
			return written, eris.Wrapf(err, "kb: upsert entries %d-%d", start, end-1)
		}
		written += len(vectors)
	}

	log.Info("kb: namespace seeded", zap.Int("entries", written))
	return written, nil
}

// Purge deletes every kb entry of one kind, or the whole namespace
// contents when kind is empty.
func (s *Seeder) Purge(ctx context.Context, kind string) error {
	filter := map[string]any{}
	if kind != "" {
		filter["kind"] = map[string]any{"$eq": kind}
	}
	err := s.index.DeleteByFilter(ctx, s.cfg.Pinecone.KBNamespace, filter)
	return eris.Wrap(err, "kb: purge")
}

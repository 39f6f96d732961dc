package extract

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/carepilot/docintel/internal/model"
	"github.com/carepilot/docintel/pkg/azopenai"
	"github.com/carepilot/docintel/pkg/pinecone"
)

// maxSeedQueries caps how many seed queries a category may spend on
// the vector index per pass.
const maxSeedQueries = 3

// ChunkSelector resolves a category's seed queries against the vector
// index and returns the document chunk indices worth prompting with.
type ChunkSelector struct {
	embedder  azopenai.Client
	index     pinecone.Client
	namespace string
	topK      int
}

// NewChunkSelector builds a selector querying one namespace.
func NewChunkSelector(embedder azopenai.Client, index pinecone.Client, namespace string, topK int) *ChunkSelector {
	return &ChunkSelector{
		embedder:  embedder,
		index:     index,
		namespace: namespace,
		topK:      topK,
	}
}

// Select returns chunk indices for doc relevant to the seed queries,
// best score first, restricted to indices the document actually has.
// An empty result tells the caller to fall back to all chunks. Per-seed
// failures are logged and skipped; only a fully failed selection
// yields nothing.
func (s *ChunkSelector) Select(ctx context.Context, doc *model.Document, queries []string) []int {
	if len(queries) > maxSeedQueries {
		queries = queries[:maxSeedQueries]
	}

	log := zap.L().With(zap.String("doc_id", doc.ID))

	type scored struct {
		idx   int
		score float64
	}
	best := map[int]float64{}

	for _, q := range queries {
		emb, err := s.embedder.Embed(ctx, []string{q})
		if err != nil {
			log.Warn("selector: embed seed query failed", zap.String("query", q), zap.Error(err))
			continue
		}
		if len(emb.Data) == 0 {
			continue
		}

		resp, err := s.index.Query(ctx, pinecone.QueryRequest{
			Namespace:       s.namespace,
			Vector:          emb.Data[0].Embedding,
			TopK:            s.topK,
			Filter:          docFilter(doc),
			IncludeMetadata: true,
		})
		if err != nil {
			log.Warn("selector: index query failed", zap.String("query", q), zap.Error(err))
			continue
		}

		for _, m := range resp.Matches {
			idx, ok := chunkIndex(m.Metadata)
			if !ok || idx < 0 || idx >= doc.NumChunks {
				continue
			}
			if prev, seen := best[idx]; !seen || m.Score > prev {
				best[idx] = m.Score
			}
		}
	}

	ranked := make([]scored, 0, len(best))
	for idx, score := range best {
		ranked = append(ranked, scored{idx, score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].idx < ranked[j].idx
	})

	out := make([]int, len(ranked))
	for i, r := range ranked {
		out[i] = r.idx
	}
	return out
}

// docFilter scopes an index query to one user's document.
func docFilter(doc *model.Document) map[string]any {
	return map[string]any{
		"doc_id":   map[string]any{"$eq": doc.ID},
		"user_id":  map[string]any{"$eq": doc.UserID},
		"doc_type": map[string]any{"$eq": string(doc.Type)},
	}
}

func chunkIndex(meta map[string]any) (int, bool) {
	v, ok := meta["chunk_index"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

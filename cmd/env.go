package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carepilot/docintel/internal/extract"
	"github.com/carepilot/docintel/internal/ingest"
	"github.com/carepilot/docintel/internal/ocr"
	"github.com/carepilot/docintel/internal/registry"
	"github.com/carepilot/docintel/internal/store"
	anthropicpkg "github.com/carepilot/docintel/pkg/anthropic"
	"github.com/carepilot/docintel/pkg/azopenai"
	"github.com/carepilot/docintel/pkg/pinecone"
)

// appEnv holds the initialized store, clients, and pipelines shared by
// the ingest/extract/batch/serve commands.
type appEnv struct {
	Store    store.Store
	Registry *registry.Registry
	Embedder azopenai.Client
	Index    pinecone.Client
	Ingestor *ingest.Ingestor
	Pipeline *extract.Pipeline
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "docintel.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initRegistry() (*registry.Registry, error) {
	reg := registry.NewRegistry()
	if schemaDir != "" {
		if err := reg.LoadDir(schemaDir); err != nil {
			return nil, err
		}
		zap.L().Info("schema directory loaded", zap.String("dir", schemaDir))
	}
	return reg, nil
}

func initEmbedder() azopenai.Client {
	opts := []azopenai.Option{}
	if cfg.Azure.APIVersion != "" {
		opts = append(opts, azopenai.WithAPIVersion(cfg.Azure.APIVersion))
	}
	if cfg.Azure.Dimension > 0 {
		opts = append(opts, azopenai.WithDimensions(cfg.Azure.Dimension))
	}
	return azopenai.NewClient(cfg.Azure.Key, cfg.Azure.Endpoint, cfg.Azure.Deployment, opts...)
}

// initEnv validates config for the given mode, then builds the store,
// vector clients and both pipelines. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	reg, err := initRegistry()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	embedder := initEmbedder()
	index := pinecone.NewClient(cfg.Pinecone.Key, cfg.Pinecone.IndexHost)

	extractor, err := ocr.NewExtractor(cfg.OCR)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	env := &appEnv{
		Store:    st,
		Registry: reg,
		Embedder: embedder,
		Index:    index,
		Ingestor: ingest.New(cfg, st, extractor, embedder, index),
	}

	if mode == "extract" || mode == "serve" {
		ai := anthropicpkg.NewClient(cfg.Anthropic.Key)
		env.Pipeline = extract.NewPipeline(cfg, st, reg, ai, embedder, index)
	}

	return env, nil
}

package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Pinecone  PineconeConfig  `yaml:"pinecone" mapstructure:"pinecone"`
	Azure     AzureConfig     `yaml:"azure" mapstructure:"azure"`
	OCR       OCRConfig       `yaml:"ocr" mapstructure:"ocr"`
	Chunking  ChunkingConfig  `yaml:"chunking" mapstructure:"chunking"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PineconeConfig holds Pinecone vector index settings.
type PineconeConfig struct {
	Key              string `yaml:"key" mapstructure:"key"`
	IndexHost        string `yaml:"index_host" mapstructure:"index_host"`
	KBNamespace      string `yaml:"kb_namespace" mapstructure:"kb_namespace"`
	PrivateNamespace string `yaml:"private_namespace" mapstructure:"private_namespace"`
}

// AzureConfig holds Azure OpenAI embedding settings.
type AzureConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	Endpoint   string `yaml:"endpoint" mapstructure:"endpoint"`
	Deployment string `yaml:"deployment" mapstructure:"deployment"`
	APIVersion string `yaml:"api_version" mapstructure:"api_version"`
	Dimension  int    `yaml:"dimension" mapstructure:"dimension"`
}

// OCRConfig configures PDF text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
}

// ChunkingConfig configures document chunking.
type ChunkingConfig struct {
	Strategy string `yaml:"strategy" mapstructure:"strategy"`
	MaxChars int    `yaml:"max_chars" mapstructure:"max_chars"`
	Overlap  int    `yaml:"overlap" mapstructure:"overlap"`
}

// PipelineConfig configures extraction behavior.
type PipelineConfig struct {
	MaxRefinePasses int `yaml:"max_refine_passes" mapstructure:"max_refine_passes"`
	SelectorTopK    int `yaml:"selector_top_k" mapstructure:"selector_top_k"`
}

// IngestConfig configures document ingestion.
type IngestConfig struct {
	EmbedRPS       float64 `yaml:"embed_rps" mapstructure:"embed_rps"`
	UpsertBatch    int     `yaml:"upsert_batch" mapstructure:"upsert_batch"`
	MaxConcurrency int     `yaml:"max_concurrency" mapstructure:"max_concurrency"`
}

// BatchConfig configures batch extraction.
type BatchConfig struct {
	MaxConcurrentDocs int `yaml:"max_concurrent_docs" mapstructure:"max_concurrent_docs"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CAREPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "docintel.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("pinecone.kb_namespace", "kb")
	v.SetDefault("pinecone.private_namespace", "private")
	v.SetDefault("azure.api_version", "2024-02-01")
	v.SetDefault("azure.deployment", "text-embedding-3-large")
	v.SetDefault("azure.dimension", 3072)
	v.SetDefault("ocr.provider", "native")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("chunking.strategy", "sentence")
	v.SetDefault("chunking.max_chars", 1000)
	v.SetDefault("chunking.overlap", 200)
	v.SetDefault("pipeline.max_refine_passes", 3)
	v.SetDefault("pipeline.selector_top_k", 20)
	v.SetDefault("ingest.embed_rps", 5)
	v.SetDefault("ingest.upsert_batch", 100)
	v.SetDefault("ingest.max_concurrency", 4)
	v.SetDefault("batch.max_concurrent_docs", 3)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration carries everything the given
// mode needs. Modes: "ingest", "extract", "serve", "kb".
func (c *Config) Validate(mode string) error {
	var missing []string

	requireVector := func() {
		if c.Pinecone.Key == "" {
			missing = append(missing, "pinecone.key is required")
		}
		if c.Pinecone.IndexHost == "" {
			missing = append(missing, "pinecone.index_host is required")
		}
		if c.Azure.Key == "" {
			missing = append(missing, "azure.key is required")
		}
		if c.Azure.Endpoint == "" {
			missing = append(missing, "azure.endpoint is required")
		}
	}

	switch mode {
	case "ingest", "kb":
		requireVector()
	case "extract":
		requireVector()
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key is required")
		}
	case "serve":
		requireVector()
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key is required")
		}
		if c.Server.Port <= 0 {
			missing = append(missing, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Chunking.MaxChars <= 0 {
		missing = append(missing, "chunking.max_chars must be > 0")
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.MaxChars {
		missing = append(missing, "chunking.overlap must be in [0, max_chars)")
	}
	if c.Pipeline.MaxRefinePasses < 0 {
		missing = append(missing, "pipeline.max_refine_passes must be >= 0")
	}
	if c.Batch.MaxConcurrentDocs < 1 || c.Batch.MaxConcurrentDocs > 50 {
		missing = append(missing, "batch.max_concurrent_docs must be between 1 and 50")
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Mode selects which parts of the configuration must be present.
type Mode int

const (
	ModeRun Mode = iota
	ModeIngest
	ModeAsk
	ModeInspect
)

// Config is loaded once at startup and passed by value to constructors.
type Config struct {
	Source      string            `mapstructure:"source"`
	Query       string            `mapstructure:"query"`
	Provider    string            `mapstructure:"provider"`
	Chunking    ChunkingConfig    `mapstructure:"chunking"`
	Retrieval   RetrievalConfig   `mapstructure:"retrieval"`
	Gemini      GeminiConfig      `mapstructure:"gemini"`
	OpenAI      OpenAIConfig      `mapstructure:"openai"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Storage     StorageLocation   `mapstructure:"storage"`
	RunStore    RunStoreConfig    `mapstructure:"run_store"`
	Retry       RetryConfig       `mapstructure:"retry"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Log         LogConfig         `mapstructure:"log"`
	HTTP        HTTPConfig        `mapstructure:"http"`
}

type ChunkingConfig struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

type RetrievalConfig struct {
	TopK int `mapstructure:"top_k"`
}

type GeminiConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	Backend        string  `mapstructure:"backend"`
	Temperature    float32 `mapstructure:"temperature"`
}

type OpenAIConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Model          string  `mapstructure:"model"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	Temperature    float64 `mapstructure:"temperature"`
}

type EmbeddingConfig struct {
	Dimension         int32   `mapstructure:"dimension"`
	BatchSize         int     `mapstructure:"batch_size"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

type VectorStoreConfig struct {
	Backend    string        `mapstructure:"backend"`
	Collection string        `mapstructure:"collection"`
	Qdrant     QdrantConfig  `mapstructure:"qdrant"`
	Chromem    ChromemConfig `mapstructure:"chromem"`
}

type QdrantConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
	UseTLS bool   `mapstructure:"use_tls"`
}

type ChromemConfig struct {
	Path     string `mapstructure:"path"`
	Compress bool   `mapstructure:"compress"`
}

// StorageLocation holds the PROJECT_ID, DATASET, TABLE and REGION settings.
// Dataset and table name the collection when none is configured. Project and
// region are used by the Vertex backend.
type StorageLocation struct {
	Project string `mapstructure:"project"`
	Dataset string `mapstructure:"dataset"`
	Table   string `mapstructure:"table"`
	Region  string `mapstructure:"region"`
}

type RunStoreConfig struct {
	Backend       string        `mapstructure:"backend"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	Multiplier     float64       `mapstructure:"multiplier"`
}

type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// NewViper returns a viper instance with defaults and environment bindings
// applied. Flags are bound by the caller.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	bindLegacyEnv(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source", "")
	v.SetDefault("query", "")
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("chunking.size", DefaultChunkSize)
	v.SetDefault("chunking.overlap", DefaultChunkOverlap)
	v.SetDefault("retrieval.top_k", DefaultTopK)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", GeminiModelName)
	v.SetDefault("gemini.embedding_model", GoogleEmbeddingModel)
	v.SetDefault("gemini.backend", GeminiBackendAPI)
	v.SetDefault("gemini.temperature", ModelTemperature)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", OpenAIModelName)
	v.SetDefault("openai.embedding_model", OpenAIEmbeddingModel)
	v.SetDefault("openai.temperature", ModelTemperature)

	v.SetDefault("embedding.dimension", EmbeddingOutputDimensionality)
	v.SetDefault("embedding.batch_size", EmbeddingBatchSize)
	v.SetDefault("embedding.requests_per_second", EmbeddingRequestsPerSecond)

	v.SetDefault("vector_store.backend", VectorBackendQdrant)
	v.SetDefault("vector_store.collection", "")
	v.SetDefault("vector_store.qdrant.host", QdrantHost)
	v.SetDefault("vector_store.qdrant.port", QdrantGrpcPort)
	v.SetDefault("vector_store.qdrant.api_key", "")
	v.SetDefault("vector_store.qdrant.use_tls", QdrantUseTLS)
	v.SetDefault("vector_store.chromem.path", ChromemPath)
	v.SetDefault("vector_store.chromem.compress", false)

	v.SetDefault("storage.project", "")
	v.SetDefault("storage.dataset", "")
	v.SetDefault("storage.table", "")
	v.SetDefault("storage.region", "")

	v.SetDefault("run_store.backend", RunStoreRedis)
	v.SetDefault("run_store.redis_addr", RedisAddr)
	v.SetDefault("run_store.redis_password", "")
	v.SetDefault("run_store.redis_db", RedisRunDB)
	v.SetDefault("run_store.ttl", RedisRunTTL)

	v.SetDefault("retry.max_attempts", RetryMaxAttempts)
	v.SetDefault("retry.initial_backoff", RetryInitialBackoff)
	v.SetDefault("retry.max_backoff", RetryMaxBackoff)
	v.SetDefault("retry.multiplier", RetryBackoffMultiplier)

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", MetricsJobName)

	v.SetDefault("log.level", LogLevel)
	v.SetDefault("log.json", false)
	v.SetDefault("http.timeout", HTTPTimeout)
}

// plain names kept for existing .env files
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("gemini.api_key", "RAG_GEMINI_API_KEY", "GEMINI_API_KEYS", "GEMINI_API_KEY")
	_ = v.BindEnv("openai.api_key", "RAG_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("storage.project", "RAG_STORAGE_PROJECT", "PROJECT_ID")
	_ = v.BindEnv("storage.dataset", "RAG_STORAGE_DATASET", "DATASET")
	_ = v.BindEnv("storage.table", "RAG_STORAGE_TABLE", "TABLE")
	_ = v.BindEnv("storage.region", "RAG_STORAGE_REGION", "REGION")
	_ = v.BindEnv("vector_store.qdrant.host", "RAG_VECTOR_STORE_QDRANT_HOST", "QDRANT_HOST")
	_ = v.BindEnv("vector_store.qdrant.port", "RAG_VECTOR_STORE_QDRANT_PORT", "QDRANT_PORT")
	_ = v.BindEnv("run_store.redis_addr", "RAG_RUN_STORE_REDIS_ADDR", "REDIS_ADDR")
}

// LoadDotEnv loads a .env file into the process environment. A missing default
// file is not an error; a missing explicitly named file is.
func LoadDotEnv(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return commonModels.ConfigurationError("load env file", err)
	}
	return nil
}

// Load reads the optional config file and unmarshals everything into Config.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, commonModels.ConfigurationError("read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, commonModels.ConfigurationError("decode config", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.VectorStore.Backend = strings.ToLower(strings.TrimSpace(c.VectorStore.Backend))
	c.RunStore.Backend = strings.ToLower(strings.TrimSpace(c.RunStore.Backend))
	c.Gemini.Backend = strings.ToLower(strings.TrimSpace(c.Gemini.Backend))
	c.Gemini.APIKey = firstKey(c.Gemini.APIKey)
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)

	if c.VectorStore.Collection == "" {
		c.VectorStore.Collection = c.Storage.CollectionName()
	}
}

// GEMINI_API_KEYS may hold a comma separated list; only the first key is used.
func firstKey(keys string) string {
	first, _, _ := strings.Cut(keys, ",")
	return strings.TrimSpace(first)
}

func (s StorageLocation) CollectionName() string {
	if s.Dataset != "" && s.Table != "" {
		return s.Dataset + "_" + s.Table
	}
	if s.Table != "" {
		return s.Table
	}
	return DefaultCollectionName
}

// Validate fails with a ConfigurationError before any I/O happens.
func (c Config) Validate(mode Mode) error {
	var errs []error

	if mode == ModeRun || mode == ModeIngest {
		if strings.TrimSpace(c.Source) == "" {
			errs = append(errs, errors.New("source is required"))
		}
		if err := ValidateChunking(c.Chunking.Size, c.Chunking.Overlap); err != nil {
			errs = append(errs, err)
		}
	}
	if mode == ModeRun || mode == ModeAsk {
		if strings.TrimSpace(c.Query) == "" {
			errs = append(errs, errors.New("query is required"))
		}
		if c.Retrieval.TopK < 1 {
			errs = append(errs, fmt.Errorf("retrieval.top_k must be >= 1, got %d", c.Retrieval.TopK))
		}
	}

	if mode != ModeInspect {
		errs = append(errs, c.validateProvider()...)
		errs = append(errs, c.validateVectorStore()...)
		if c.Embedding.BatchSize < 1 {
			errs = append(errs, fmt.Errorf("embedding.batch_size must be >= 1, got %d", c.Embedding.BatchSize))
		}
		if c.Retry.MaxAttempts < 1 {
			errs = append(errs, fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts))
		}
	}

	switch c.RunStore.Backend {
	case RunStoreRedis, RunStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown run_store.backend %q", c.RunStore.Backend))
	}

	if len(errs) > 0 {
		return commonModels.ConfigurationError("validate config", errors.Join(errs...))
	}
	return nil
}

func (c Config) validateProvider() []error {
	var errs []error
	switch c.Provider {
	case ProviderGemini:
		switch c.Gemini.Backend {
		case GeminiBackendAPI:
			if c.Gemini.APIKey == "" {
				errs = append(errs, errors.New("gemini api key is missing (GEMINI_API_KEYS)"))
			}
		case GeminiBackendVertex:
			if c.Storage.Project == "" || c.Storage.Region == "" {
				errs = append(errs, errors.New("vertex backend needs storage.project and storage.region (PROJECT_ID, REGION)"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown gemini.backend %q", c.Gemini.Backend))
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("openai api key is missing (OPENAI_API_KEY)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}
	return errs
}

func (c Config) validateVectorStore() []error {
	var errs []error
	switch c.VectorStore.Backend {
	case VectorBackendQdrant:
		if c.VectorStore.Qdrant.Host == "" {
			errs = append(errs, errors.New("vector_store.qdrant.host is required"))
		}
	case VectorBackendChromem:
	default:
		errs = append(errs, fmt.Errorf("unknown vector_store.backend %q", c.VectorStore.Backend))
	}
	if c.VectorStore.Collection == "" {
		errs = append(errs, errors.New("vector_store.collection is empty"))
	}
	if c.Embedding.Dimension < 1 {
		errs = append(errs, fmt.Errorf("embedding.dimension must be >= 1, got %d", c.Embedding.Dimension))
	}
	return errs
}

// ValidateChunking is shared with the chunker so both reject the same inputs.
func ValidateChunking(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("chunk size must be > 0, got %d", size)
	}
	if overlap < 0 {
		return fmt.Errorf("chunk overlap must be >= 0, got %d", overlap)
	}
	if overlap >= size {
		return fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", overlap, size)
	}
	return nil
}

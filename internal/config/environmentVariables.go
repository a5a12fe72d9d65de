package config

import (
	"time"
)

const (
	RUN_ID_KEY = "runId"
	EnvPrefix  = "RAG"

	//chunking
	DefaultChunkSize    = 400
	DefaultChunkOverlap = 20

	//retrieval
	DefaultTopK = 4

	DefaultQuery  = "What is the main topic of the document?"
	DefaultSource = "https://s201.q4cdn.com/141608511/files/doc_financials/2026/q3/NVDA-Q3-2026-Earnings-Call-19-November-2025-5_00-PM-ET.pdf"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	//embeddings
	EmbeddingOutputDimensionality int32 = 768
	EmbeddingBatchSize                  = 100
	EmbeddingRequestsPerSecond          = 5.0

	//gemini
	GeminiModelName       = "gemini-2.0-flash"
	GoogleEmbeddingModel  = "gemini-embedding-001"
	GeminiBackendAPI      = "gemini-api"
	GeminiBackendVertex   = "vertex"
	ModelTemperature      = 0.2
	OpenAIModelName       = "gpt-4o-mini"
	OpenAIEmbeddingModel  = "text-embedding-3-small"
	DefaultCollectionName = "pdfrag-chunks"

	//vectorDB
	VectorBackendQdrant     = "qdrant"
	VectorBackendChromem    = "chromem"
	QdrantHost              = "localhost"
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false
	QdrantPoolSize          = 1
	QdrantConnectionTimeout = 30 * time.Second
	ChromemPath             = "./chromemdb"

	//run ledger
	RunStoreRedis  = "redis"
	RunStoreMemory = "memory"
	redisHost      = "127.0.0.1"
	redisPort      = "6379"
	RedisAddr      = redisHost + ":" + redisPort
	RedisRunDB     = 0
	RedisRunTTL    = 7 * 24 * time.Hour
	RedisPingWait  = 3 * time.Second

	//retry - a single attempt unless raised in config
	RetryMaxAttempts       = 1
	RetryInitialBackoff    = 2 * time.Second
	RetryMaxBackoff        = 30 * time.Second
	RetryBackoffMultiplier = 2.0

	//http pooling
	HTTPTimeout         = 60 * time.Second
	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//extraction
	PageExtractTimeout = 10 * time.Second

	MetricsJobName = "pdfrag"
	LogLevel       = "info"
)

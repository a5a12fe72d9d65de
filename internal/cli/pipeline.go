package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/customHttpClient"
	"github.com/akolanti/pdfrag/internal/data/store"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/rag"
	"github.com/akolanti/pdfrag/internal/rag/embedding"
	"github.com/akolanti/pdfrag/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/pdfrag/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/pdfrag/internal/rag/ingest"
	"github.com/akolanti/pdfrag/internal/rag/llm"
	"github.com/akolanti/pdfrag/internal/rag/llm/gemini"
	"github.com/akolanti/pdfrag/internal/rag/llm/openaiLLM"
	"github.com/akolanti/pdfrag/internal/rag/vectorDB"
	"github.com/akolanti/pdfrag/internal/rag/vectorDB/chromemDB"
	"github.com/akolanti/pdfrag/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/pdfrag/internal/resilience"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

// pipeline owns every external client of one invocation.
type pipeline struct {
	service rag.Service
	ledger  store.Ledger
	index   vectorDB.Index
}

func (p *pipeline) Close(log *logger_i.Logger) {
	if p.index != nil {
		if err := p.index.Close(); err != nil {
			log.Warn("Error closing vector store", "error", err)
		}
	}
	if err := p.ledger.Close(); err != nil {
		log.Warn("Error closing run ledger", "error", err)
	}
}

func buildPipeline(ctx context.Context, cfg config.Config, log *logger_i.Logger) (*pipeline, error) {
	httpClient := customHttpClient.NewClient(cfg.HTTP.Timeout)
	retry := resilience.NewPolicy(cfg.Retry)
	limiter := resilience.NewRateLimiter(cfg.Embedding.RequestsPerSecond, 1)

	embedder, provider, err := newModels(ctx, cfg, httpClient, retry, limiter)
	if err != nil {
		return nil, err
	}

	index, err := newIndex(cfg, retry)
	if err != nil {
		return nil, err
	}

	ledger := store.NewLedger(ctx, cfg.RunStore)
	log.Debug("Pipeline ready", "provider", cfg.Provider, "vector_store", cfg.VectorStore.Backend, "collection", cfg.VectorStore.Collection)

	service := rag.NewService(rag.Dependencies{
		Loader: ingest.NewLoader(httpClient),
		Store:  vectorDB.NewStore(index, embedder, cfg.Embedding.BatchSize),
		LLM:    provider,
		Runs:   ledger.Runs,
		Steps:  ledger.Steps,
	}, rag.OptionsFromConfig(cfg))

	return &pipeline{service: service, ledger: ledger, index: index}, nil
}

func newModels(ctx context.Context, cfg config.Config, httpClient *http.Client, retry resilience.Policy, limiter *resilience.RateLimiter) (embedding.Embedder, llm.Provider, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := gemini.NewGenAIClient(ctx, cfg, httpClient)
		if err != nil {
			return nil, nil, commonModels.ConfigurationError("gemini client", err)
		}
		embedder := googleEmbedding.NewGoogleEmbedder(client, googleEmbedding.Options{
			Model:     cfg.Gemini.EmbeddingModel,
			Dimension: cfg.Embedding.Dimension,
			Retry:     retry,
			Limiter:   limiter,
		})
		return embedder, gemini.NewGeminiClient(client, cfg, retry, limiter), nil
	case config.ProviderOpenAI:
		return openaiEmbedding.NewOpenAIEmbedder(cfg, httpClient, retry, limiter),
			openaiLLM.NewOpenAIClient(cfg, httpClient, retry, limiter), nil
	}
	return nil, nil, commonModels.ConfigurationError("provider", fmt.Errorf("unknown provider %q", cfg.Provider))
}

func newIndex(cfg config.Config, retry resilience.Policy) (vectorDB.Index, error) {
	switch cfg.VectorStore.Backend {
	case config.VectorBackendQdrant:
		db, err := qdrantDB.NewQdrantClient(cfg, retry)
		if err != nil {
			return nil, commonModels.RetrievalError("connect qdrant", err)
		}
		return db, nil
	case config.VectorBackendChromem:
		db, err := chromemDB.NewChromemDB(cfg.VectorStore)
		if err != nil {
			return nil, commonModels.RetrievalError("open chromem", err)
		}
		return db, nil
	}
	return nil, commonModels.ConfigurationError("vector store", errors.New("unknown backend "+cfg.VectorStore.Backend))
}

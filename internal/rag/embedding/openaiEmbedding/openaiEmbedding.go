package openaiEmbedding

import (
	"context"
	"fmt"
	"net/http"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/resilience"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const upstream = "openai-embedding"

type Client struct {
	api       openai.Client
	model     string
	dimension int32
	retry     resilience.Policy
	limiter   *resilience.RateLimiter
	logger    *logger_i.Logger
}

func NewOpenAIEmbedder(cfg config.Config, httpClient *http.Client, retry resilience.Policy, limiter *resilience.RateLimiter) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAI.APIKey),
		// retries are owned by resilience.Policy
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	return &Client{
		api:       openai.NewClient(opts...),
		model:     cfg.OpenAI.EmbeddingModel,
		dimension: cfg.Embedding.Dimension,
		retry:     retry,
		limiter:   limiter,
		logger:    logger_i.NewLogger("openai_embedding"),
	}
}

func (c *Client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.BatchEmbedding(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: chunks},
		Model: openai.EmbeddingModel(c.model),
	}
	if c.dimension > 0 {
		params.Dimensions = openai.Int(int64(c.dimension))
	}

	var resp *openai.CreateEmbeddingResponse
	err := c.retry.Do(ctx, "embed", c.logger, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx, upstream); err != nil {
			return err
		}
		var err error
		resp, err = c.api.Embeddings.New(ctx, params)
		return err
	})
	if err != nil {
		c.logger.Error("Error getting Embeddings from OpenAI", "error", err, "batch", len(chunks))
		return nil, err
	}
	if len(resp.Data) != len(chunks) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(chunks))
	}

	// results carry their input index and are not guaranteed to be ordered
	out := make([][]float32, len(chunks))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(chunks) {
			return nil, fmt.Errorf("openai returned embedding for unknown index %d", d.Index)
		}
		out[d.Index] = toFloat32(d.Embedding)
	}
	return out, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

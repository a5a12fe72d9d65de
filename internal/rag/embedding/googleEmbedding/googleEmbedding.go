package googleEmbedding

import (
	"context"
	"fmt"

	"github.com/akolanti/pdfrag/internal/resilience"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"google.golang.org/genai"
)

const (
	taskTypeDocument = "RETRIEVAL_DOCUMENT"
	taskTypeQuery    = "RETRIEVAL_QUERY"
	upstream         = "gemini-embedding"
)

type Client struct {
	genAi     *genai.Client
	model     string
	dimension int32
	retry     resilience.Policy
	limiter   *resilience.RateLimiter
	logger    *logger_i.Logger
}

type Options struct {
	Model     string
	Dimension int32
	Retry     resilience.Policy
	Limiter   *resilience.RateLimiter
}

// NewGoogleEmbedder shares the genai client with the Gemini generator.
func NewGoogleEmbedder(genAi *genai.Client, opts Options) *Client {
	logger := logger_i.NewLogger("google_embedding")
	logger.Debug("Google Embedding model name: " + opts.Model)
	return &Client{
		genAi:     genAi,
		model:     opts.Model,
		dimension: opts.Dimension,
		retry:     opts.Retry,
		limiter:   opts.Limiter,
		logger:    logger,
	}
}

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))

	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

func (c *Client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	res, err := c.doCall(ctx, genai.Text(query), taskTypeQuery)
	if err != nil {
		c.logger.Error("Error getting query embedding from Google", "error", err)
		return nil, err
	}
	if len(res.Embeddings) != 1 {
		return nil, fmt.Errorf("expected 1 query embedding, got %d", len(res.Embeddings))
	}
	return res.Embeddings[0].Values, nil
}

func (c *Client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	res, err := c.doCall(ctx, getContent(chunks), taskTypeDocument)
	if err != nil {
		c.logger.Error("Error getting Embeddings from Google", "error", err, "batch", len(chunks))
		return nil, err
	}
	if len(res.Embeddings) != len(chunks) {
		return nil, fmt.Errorf("google returned %d embeddings for %d chunks", len(res.Embeddings), len(chunks))
	}

	embeddingResults := make([][]float32, 0, len(res.Embeddings))
	for _, r := range res.Embeddings {
		embeddingResults = append(embeddingResults, r.Values)
	}
	return embeddingResults, nil
}

func (c *Client) doCall(ctx context.Context, content []*genai.Content, taskType string) (*genai.EmbedContentResponse, error) {
	dimension := c.dimension
	conf := &genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: taskType}

	var result *genai.EmbedContentResponse
	err := c.retry.Do(ctx, "embed", c.logger, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx, upstream); err != nil {
			return err
		}
		var err error
		result, err = c.genAi.Models.EmbedContent(ctx, c.model, content, conf)
		return err
	})
	return result, err
}

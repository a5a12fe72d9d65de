package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/rag/llm"
	"github.com/akolanti/pdfrag/internal/resilience"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"google.golang.org/genai"
)

const upstream = "gemini-generation"

type llmClient struct {
	client      *genai.Client
	modelName   string
	temperature float32
	retry       resilience.Policy
	limiter     *resilience.RateLimiter
	logger      *logger_i.Logger
}

// NewGenAIClient builds the genai client shared by generation and embedding.
// The vertex backend takes project and region from the storage location.
func NewGenAIClient(ctx context.Context, cfg config.Config, httpClient *http.Client) (*genai.Client, error) {
	cc := &genai.ClientConfig{HTTPClient: httpClient}
	if cfg.Gemini.Backend == config.GeminiBackendVertex {
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Storage.Project
		cc.Location = cfg.Storage.Region
	} else {
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.Gemini.APIKey
	}

	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return c, nil
}

func NewGeminiClient(client *genai.Client, cfg config.Config, retry resilience.Policy, limiter *resilience.RateLimiter) llm.Provider {
	logger := logger_i.NewLogger("llm_gemini")
	logger.Debug("Gemini client created", "model", cfg.Gemini.Model)
	return &llmClient{
		client:      client,
		modelName:   cfg.Gemini.Model,
		temperature: cfg.Gemini.Temperature,
		retry:       retry,
		limiter:     limiter,
		logger:      logger,
	}
}

func (c *llmClient) Complete(ctx context.Context, prompt string) (string, error) {
	temperature := c.temperature
	contentConfig := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}

	var result *genai.GenerateContentResponse
	err := c.retry.Do(ctx, "generate", c.logger, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx, upstream); err != nil {
			return err
		}
		var err error
		result, err = c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), contentConfig)
		return err
	})
	if err != nil {
		c.logger.Error("Gemini generation failed", "error", err)
		return "", err
	}

	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", result.PromptFeedback.BlockReason)
	}

	finishReason := genai.FinishReason("")
	if len(result.Candidates) > 0 {
		finishReason = result.Candidates[0].FinishReason
	}
	if u := result.UsageMetadata; u != nil {
		c.logger.Debug("Gemini usage", "prompt_tokens", u.PromptTokenCount,
			"output_tokens", u.CandidatesTokenCount, "finish_reason", finishReason)
	}

	text := result.Text()
	if text == "" {
		return "", errors.New("gemini returned no text, finish reason: " + string(finishReason))
	}
	return text, nil
}

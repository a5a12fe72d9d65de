package openaiLLM

import (
	"context"
	"errors"
	"net/http"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/rag/llm"
	"github.com/akolanti/pdfrag/internal/resilience"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const upstream = "openai-generation"

type llmClient struct {
	api         openai.Client
	modelName   string
	temperature float64
	retry       resilience.Policy
	limiter     *resilience.RateLimiter
	logger      *logger_i.Logger
}

func NewOpenAIClient(cfg config.Config, httpClient *http.Client, retry resilience.Policy, limiter *resilience.RateLimiter) llm.Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAI.APIKey),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	return &llmClient{
		api:         openai.NewClient(opts...),
		modelName:   cfg.OpenAI.Model,
		temperature: cfg.OpenAI.Temperature,
		retry:       retry,
		limiter:     limiter,
		logger:      logger_i.NewLogger("llm_openai"),
	}
}

func (c *llmClient) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(c.modelName),
		Temperature: openai.Float(c.temperature),
	}

	var completion *openai.ChatCompletion
	err := c.retry.Do(ctx, "generate", c.logger, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx, upstream); err != nil {
			return err
		}
		var err error
		completion, err = c.api.Chat.Completions.New(ctx, params)
		return err
	})
	if err != nil {
		c.logger.Error("OpenAI generation failed", "error", err)
		return "", err
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	choice := completion.Choices[0]
	c.logger.Debug("OpenAI usage", "prompt_tokens", completion.Usage.PromptTokens,
		"output_tokens", completion.Usage.CompletionTokens, "finish_reason", choice.FinishReason)

	if choice.Message.Content == "" {
		return "", errors.New("openai returned no text, finish reason: " + choice.FinishReason)
	}
	return choice.Message.Content, nil
}

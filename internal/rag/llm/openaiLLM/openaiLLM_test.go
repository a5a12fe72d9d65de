package openaiLLM

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/resilience"
)

func completionServer(t *testing.T, content string) (*httptest.Server, *string) {
	t.Helper()
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) > 0 {
			gotPrompt = body.Messages[0].Content
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1732000000,
			"model":   config.OpenAIModelName,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &gotPrompt
}

func newTestClient(srv *httptest.Server) *llmClient {
	var cfg config.Config
	cfg.OpenAI.APIKey = "sk-test"
	cfg.OpenAI.BaseURL = srv.URL
	cfg.OpenAI.Model = config.OpenAIModelName
	return NewOpenAIClient(cfg, srv.Client(), resilience.SingleShot(), nil).(*llmClient)
}

func TestComplete(t *testing.T) {
	srv, gotPrompt := completionServer(t, "Gaming was flat.")

	answer, err := newTestClient(srv).Complete(context.Background(), "the prompt")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if answer != "Gaming was flat." {
		t.Errorf("unexpected answer %q", answer)
	}
	if *gotPrompt != "the prompt" {
		t.Errorf("prompt was not sent as the user message: %q", *gotPrompt)
	}
}

func TestComplete_EmptyContent(t *testing.T) {
	srv, _ := completionServer(t, "")

	if _, err := newTestClient(srv).Complete(context.Background(), "the prompt"); err == nil {
		t.Error("expected an error for an empty completion")
	}
}

package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/rag/llm"
	"github.com/akolanti/pdfrag/internal/resilience"
	"google.golang.org/genai"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) llm.Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  srv.Client(),
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL},
	})
	if err != nil {
		t.Fatalf("genai.NewClient failed: %v", err)
	}

	var cfg config.Config
	cfg.Gemini.Model = config.GeminiModelName
	cfg.Gemini.Temperature = config.ModelTemperature
	return NewGeminiClient(client, cfg, resilience.SingleShot(), nil)
}

func TestComplete(t *testing.T) {
	var gotPrompt, gotPath string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotPrompt = body.Contents[0].Parts[0].Text

		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Revenue was a record."}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 5, "totalTokenCount": 17}
		}`))
	})

	answer, err := p.Complete(context.Background(), "Context: numbers\n\nUser's Question: how much?")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if answer != "Revenue was a record." {
		t.Errorf("unexpected answer %q", answer)
	}
	if !strings.Contains(gotPrompt, "how much?") {
		t.Errorf("prompt was not sent verbatim: %q", gotPrompt)
	}
	if !strings.HasSuffix(gotPath, config.GeminiModelName+":generateContent") {
		t.Errorf("unexpected request path %s", gotPath)
	}
}

func TestComplete_NoCandidates(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": [], "promptFeedback": {"blockReason": "SAFETY"}}`))
	})

	answer, err := p.Complete(context.Background(), "prompt")
	if err == nil || answer != "" {
		t.Fatalf("expected an error and no text, got %q, %v", answer, err)
	}
}

func TestComplete_APIError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"code": 401, "message": "API key not valid", "status": "UNAUTHENTICATED"}}`))
	})

	_, err := p.Complete(context.Background(), "prompt")
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected a 401 APIError, got %v", err)
	}
}

package googleEmbedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/resilience"
	"google.golang.org/genai"
)

func newTestEmbedder(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	genAi, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  srv.Client(),
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL},
	})
	if err != nil {
		t.Fatalf("genai.NewClient failed: %v", err)
	}
	return NewGoogleEmbedder(genAi, Options{
		Model:     config.GoogleEmbeddingModel,
		Dimension: 3,
		Retry:     resilience.SingleShot(),
		Limiter:   resilience.NewRateLimiter(0, 1),
	})
}

type embedRequest struct {
	Requests []struct {
		TaskType string `json:"taskType"`
	} `json:"requests"`
}

func TestBatchEmbedding(t *testing.T) {
	var seenTask string
	c := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":batchEmbedContents") {
			http.NotFound(w, r)
			return
		}
		var req embedRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		seenTask = req.Requests[0].TaskType

		var embeddings []map[string]any
		for i := range req.Requests {
			embeddings = append(embeddings, map[string]any{"values": []float32{float32(i + 1), 0, 1}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	})

	vectors, err := c.BatchEmbedding(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("BatchEmbedding failed: %v", err)
	}
	if len(vectors) != 3 || vectors[2][0] != 3 {
		t.Errorf("unexpected vectors: %v", vectors)
	}
	if seenTask != taskTypeDocument {
		t.Errorf("expected task type %s, got %s", taskTypeDocument, seenTask)
	}

	query, err := c.GetEmbedding(context.Background(), "what grew?")
	if err != nil {
		t.Fatalf("GetEmbedding failed: %v", err)
	}
	if len(query) != 3 || seenTask != taskTypeQuery {
		t.Errorf("unexpected query embedding %v (task %s)", query, seenTask)
	}
}

func TestBatchEmbedding_CountMismatch(t *testing.T) {
	c := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[1,0,0]}]}`))
	})

	if _, err := c.BatchEmbedding(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("expected an error when fewer embeddings come back than were requested")
	}
}

func TestBatchEmbedding_APIError(t *testing.T) {
	c := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := c.BatchEmbedding(context.Background(), []string{"a"})
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected a 429 APIError, got %v", err)
	}
	if !resilience.IsTransient(err) {
		t.Error("429 should be classified as transient")
	}
}

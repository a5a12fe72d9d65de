package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/pdfrag/internal/api"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/alicebob/miniredis/v2"
)

func fakeVector(text string) []float64 {
	v := make([]float64, 16)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,?!")))
		v[h.Sum32()%15]++
	}
	v[15] = 0.1
	return v
}

// openAIServer serves embeddings and chat completions and records prompts.
func openAIServer(t *testing.T) *[]string {
	t.Helper()
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/embeddings":
			var body struct {
				Input []string `json:"input"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			data := make([]map[string]any, len(body.Input))
			for i, in := range body.Input {
				data[i] = map[string]any{"object": "embedding", "index": i, "embedding": fakeVector(in)}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"object": "list",
				"model":  "text-embedding-3-small",
				"data":   data,
				"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
			})
		case "/chat/completions":
			var body struct {
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			prompts = append(prompts, body.Messages[0].Content)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"created": 1732000000,
				"model":   "gpt-4o-mini",
				"choices": []map[string]any{{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": "Gaming revenue was $4.3 billion."},
				}},
				"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("RAG_OPENAI_BASE_URL", srv.URL)
	return &prompts
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.txt")
	content := "Data center revenue reached $51.2 billion. Gaming revenue was $4.3 billion. " +
		"Automotive revenue was $592 million."
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func baseArgs(t *testing.T) []string {
	return []string{
		"--provider", "openai",
		"--vector-store", "chromem",
		"--chromem-path", filepath.Join(t.TempDir(), "chromem"),
		"--run-store", "memory",
	}
}

func TestRunCommand_PrintsAnswer(t *testing.T) {
	prompts := openAIServer(t)
	args := append([]string{"run"}, baseArgs(t)...)
	args = append(args, "--source", writeDoc(t), "--query", "What was gaming revenue?")

	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out != "Gaming revenue was $4.3 billion.\n" {
		t.Errorf("stdout must hold only the answer, got %q", out)
	}
	if len(*prompts) != 1 || !strings.Contains((*prompts)[0], "User's Question: What was gaming revenue?") {
		t.Errorf("unexpected prompts %v", *prompts)
	}
}

func TestRunCommand_JSONReport(t *testing.T) {
	openAIServer(t)
	args := append([]string{"run", "--json"}, baseArgs(t)...)
	args = append(args, "--source", writeDoc(t), "--query", "What was gaming revenue?")

	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	var report api.RunReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("stdout is not a run report: %v\n%s", err, out)
	}
	if report.Status != "COMPLETE" || report.Answer == "" || report.Question != "What was gaming revenue?" {
		t.Errorf("unexpected report %+v", report)
	}
	if len(report.Sources) != 1 || report.Sources[0] != "page:1" {
		t.Errorf("unexpected sources %v", report.Sources)
	}
}

func TestIngestThenAsk_SharePersistentStore(t *testing.T) {
	openAIServer(t)
	args := baseArgs(t)

	out, err := execute(t, append(append([]string{"ingest"}, args...), "--source", writeDoc(t))...)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if !strings.HasPrefix(out, "chunks stored: 1 ") {
		t.Errorf("unexpected ingest output %q", out)
	}

	out, err = execute(t, append(append([]string{"ask"}, args...), "What was gaming revenue?")...)
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if strings.TrimSpace(out) != "Gaming revenue was $4.3 billion." {
		t.Errorf("unexpected answer %q", out)
	}
}

func TestAskCommand_EmptyStoreFails(t *testing.T) {
	openAIServer(t)
	out, err := execute(t, append(append([]string{"ask"}, baseArgs(t)...), "--query", "anything")...)
	if !errors.Is(err, commonModels.ErrRetrieval) {
		t.Errorf("expected RetrievalError, got %v", err)
	}
	if out != "" {
		t.Errorf("nothing should be printed on failure, got %q", out)
	}
}

func TestConfigurationErrors(t *testing.T) {
	openAIServer(t)
	tests := []struct {
		name string
		args []string
	}{
		{"overlap_not_smaller", []string{"run", "--chunk-size", "10", "--chunk-overlap", "10"}},
		{"zero_top_k", []string{"run", "--top-k", "0"}},
		{"unknown_provider", []string{"ask", "--query", "q", "--provider", "acme"}},
		{"blank_source", []string{"ingest", "--source", " "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--vector-store", "chromem", "--chromem-path", t.TempDir(), "--run-store", "memory")
			if tt.name != "unknown_provider" {
				args = append(args, "--provider", "openai")
			}
			_, err := execute(t, args...)
			if !errors.Is(err, commonModels.ErrConfiguration) {
				t.Errorf("expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestRunsShow_UnknownRun(t *testing.T) {
	_, err := execute(t, "runs", "show", "missing", "--run-store", "memory")
	if !errors.Is(err, errRunNotFound) {
		t.Errorf("expected errRunNotFound, got %v", err)
	}
}

func TestRunsDelete_RemovesRunFromRedis(t *testing.T) {
	openAIServer(t)
	mr := miniredis.RunT(t)
	ledgerArgs := []string{"--run-store", "redis", "--redis-addr", mr.Addr()}

	args := append([]string{"run", "--json"}, baseArgs(t)...)
	args = append(append(args, ledgerArgs...), "--source", writeDoc(t), "--query", "What was gaming revenue?")
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	var report api.RunReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("stdout is not a run report: %v\n%s", err, out)
	}

	out, err = execute(t, append([]string{"runs", "list"}, ledgerArgs...)...)
	if err != nil || strings.TrimSpace(out) != report.Id {
		t.Fatalf("expected the run in the ledger, got %q, %v", out, err)
	}

	out, err = execute(t, append([]string{"runs", "delete", report.Id}, ledgerArgs...)...)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if out != "deleted run "+report.Id+"\n" {
		t.Errorf("unexpected delete output %q", out)
	}

	if _, err := execute(t, append([]string{"runs", "show", report.Id}, ledgerArgs...)...); !errors.Is(err, errRunNotFound) {
		t.Errorf("expected errRunNotFound after delete, got %v", err)
	}
	if out, _ := execute(t, append([]string{"runs", "list"}, ledgerArgs...)...); out != "" {
		t.Errorf("expected an empty run index, got %q", out)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Errorf("expected no keys left in redis, got %v", keys)
	}
}

func TestRunsDelete_UnknownRun(t *testing.T) {
	_, err := execute(t, "runs", "delete", "missing", "--run-store", "memory")
	if !errors.Is(err, errRunNotFound) {
		t.Errorf("expected errRunNotFound, got %v", err)
	}
}

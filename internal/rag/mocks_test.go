package rag_test

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/akolanti/pdfrag/internal/domain/commonModels"
)

type MockLoader struct {
	OnLoad func(ctx context.Context, source string) (commonModels.Document, error)
}

func (m *MockLoader) Load(ctx context.Context, source string) (commonModels.Document, error) {
	if m.OnLoad != nil {
		return m.OnLoad(ctx, source)
	}
	return commonModels.Document{
		Id:     "doc-1",
		Source: source,
		Pages:  []commonModels.Page{{Number: 1, Content: "Mock page content.", Source: source}},
	}, nil
}

type MockStore struct {
	OnAdd    func(ctx context.Context, chunks []commonModels.Chunk) (int, error)
	OnSearch func(ctx context.Context, query string, k int) ([]commonModels.ScoredChunk, error)
}

func (m *MockStore) Add(ctx context.Context, chunks []commonModels.Chunk) (int, error) {
	if m.OnAdd != nil {
		return m.OnAdd(ctx, chunks)
	}
	return len(chunks), nil
}

func (m *MockStore) Search(ctx context.Context, query string, k int) ([]commonModels.ScoredChunk, error) {
	if m.OnSearch != nil {
		return m.OnSearch(ctx, query, k)
	}
	return []commonModels.ScoredChunk{{Chunk: commonModels.Chunk{Content: "Mock context", PageNum: 1}, Score: 1}}, nil
}

type MockLLM struct {
	OnComplete func(ctx context.Context, prompt string) (string, error)
	prompts    []string
}

func (m *MockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.OnComplete != nil {
		return m.OnComplete(ctx, prompt)
	}
	return "Mock answer", nil
}

// hashEmbedder is a deterministic bag of words embedder for end to end runs.
type hashEmbedder struct{}

const dims = 64

func embedText(text string) []float32 {
	v := make([]float32, dims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,?!:")))
		v[h.Sum32()%(dims-1)]++
	}
	v[dims-1] = 0.1
	return v
}

func (hashEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return embedText(query), nil
}

func (hashEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	for i, c := range chunks {
		out[i] = embedText(c)
	}
	return out, nil
}

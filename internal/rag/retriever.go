package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/pdfrag/internal/domain/commonModels"
)

// FetchRelevantChunk returns the content of the top-k chunks, best first,
// joined by a single space. An empty store is a RetrievalError.
func (s *service) FetchRelevantChunk(ctx context.Context, query string) (string, error) {
	hits, err := s.fetchRelevant(ctx, query)
	if err != nil {
		return "", err
	}
	return joinChunks(hits), nil
}

func (s *service) fetchRelevant(ctx context.Context, query string) ([]commonModels.ScoredChunk, error) {
	hits, err := s.store.Search(ctx, query, s.opts.TopK)
	if err != nil {
		return nil, asKind(err, commonModels.KindRetrieval, "search")
	}
	return hits, nil
}

func joinChunks(hits []commonModels.ScoredChunk) string {
	contents := make([]string, len(hits))
	for i, h := range hits {
		contents[i] = h.Chunk.Content
	}
	return strings.Join(contents, " ")
}

// sourcesOf lists the pages behind the hits in rank order, each page once.
func sourcesOf(hits []commonModels.ScoredChunk) []string {
	seen := make(map[string]bool, len(hits))
	var sources []string
	for _, h := range hits {
		marker := fmt.Sprintf("page:%d", h.Chunk.PageNum)
		if seen[marker] {
			continue
		}
		seen[marker] = true
		sources = append(sources, marker)
	}
	return sources
}

package vectorDB

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/rag/embedding"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

var ErrEmptyStore = errors.New("vector store is empty")

// Store embeds chunks and queries with one embedder and keeps them in an Index.
type Store struct {
	index     Index
	embedder  embedding.Embedder
	batchSize int
	logger    *logger_i.Logger
}

func NewStore(index Index, embedder embedding.Embedder, batchSize int) *Store {
	if batchSize < 1 {
		batchSize = config.EmbeddingBatchSize
	}
	return &Store{
		index:     index,
		embedder:  embedder,
		batchSize: batchSize,
		logger:    logger_i.NewLogger("Vector Store"),
	}
}

// Add embeds and persists chunks in batches and returns how many were stored.
// Re-adding the same chunks stores them again. Stored chunks get a Seq that
// continues after everything already in the index, so earlier ingestions win
// similarity ties.
func (s *Store) Add(ctx context.Context, chunks []commonModels.Chunk) (int, error) {
	log := s.logger
	if runId, ok := ctx.Value(config.RUN_ID_KEY).(string); ok {
		log = log.With(config.RUN_ID_KEY, runId)
	}
	if err := s.index.CreateCollection(ctx); err != nil {
		return 0, commonModels.RetrievalError("create collection", err)
	}
	base, err := s.index.Count(ctx)
	if err != nil {
		return 0, commonModels.RetrievalError("count", err)
	}

	stored := 0
	for i := 0; i < len(chunks); i += s.batchSize {
		end := i + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		// empty contents are never sent to the embedder
		currentBatch := make([]commonModels.Chunk, 0, end-i)
		texts := make([]string, 0, end-i)
		for _, c := range chunks[i:end] {
			if c.Content == "" {
				continue
			}
			c.Seq = base + stored + len(currentBatch)
			currentBatch = append(currentBatch, c)
			texts = append(texts, c.Content)
		}
		if len(currentBatch) == 0 {
			continue
		}

		log.Debug("Starting embedding call", "batch", len(texts), "offset", i)
		vectors, err := s.embedder.BatchEmbedding(ctx, texts)
		if err != nil {
			return stored, commonModels.RetrievalError("embed chunks", err)
		}
		if len(vectors) != len(currentBatch) {
			return stored, commonModels.RetrievalError("embed chunks",
				fmt.Errorf("mismatch: got %d chunks but %d vectors", len(currentBatch), len(vectors)))
		}

		if err := s.index.UpsertBatch(ctx, currentBatch, vectors); err != nil {
			return stored, commonModels.RetrievalError("upsert", err)
		}
		stored += len(currentBatch)
	}

	log.Info("Chunks stored", "count", stored)
	return stored, nil
}

// Search returns the k chunks most similar to query, best first. Equal scores
// keep insertion order.
func (s *Store) Search(ctx context.Context, query string, k int) ([]commonModels.ScoredChunk, error) {
	if k < 1 {
		return nil, commonModels.ConfigurationError("search", fmt.Errorf("k must be >= 1, got %d", k))
	}

	count, err := s.index.Count(ctx)
	if err != nil {
		return nil, commonModels.RetrievalError("count", err)
	}
	if count == 0 {
		return nil, commonModels.RetrievalError("search", ErrEmptyStore)
	}

	vector, err := s.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, commonModels.RetrievalError("embed query", err)
	}

	// One extra hit shows whether the k-th score is tied past the cut. While it
	// is, widen the query so the earliest of the tied chunks can be picked.
	var hits []commonModels.ScoredChunk
	for limit := min(k+1, count); ; limit = min(2*limit, count) {
		hits, err = s.index.Search(ctx, vector, limit)
		if err != nil {
			return nil, commonModels.RetrievalError("search", err)
		}
		rank(hits)
		if len(hits) <= k || len(hits) < limit || len(hits) >= count || hits[len(hits)-1].Score < hits[k-1].Score {
			break
		}
	}

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func rank(hits []commonModels.ScoredChunk) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.Seq < hits[j].Chunk.Seq
	})
}

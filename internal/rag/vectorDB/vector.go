package vectorDB

import (
	"context"

	"github.com/akolanti/pdfrag/internal/domain/commonModels"
)

// Index is the storage side of the vector store: it persists vectors with
// their chunk and runs nearest neighbour queries. It never embeds text.
type Index interface {
	CreateCollection(ctx context.Context) error
	UpsertBatch(ctx context.Context, chunks []commonModels.Chunk, vectors [][]float32) error
	// Search returns at least the limit best hits when that many exist.
	// Order among equal scores is not guaranteed.
	Search(ctx context.Context, vector []float32, limit int) ([]commonModels.ScoredChunk, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

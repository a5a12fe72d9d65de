package embedding

import "context"

// Embedder turns text into vectors. Documents and queries go through the same
// model so their vectors are comparable.
type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error)
}

package chromemDB

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"github.com/philippgille/chromem-go"
)

// DB is an embedded vector index. With an empty path everything stays in
// memory; otherwise the collection is persisted under path.
type DB struct {
	db         *chromem.DB
	collection string
	logger     *logger_i.Logger
}

func NewChromemDB(cfg config.VectorStoreConfig) (*DB, error) {
	logger := logger_i.NewLogger("chromem")

	var db *chromem.DB
	if cfg.Chromem.Path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(cfg.Chromem.Path, cfg.Chromem.Compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}
	if cfg.Collection == "" {
		return nil, errors.New("empty collection name")
	}

	logger.Debug("chromem database opened", "path", cfg.Chromem.Path, "collection", cfg.Collection)
	return &DB{db: db, collection: cfg.Collection, logger: logger}, nil
}

func (m *DB) Close() error {
	return nil
}

func (m *DB) CreateCollection(ctx context.Context) error {
	// embeddings are always supplied, so the collection never needs its own
	// embedding function
	_, err := m.db.GetOrCreateCollection(m.collection, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %w", err)
	}
	return nil
}

func (m *DB) UpsertBatch(ctx context.Context, chunks []commonModels.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}
	c := m.db.GetCollection(m.collection, nil)
	if c == nil {
		return fmt.Errorf("collection %s does not exist", m.collection)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:        chunk.Id,
			Metadata:  toMetadata(chunk),
			Embedding: vectors[i],
			Content:   chunk.Content,
		}
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Search scores the whole collection. chromem orders equal similarities
// arbitrarily, so every hit is handed back for re-ranking.
func (m *DB) Search(ctx context.Context, vector []float32, limit int) ([]commonModels.ScoredChunk, error) {
	c := m.db.GetCollection(m.collection, nil)
	if c == nil || c.Count() == 0 {
		return nil, nil
	}

	results, err := c.QueryEmbedding(ctx, vector, c.Count(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	hits := make([]commonModels.ScoredChunk, 0, len(results))
	for _, r := range results {
		chunk := fromMetadata(r.Metadata)
		chunk.Id = r.ID
		chunk.Content = r.Content
		hits = append(hits, commonModels.ScoredChunk{Chunk: chunk, Score: r.Similarity})
	}
	m.logger.Debug("Found matches", "count", len(hits), "limit", limit)
	return hits, nil
}

func (m *DB) Count(ctx context.Context) (int, error) {
	c := m.db.GetCollection(m.collection, nil)
	if c == nil {
		return 0, nil
	}
	return c.Count(), nil
}

func toMetadata(chunk commonModels.Chunk) map[string]string {
	return map[string]string{
		"page_num":              strconv.Itoa(chunk.PageNum),
		"source":                chunk.Source,
		"chunk_order":           strconv.Itoa(chunk.ChunkPageOrder),
		"offset":                strconv.Itoa(chunk.Offset),
		"overlap_with_previous": strconv.Itoa(chunk.OverlapWithPrevious),
		"seq":                   strconv.Itoa(chunk.Seq),
		"ingested_at":           strconv.FormatInt(chunk.IngestedAt.Unix(), 10),
	}
}

func fromMetadata(md map[string]string) commonModels.Chunk {
	atoi := func(key string) int {
		n, _ := strconv.Atoi(md[key])
		return n
	}
	ingested, _ := strconv.ParseInt(md["ingested_at"], 10, 64)
	return commonModels.Chunk{
		PageNum:             atoi("page_num"),
		Source:              md["source"],
		ChunkPageOrder:      atoi("chunk_order"),
		Offset:              atoi("offset"),
		OverlapWithPrevious: atoi("overlap_with_previous"),
		Seq:                 atoi("seq"),
		IngestedAt:          time.Unix(ingested, 0).UTC(),
	}
}

package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/resilience"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

type ClientHolder struct {
	QObj       *qdrant.Client
	collection string
	dimension  uint64
	retry      resilience.Policy
	logger     *logger_i.Logger
}

func NewQdrantClient(cfg config.Config, retry resilience.Policy) (*ClientHolder, error) {
	logger := logger_i.NewLogger("Qdrant")
	q := cfg.VectorStore.Qdrant

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     q.Host,
		Port:     q.Port,
		APIKey:   q.APIKey,
		UseTLS:   q.UseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate", "error", err)
		return nil, fmt.Errorf("qdrant client: %w", err)
	}

	logger.Debug("Qdrant client created", "host", q.Host, "port", q.Port, "collection", cfg.VectorStore.Collection)
	return &ClientHolder{
		QObj:       client,
		collection: cfg.VectorStore.Collection,
		dimension:  uint64(cfg.Embedding.Dimension),
		retry:      retry,
		logger:     logger,
	}, nil
}

func (db *ClientHolder) Close() error {
	db.logger.Info("Shutting down Qdrant")
	return db.QObj.Close()
}

func (db *ClientHolder) CreateCollection(ctx context.Context) error {
	if db.collection == "" {
		return errors.New("empty collection name")
	}
	ctx, cancel := context.WithTimeout(ctx, config.QdrantConnectionTimeout)
	defer cancel()

	var exists bool
	err := db.retry.Do(ctx, "collection exists", db.logger, func(ctx context.Context) error {
		var err error
		exists, err = db.QObj.CollectionExists(ctx, db.collection)
		return err
	})
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	db.logger.Info("Creating collection", "collection", db.collection, "dimension", db.dimension)
	return db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: db.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     db.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (db *ClientHolder) UpsertBatch(ctx context.Context, chunks []commonModels.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.Id),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(toPayload(chunk)),
		}
	}

	err := db.retry.Do(ctx, "upsert", db.logger, func(ctx context.Context) error {
		_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: db.collection,
			Points:         qdrantPoints,
			Wait:           qdrant.PtrOf(true),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (db *ClientHolder) Search(ctx context.Context, vector []float32, limit int) ([]commonModels.ScoredChunk, error) {
	var result []*qdrant.ScoredPoint
	err := db.retry.Do(ctx, "query", db.logger, func(ctx context.Context) error {
		var err error
		result, err = db.QObj.Query(ctx, &qdrant.QueryPoints{
			CollectionName: db.collection,
			Query:          qdrant.NewQuery(vector...),
			Limit:          qdrant.PtrOf(uint64(limit)),
			WithPayload:    qdrant.NewWithPayload(true),
		})
		return err
	})
	if err != nil {
		db.logger.Error("Error querying Qdrant", "error", err)
		return nil, err
	}

	hits := make([]commonModels.ScoredChunk, 0, len(result))
	for _, hit := range result {
		hits = append(hits, commonModels.ScoredChunk{
			Chunk: fromPayload(hit.Payload),
			Score: hit.Score,
		})
	}
	db.logger.Debug("Found matches", "count", len(hits))
	return hits, nil
}

// Count reports 0 for a collection that was never created.
func (db *ClientHolder) Count(ctx context.Context) (int, error) {
	var count uint64
	err := db.retry.Do(ctx, "count", db.logger, func(ctx context.Context) error {
		exists, err := db.QObj.CollectionExists(ctx, db.collection)
		if err != nil || !exists {
			count = 0
			return err
		}
		count, err = db.QObj.Count(ctx, &qdrant.CountPoints{
			CollectionName: db.collection,
			Exact:          qdrant.PtrOf(true),
		})
		return err
	})
	return int(count), err
}

func toPayload(chunk commonModels.Chunk) map[string]any {
	return map[string]any{
		"content":               chunk.Content,
		"page_num":              chunk.PageNum,
		"source":                chunk.Source,
		"chunk_order":           chunk.ChunkPageOrder,
		"chunk_id":              chunk.Id,
		"offset":                chunk.Offset,
		"overlap_with_previous": chunk.OverlapWithPrevious,
		"seq":                   chunk.Seq,
		"ingested_at":           chunk.IngestedAt.Unix(),
	}
}

func fromPayload(payload map[string]*qdrant.Value) commonModels.Chunk {
	// Get* on a missing key returns the zero value
	return commonModels.Chunk{
		Id:                  payload["chunk_id"].GetStringValue(),
		Content:             payload["content"].GetStringValue(),
		PageNum:             int(payload["page_num"].GetIntegerValue()),
		Source:              payload["source"].GetStringValue(),
		ChunkPageOrder:      int(payload["chunk_order"].GetIntegerValue()),
		Offset:              int(payload["offset"].GetIntegerValue()),
		OverlapWithPrevious: int(payload["overlap_with_previous"].GetIntegerValue()),
		Seq:                 int(payload["seq"].GetIntegerValue()),
		IngestedAt:          time.Unix(payload["ingested_at"].GetIntegerValue(), 0).UTC(),
	}
}

package store

import (
	"context"
	"encoding/json"

	"github.com/akolanti/pdfrag/internal/adapter/utils"
	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/data/redisStore"
	"github.com/akolanti/pdfrag/internal/domain/runModel"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

const (
	runKeyPrefix = "pdfrag:run:"
	runIndexKey  = "pdfrag:runs"
)

func runKey(runId string) string {
	return runKeyPrefix + runId
}

type RedisRunStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisRunStore(store *redisStore.Store) *RedisRunStore {
	return &RedisRunStore{
		store:  store,
		logger: logger_i.NewLogger("RunStore"),
	}
}

func (s *RedisRunStore) SaveRun(ctx context.Context, run runModel.RunRecord) error {
	log := s.logger.With(config.RUN_ID_KEY, run.Id)
	log.Debug("saving run")
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}

	known, err := s.store.Exists(ctx, runKey(run.Id))
	if err != nil {
		return err
	}
	if err = s.store.Set(ctx, runKey(run.Id), data, s.store.TTL()); err != nil {
		return err
	}
	if !known {
		if err = s.store.ListPush(ctx, runIndexKey, run.Id, s.store.TTL()); err != nil {
			return err
		}
	}
	log.Debug("Saved run to Redis")
	return nil
}

func (s *RedisRunStore) GetRun(ctx context.Context, runId string) (runModel.RunRecord, bool) {
	var run runModel.RunRecord
	log := s.logger.With(config.RUN_ID_KEY, runId)
	val, err := s.store.Get(ctx, runKey(runId))
	if s.store.IsNil(err) {
		return run, false
	} else if err != nil {
		log.Error("Error reading run from Redis", "error", err)
		return run, false
	}

	if err = json.Unmarshal([]byte(val), &run); err != nil {
		log.Error("Error decoding run", "error", err)
		return run, false
	}
	return run, true
}

// ListRuns returns the ids of the newest runs first.
func (s *RedisRunStore) ListRuns(ctx context.Context, limit int) ([]string, error) {
	ids, err := s.store.ListGetLast(ctx, runIndexKey, limit)
	if err != nil {
		return nil, err
	}
	return utils.ReverseStringArray(ids), nil
}

func (s *RedisRunStore) DeleteRun(ctx context.Context, runId string) {
	if err := s.store.Del(ctx, runKey(runId), stepsKey(runId)); err != nil {
		s.logger.Error("Error deleting run from Redis", config.RUN_ID_KEY, runId, "error", err)
		return
	}
	if err := s.store.ListRemove(ctx, runIndexKey, runId); err != nil {
		s.logger.Error("Error removing run from index", config.RUN_ID_KEY, runId, "error", err)
		return
	}
	s.logger.Debug("Run deleted from Redis", config.RUN_ID_KEY, runId)
}

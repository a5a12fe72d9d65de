package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akolanti/pdfrag/internal/data/redisStore"
	"github.com/akolanti/pdfrag/internal/domain/runModel"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

func stepsKey(runId string) string {
	return runKeyPrefix + runId + ":steps"
}

type RedisStepLog struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisStepLog(store *redisStore.Store) *RedisStepLog {
	return &RedisStepLog{
		store:  store,
		logger: logger_i.NewLogger("StepLog"),
	}
}

func (s *RedisStepLog) AppendStep(ctx context.Context, runId string, event runModel.StepEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.store.ListPush(ctx, stepsKey(runId), data, s.store.TTL())
}

func (s *RedisStepLog) GetSteps(ctx context.Context, runId string) ([]runModel.StepEvent, error) {
	res, err := s.store.ListGetAll(ctx, stepsKey(runId))
	if err != nil {
		return nil, err
	}

	events := make([]runModel.StepEvent, 0, len(res))
	for _, raw := range res {
		var e runModel.StepEvent
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decoding step of run %s: %w", runId, err)
		}
		events = append(events, e)
	}
	return events, nil
}

package store

import (
	"context"
	"sync"

	"github.com/akolanti/pdfrag/internal/adapter/utils"
	"github.com/akolanti/pdfrag/internal/domain/runModel"
)

type InMemoryRunStore struct {
	runMutex *sync.RWMutex
	runMap   map[string]runModel.RunRecord
	order    []string
}

func InitInMemoryRunStore() *InMemoryRunStore {
	return &InMemoryRunStore{
		runMutex: new(sync.RWMutex),
		runMap:   make(map[string]runModel.RunRecord),
	}
}

func (store *InMemoryRunStore) SaveRun(ctx context.Context, run runModel.RunRecord) error {
	store.runMutex.Lock()
	defer store.runMutex.Unlock()
	if _, known := store.runMap[run.Id]; !known {
		store.order = append(store.order, run.Id)
	}
	store.runMap[run.Id] = run
	return nil
}

func (store *InMemoryRunStore) GetRun(ctx context.Context, runId string) (runModel.RunRecord, bool) {
	store.runMutex.RLock()
	defer store.runMutex.RUnlock()
	result, found := store.runMap[runId]
	return result, found
}

func (store *InMemoryRunStore) ListRuns(ctx context.Context, limit int) ([]string, error) {
	store.runMutex.RLock()
	defer store.runMutex.RUnlock()
	ids := store.order
	if limit > 0 && len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}
	return utils.ReverseStringArray(append([]string(nil), ids...)), nil
}

func (store *InMemoryRunStore) DeleteRun(ctx context.Context, runId string) {
	store.runMutex.Lock()
	defer store.runMutex.Unlock()
	delete(store.runMap, runId)
	for i, id := range store.order {
		if id == runId {
			store.order = append(store.order[:i], store.order[i+1:]...)
			break
		}
	}
}

type InMemoryStepLog struct {
	stepLock *sync.RWMutex
	stepMap  map[string][]runModel.StepEvent
}

func InitInMemoryStepLog() *InMemoryStepLog {
	return &InMemoryStepLog{
		stepLock: new(sync.RWMutex),
		stepMap:  make(map[string][]runModel.StepEvent),
	}
}

func (store *InMemoryStepLog) AppendStep(ctx context.Context, runId string, event runModel.StepEvent) error {
	store.stepLock.Lock()
	defer store.stepLock.Unlock()
	store.stepMap[runId] = append(store.stepMap[runId], event)
	return nil
}

func (store *InMemoryStepLog) GetSteps(ctx context.Context, runId string) ([]runModel.StepEvent, error) {
	store.stepLock.RLock()
	defer store.stepLock.RUnlock()
	return append([]runModel.StepEvent(nil), store.stepMap[runId]...), nil
}

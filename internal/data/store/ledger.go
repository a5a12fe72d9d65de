package store

import (
	"context"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/data/redisStore"
	"github.com/akolanti/pdfrag/internal/domain/runModel"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

// Ledger bundles the run records and their step trails.
type Ledger struct {
	Runs  runModel.RunStore
	Steps runModel.StepLog
	close func() error
}

func (l Ledger) Close() error {
	if l.close == nil {
		return nil
	}
	return l.close()
}

// NewLedger uses Redis when configured and reachable and falls back to memory
// otherwise; a run never fails because the ledger is unavailable.
func NewLedger(ctx context.Context, cfg config.RunStoreConfig) Ledger {
	if cfg.Backend == config.RunStoreRedis {
		rs, err := redisStore.NewRedisStore(ctx, cfg)
		if err == nil {
			return NewRedisLedger(rs)
		}
		logger_i.NewLogger("Ledger").Warn("Falling back to the in-memory run store", "error", err)
	}
	return NewInMemoryLedger()
}

func NewRedisLedger(rs *redisStore.Store) Ledger {
	return Ledger{
		Runs:  NewRedisRunStore(rs),
		Steps: NewRedisStepLog(rs),
		close: rs.Close,
	}
}

func NewInMemoryLedger() Ledger {
	return Ledger{
		Runs:  InitInMemoryRunStore(),
		Steps: InitInMemoryStepLog(),
	}
}

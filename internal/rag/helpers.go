package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/pdfrag/internal/adapter/utils"
	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/domain/runModel"
	"github.com/akolanti/pdfrag/internal/metrics"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

const (
	phaseStart = "start"
	phaseEnd   = "end"
	phaseError = "error"
)

func (s *service) startRun(ctx context.Context, source, query string) (context.Context, *runModel.RunRecord, *logger_i.Logger) {
	run := &runModel.RunRecord{
		Id:          utils.GetNewUUID(),
		Source:      source,
		Query:       query,
		Status:      runModel.RunStatusRunning,
		CurrentStep: runModel.StepInit,
		CreatedTime: time.Now().UTC(),
	}
	ctx = context.WithValue(ctx, config.RUN_ID_KEY, run.Id)
	log := s.logger.With(config.RUN_ID_KEY, run.Id)
	log.Info("Run started", "source", source, "query", query)
	s.saveRun(ctx, log, *run)
	return ctx, run, log
}

// executeStep records a stage in the ledger, times it and logs Start/End
// around it. fn returns a short detail for the step trail.
func (s *service) executeStep(ctx context.Context, run *runModel.RunRecord, log *logger_i.Logger, step runModel.Step, fn func(ctx context.Context) (string, error)) error {
	run.CurrentStep = step
	s.saveRun(ctx, log, *run)
	s.appendStep(ctx, log, run.Id, step, phaseStart, "")
	log.Info("Start " + string(step))

	start := time.Now()
	detail, err := fn(ctx)
	metrics.CaptureExecutionMetrics(string(step), time.Since(start))

	if err != nil {
		s.appendStep(ctx, log, run.Id, step, phaseError, err.Error())
		log.Error("Failed "+string(step), "error", err, "elapsed", time.Since(start))
		return err
	}
	s.appendStep(ctx, log, run.Id, step, phaseEnd, detail)
	log.Info("End "+string(step), "result", detail, "elapsed", time.Since(start))
	return nil
}

func (s *service) finishRun(ctx context.Context, run *runModel.RunRecord, log *logger_i.Logger, err error) (runModel.RunRecord, error) {
	run.EndTime = time.Now().UTC()
	if err != nil {
		run.Status = runModel.RunStatusError
		run.Error = runModel.RunError{Kind: string(commonModels.KindOf(err)), Message: err.Error()}
		run.Answer = ""
	} else {
		run.Status = runModel.RunStatusComplete
		run.CurrentStep = runModel.StepComplete
	}
	s.saveRun(ctx, log, *run)
	metrics.CaptureRunMetrics(string(run.Status))
	if err == nil {
		metrics.AddChunksStored(run.ChunkCount)
	}

	// the push must not be cut short by a cancelled run context
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if pushErr := metrics.Push(pushCtx, s.opts.PushgatewayURL, s.opts.MetricsJob, run.Id); pushErr != nil {
		log.Warn("Metrics push failed", "error", pushErr)
	}

	log.Info("Run finished", "status", run.Status, "elapsed", run.EndTime.Sub(run.CreatedTime))
	return *run, err
}

// Ledger failures are logged and never change the outcome of a run.
func (s *service) saveRun(ctx context.Context, log *logger_i.Logger, run runModel.RunRecord) {
	if s.runs == nil {
		return
	}
	if err := s.runs.SaveRun(ctx, run); err != nil {
		log.Warn("Could not save run", "error", err)
	}
}

func (s *service) appendStep(ctx context.Context, log *logger_i.Logger, runId string, step runModel.Step, phase, detail string) {
	if s.steps == nil {
		return
	}
	event := runModel.StepEvent{Step: step, Phase: phase, At: time.Now().UTC(), Detail: detail}
	if err := s.steps.AppendStep(ctx, runId, event); err != nil {
		log.Warn("Could not record step", "step", step, "error", err)
	}
}

// asKind keeps an error that already carries a taxonomy kind and wraps any
// other error in the given kind.
func asKind(err error, kind commonModels.ErrorKind, op string) error {
	var se *commonModels.StageError
	if errors.As(err, &se) {
		return err
	}
	return &commonModels.StageError{Kind: kind, Op: op, Err: err}
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

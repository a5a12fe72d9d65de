package rag

import (
	"context"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/domain/runModel"
	"github.com/akolanti/pdfrag/internal/rag/chunker"
	"github.com/akolanti/pdfrag/internal/rag/llm"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

// Service is everything the CLI can ask of the pipeline. Each operation is a
// single synchronous pass; the first failing stage aborts the rest.
type Service interface {
	// Run executes load, chunk, store, retrieve and generate for one query.
	Run(ctx context.Context, source, query string) (runModel.RunRecord, error)
	// Ingest stops after the chunks are stored.
	Ingest(ctx context.Context, source string) (runModel.RunRecord, error)
	// Ask answers against whatever the vector store already holds.
	Ask(ctx context.Context, query string) (runModel.RunRecord, error)

	FetchRelevantChunk(ctx context.Context, query string) (string, error)
	GenerateResponse(ctx context.Context, query, retrieved string) (string, error)
}

type DocumentLoader interface {
	Load(ctx context.Context, source string) (commonModels.Document, error)
}

type VectorStore interface {
	Add(ctx context.Context, chunks []commonModels.Chunk) (int, error)
	Search(ctx context.Context, query string, k int) ([]commonModels.ScoredChunk, error)
}

type Dependencies struct {
	Loader DocumentLoader
	Store  VectorStore
	LLM    llm.Provider
	Runs   runModel.RunStore
	Steps  runModel.StepLog
}

type Options struct {
	Chunking       chunker.Options
	TopK           int
	PushgatewayURL string
	MetricsJob     string
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Chunking:       chunker.Options{ChunkSize: cfg.Chunking.Size, ChunkOverlap: cfg.Chunking.Overlap},
		TopK:           cfg.Retrieval.TopK,
		PushgatewayURL: cfg.Metrics.PushgatewayURL,
		MetricsJob:     cfg.Metrics.Job,
	}
}

type service struct {
	loader      DocumentLoader
	store       VectorStore
	llmProvider llm.Provider
	runs        runModel.RunStore
	steps       runModel.StepLog
	opts        Options
	logger      *logger_i.Logger
}

func NewService(deps Dependencies, opts Options) Service {
	if opts.TopK < 1 {
		opts.TopK = config.DefaultTopK
	}
	if opts.MetricsJob == "" {
		opts.MetricsJob = config.MetricsJobName
	}
	return &service{
		loader:      deps.Loader,
		store:       deps.Store,
		llmProvider: deps.LLM,
		runs:        deps.Runs,
		steps:       deps.Steps,
		opts:        opts,
		logger:      logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) Run(ctx context.Context, source, query string) (runModel.RunRecord, error) {
	ctx, run, log := s.startRun(ctx, source, query)

	chunks, err := s.ingest(ctx, run, log, source)
	if err != nil {
		return s.finishRun(ctx, run, log, err)
	}
	log.Debug("Document ingested", "chunks", chunks)

	err = s.answer(ctx, run, log, query)
	return s.finishRun(ctx, run, log, err)
}

func (s *service) Ingest(ctx context.Context, source string) (runModel.RunRecord, error) {
	ctx, run, log := s.startRun(ctx, source, "")
	_, err := s.ingest(ctx, run, log, source)
	return s.finishRun(ctx, run, log, err)
}

func (s *service) Ask(ctx context.Context, query string) (runModel.RunRecord, error) {
	ctx, run, log := s.startRun(ctx, "", query)
	err := s.answer(ctx, run, log, query)
	return s.finishRun(ctx, run, log, err)
}

// ingest runs load, chunk and store and records the stored chunk count.
func (s *service) ingest(ctx context.Context, run *runModel.RunRecord, log *logger_i.Logger, source string) (int, error) {
	var doc commonModels.Document
	err := s.executeStep(ctx, run, log, runModel.StepLoad, func(ctx context.Context) (string, error) {
		var err error
		doc, err = s.loader.Load(ctx, source)
		if err != nil {
			return "", asKind(err, commonModels.KindLoad, "load")
		}
		return pluralize(len(doc.Pages), "page"), nil
	})
	if err != nil {
		return 0, err
	}

	var chunks []commonModels.Chunk
	err = s.executeStep(ctx, run, log, runModel.StepChunk, func(ctx context.Context) (string, error) {
		var err error
		chunks, err = chunker.Split(doc.Pages, s.opts.Chunking)
		if err != nil {
			return "", err
		}
		return pluralize(len(chunks), "chunk"), nil
	})
	if err != nil {
		return 0, err
	}

	err = s.executeStep(ctx, run, log, runModel.StepStore, func(ctx context.Context) (string, error) {
		stored, err := s.store.Add(ctx, chunks)
		run.ChunkCount = stored
		if err != nil {
			return "", asKind(err, commonModels.KindRetrieval, "store")
		}
		return pluralize(stored, "chunk"), nil
	})
	return run.ChunkCount, err
}

// answer runs retrieve and generate and fills the answer and its sources.
func (s *service) answer(ctx context.Context, run *runModel.RunRecord, log *logger_i.Logger, query string) error {
	var hits []commonModels.ScoredChunk
	err := s.executeStep(ctx, run, log, runModel.StepRetrieve, func(ctx context.Context) (string, error) {
		var err error
		hits, err = s.fetchRelevant(ctx, query)
		if err != nil {
			return "", err
		}
		return pluralize(len(hits), "chunk"), nil
	})
	if err != nil {
		return err
	}
	run.Sources = sourcesOf(hits)

	return s.executeStep(ctx, run, log, runModel.StepGenerate, func(ctx context.Context) (string, error) {
		answer, err := s.GenerateResponse(ctx, query, joinChunks(hits))
		if err != nil {
			return "", err
		}
		run.Answer = answer
		return pluralize(len([]rune(answer)), "character"), nil
	})
}

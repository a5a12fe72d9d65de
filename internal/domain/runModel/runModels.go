package runModel

import (
	"context"
	"time"
)

type RunStatus string
type Step string

const (
	RunStatusRunning  RunStatus = "RUNNING"
	RunStatusComplete RunStatus = "COMPLETE"
	RunStatusError    RunStatus = "Error"

	StepInit     Step = "Init"
	StepLoad     Step = "LoadDocument"
	StepChunk    Step = "SplitChunks"
	StepStore    Step = "StoreChunks"
	StepRetrieve Step = "RetrieveContext"
	StepGenerate Step = "GenerateResponse"
	StepComplete Step = "Complete"
)

// RunRecord is the ledger entry of one pipeline execution.
type RunRecord struct {
	Id          string    `json:"id"`
	Source      string    `json:"source,omitempty"`
	Query       string    `json:"query,omitempty"`
	Answer      string    `json:"answer,omitempty"`
	Sources     []string  `json:"sources,omitempty"`
	ChunkCount  int       `json:"chunk_count"`
	Status      RunStatus `json:"status"`
	CurrentStep Step      `json:"current_step"`
	Error       RunError  `json:"error,omitempty"`
	CreatedTime time.Time `json:"created_time"`
	EndTime     time.Time `json:"end_time,omitempty"`
}

type RunError struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// StepEvent is one entry of a run's step trail.
type StepEvent struct {
	Step   Step      `json:"step"`
	Phase  string    `json:"phase"`
	At     time.Time `json:"at"`
	Detail string    `json:"detail,omitempty"`
}

type RunStore interface {
	GetRun(ctx context.Context, runId string) (RunRecord, bool)
	SaveRun(ctx context.Context, run RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]string, error)
	DeleteRun(ctx context.Context, runId string)
}

type StepLog interface {
	AppendStep(ctx context.Context, runId string, event StepEvent) error
	GetSteps(ctx context.Context, runId string) ([]StepEvent, error)
}

package api

import "time"

// RunReport is what --json prints for run, ingest and ask.
type RunReport struct {
	Id         string            `json:"id"`
	Status     string            `json:"status"`
	Source     string            `json:"source,omitempty"`
	Question   string            `json:"question,omitempty"`
	Answer     string            `json:"answer,omitempty"`
	Sources    []string          `json:"sources"`
	ChunkCount int               `json:"chunk_count,omitempty"`
	Error      *RunOutgoingError `json:"error,omitempty"`
	StartTime  time.Time         `json:"start_time"`
	EndTime    time.Time         `json:"end_time,omitempty"`
}

type RunOutgoingError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// RunDetail is printed by "runs show": the report plus its step trail.
type RunDetail struct {
	RunReport
	CurrentStep string       `json:"current_step"`
	Steps       []StepReport `json:"steps"`
}

type StepReport struct {
	Step   string    `json:"step"`
	Phase  string    `json:"phase"`
	At     time.Time `json:"at"`
	Detail string    `json:"detail,omitempty"`
}

type RunList struct {
	Runs []string `json:"runs"`
}

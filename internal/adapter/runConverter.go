package adapter

import (
	"github.com/akolanti/pdfrag/internal/api"
	"github.com/akolanti/pdfrag/internal/domain/runModel"
)

func ToRunReport(run runModel.RunRecord) api.RunReport {
	var errorPtr *api.RunOutgoingError
	if run.Error.Message != "" || run.Error.Kind != "" {
		errorPtr = &api.RunOutgoingError{
			Kind:    run.Error.Kind,
			Message: run.Error.Message,
		}
	}

	sources := run.Sources
	if sources == nil {
		sources = []string{}
	}

	return api.RunReport{
		Id:         run.Id,
		Status:     string(run.Status),
		Source:     run.Source,
		Question:   run.Query,
		Answer:     run.Answer,
		Sources:    sources,
		ChunkCount: run.ChunkCount,
		Error:      errorPtr,
		StartTime:  run.CreatedTime,
		EndTime:    run.EndTime,
	}
}

func ToRunDetail(run runModel.RunRecord, steps []runModel.StepEvent) api.RunDetail {
	detail := api.RunDetail{
		RunReport:   ToRunReport(run),
		CurrentStep: string(run.CurrentStep),
		Steps:       make([]api.StepReport, 0, len(steps)),
	}
	for _, s := range steps {
		detail.Steps = append(detail.Steps, api.StepReport{
			Step:   string(s.Step),
			Phase:  s.Phase,
			At:     s.At,
			Detail: s.Detail,
		})
	}
	return detail
}

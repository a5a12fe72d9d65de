package cli

import (
	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/runModel"
	"github.com/spf13/cobra"
)

func newRunCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load, chunk and store a document, then answer a question from it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// without flags or env the run reproduces the earnings call example
			a.v.SetDefault("source", config.DefaultSource)
			a.v.SetDefault("query", config.DefaultQuery)
			return a.execute(cmd, config.ModeRun, func(p *pipeline, cfg config.Config) (runModel.RunRecord, error) {
				return p.service.Run(cmd.Context(), cfg.Source, cfg.Query)
			})
		},
	}
	addSourceFlags(cmd)
	addQueryFlags(cmd)
	return cmd
}

func newIngestCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load, chunk and store a document without asking anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd, config.ModeIngest, func(p *pipeline, cfg config.Config) (runModel.RunRecord, error) {
				return p.service.Ingest(cmd.Context(), cfg.Source)
			})
		},
	}
	addSourceFlags(cmd)
	return cmd
}

func newAskCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from chunks stored by an earlier ingest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				a.v.Set("query", args[0])
			}
			return a.execute(cmd, config.ModeAsk, func(p *pipeline, cfg config.Config) (runModel.RunRecord, error) {
				return p.service.Ask(cmd.Context(), cfg.Query)
			})
		},
	}
	addQueryFlags(cmd)
	return cmd
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("source", "s", "", "local path or http(s) url of the document")
	cmd.Flags().Int("chunk-size", config.DefaultChunkSize, "maximum characters per chunk")
	cmd.Flags().Int("chunk-overlap", config.DefaultChunkOverlap, "characters shared by consecutive chunks")
}

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("query", "q", "", "question to answer")
	cmd.Flags().IntP("top-k", "k", config.DefaultTopK, "chunks retrieved as context")
}

// execute wires a pipeline, runs fn and prints its outcome. A failed run is
// still reported with --json but its error decides the exit code.
func (a *app) execute(cmd *cobra.Command, mode config.Mode, fn func(p *pipeline, cfg config.Config) (runModel.RunRecord, error)) error {
	cfg, err := a.loadConfig(cmd, mode)
	if err != nil {
		return err
	}

	p, err := buildPipeline(cmd.Context(), cfg, a.logger)
	if err != nil {
		a.logger.Error("Could not initialise the pipeline", "error", err)
		return err
	}
	defer p.Close(a.logger)

	run, runErr := fn(p, cfg)
	if runErr != nil && !a.jsonOut {
		return runErr
	}
	if err := a.printRun(cmd, mode, run); err != nil {
		return err
	}
	return runErr
}

package cli

import (
	"errors"
	"fmt"

	"github.com/akolanti/pdfrag/internal/adapter"
	"github.com/akolanti/pdfrag/internal/api"
	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/data/store"
	"github.com/spf13/cobra"
)

var errRunNotFound = errors.New("run not found")

func newRunsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run ledger",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List recent run ids, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, config.ModeInspect)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			ledger := store.NewLedger(cmd.Context(), cfg.RunStore)
			defer ledger.Close()

			ids, err := ledger.Runs.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if a.jsonOut {
				if ids == nil {
					ids = []string{}
				}
				return writeJSON(cmd.OutOrStdout(), api.RunList{Runs: ids})
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	list.Flags().Int("limit", 20, "maximum number of runs to list, 0 lists all")

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a run record and its step trail as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, config.ModeInspect)
			if err != nil {
				return err
			}

			ledger := store.NewLedger(cmd.Context(), cfg.RunStore)
			defer ledger.Close()

			run, ok := ledger.Runs.GetRun(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("%w: %s", errRunNotFound, args[0])
			}
			steps, err := ledger.Steps.GetSteps(cmd.Context(), run.Id)
			if err != nil {
				a.logger.Warn("Could not read step trail", "runId", run.Id, "error", err)
			}
			return writeJSON(cmd.OutOrStdout(), adapter.ToRunDetail(run, steps))
		},
	}

	remove := &cobra.Command{
		Use:     "delete <run-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a run and its step trail from the ledger",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, config.ModeInspect)
			if err != nil {
				return err
			}

			ledger := store.NewLedger(cmd.Context(), cfg.RunStore)
			defer ledger.Close()

			if _, ok := ledger.Runs.GetRun(cmd.Context(), args[0]); !ok {
				return fmt.Errorf("%w: %s", errRunNotFound, args[0])
			}
			ledger.Runs.DeleteRun(cmd.Context(), args[0])
			if _, ok := ledger.Runs.GetRun(cmd.Context(), args[0]); ok {
				return fmt.Errorf("run %s could not be deleted", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted run %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, show, remove)
	return cmd
}

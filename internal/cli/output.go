package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/akolanti/pdfrag/internal/adapter"
	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/runModel"
	"github.com/spf13/cobra"
)

func (a *app) printRun(cmd *cobra.Command, mode config.Mode, run runModel.RunRecord) error {
	out := cmd.OutOrStdout()
	if a.jsonOut {
		return writeJSON(out, adapter.ToRunReport(run))
	}
	if mode == config.ModeIngest {
		_, err := fmt.Fprintf(out, "chunks stored: %d (run %s)\n", run.ChunkCount, run.Id)
		return err
	}
	_, err := fmt.Fprintln(out, run.Answer)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

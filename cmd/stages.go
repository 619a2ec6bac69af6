package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"voltaudit/internal/bootstrap/logging"
	"voltaudit/internal/errs"
	usecaseaudit "voltaudit/internal/usecase/audit"
)

var stagesFilePath string

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "Manage the workflow stage overlay",
}

// stagesValidateCmd parses the overlay file without touching the database, so
// operators can check an edit before the live reload picks it up.
var stagesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a workflow stages file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		stages, err := usecaseaudit.LoadStagesFile(stagesFilePath)
		if err != nil {
			logging.Error(ctx, "stages file invalid", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "validate stages file")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %d stage(s) ok\n", stagesFilePath, len(stages)); err != nil {
			return errs.Wrap(err, "write stages output")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stagesCmd)
	stagesCmd.AddCommand(stagesValidateCmd)

	stagesValidateCmd.PersistentFlags().StringVar(&stagesFilePath, "stages", "configs/stages.toml", "Stages file path")
}

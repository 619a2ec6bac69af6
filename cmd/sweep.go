package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"voltaudit/internal/bootstrap/logging"
	"voltaudit/internal/errs"
	usecaseaudit "voltaudit/internal/usecase/audit"
)

var sweepAuditID string

// sweepCmd runs one reminder/escalation pass and exits. The serve command
// schedules the same sweep on a cron interval.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one reminder and escalation sweep",
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		auditIDs := []string{sweepAuditID}
		if sweepAuditID == "" {
			var err error
			auditIDs, err = deps.Repo.ListAuditIDsWithOpenApprovals(ctx)
			if err != nil {
				return errs.Wrap(err, "list audits with open approvals")
			}
		}

		var reminders, escalations int
		for _, auditID := range auditIDs {
			result, err := deps.Service.ReminderSweep(ctx, usecaseaudit.SweepInput{AuditID: auditID})
			if err != nil {
				return errs.Wrapf(err, "sweep audit %s", auditID)
			}
			reminders += len(result.Reminders)
			escalations += len(result.Escalations)
		}

		logging.Info(ctx, "sweep finished",
			slog.Int("audits", len(auditIDs)),
			slog.Int("reminders", reminders),
			slog.Int("escalations", escalations),
		)
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "swept %d audit(s): %d reminder(s), %d escalation(s)\n", len(auditIDs), reminders, escalations); err != nil {
			return errs.Wrap(err, "write sweep output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&sweepAuditID, "audit", "", "Sweep a single audit instead of all audits with open approvals")
}

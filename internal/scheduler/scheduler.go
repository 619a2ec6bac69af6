// Package scheduler owns the periodic reminder/escalation sweep. The sweep
// runs server-side on a cron schedule so reminders fire regardless of which
// clients are connected.
package scheduler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/robfig/cron/v3"

	"voltaudit/internal/bootstrap/logging"
	"voltaudit/internal/errs"
	usecaseaudit "voltaudit/internal/usecase/audit"
)

// auditLister narrows the repository to what the scheduler needs.
type auditLister interface {
	ListAuditIDsWithOpenApprovals(ctx context.Context) ([]string, error)
}

type Scheduler struct {
	cron    *cron.Cron
	svc     *usecaseaudit.Service
	audits  auditLister
	spec    string
	baseCtx context.Context
}

func New(svc *usecaseaudit.Service, audits auditLister, spec string) (*Scheduler, error) {
	if svc == nil {
		return nil, errors.New("audit service is required")
	}
	if audits == nil {
		return nil, errors.New("audit lister is required")
	}
	if spec == "" {
		spec = "@every 3m"
	}

	return &Scheduler{
		cron:   cron.New(),
		svc:    svc,
		audits: audits,
		spec:   spec,
	}, nil
}

// Start registers the sweep job and launches the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	s.baseCtx = ctx

	if _, err := s.cron.AddFunc(s.spec, s.runSweep); err != nil {
		return errs.Wrap(err, "register sweep job")
	}

	s.cron.Start()
	logging.Info(ctx, "reminder sweep scheduled",
		slog.String("component", "scheduler"),
		slog.String("spec", s.spec),
	)
	return nil
}

// Stop halts the cron loop, letting a running sweep finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Scheduler) runSweep() {
	ctx := logging.WithAttrs(s.baseCtx, slog.String("component", "scheduler"))
	if err := ctx.Err(); err != nil {
		return
	}

	auditIDs, err := s.audits.ListAuditIDsWithOpenApprovals(ctx)
	if err != nil {
		logging.Error(ctx, "sweep audit listing failed", slog.Any("err", errs.Loggable(err)))
		return
	}

	for _, auditID := range auditIDs {
		result, err := s.svc.ReminderSweep(ctx, usecaseaudit.SweepInput{AuditID: auditID})
		if err != nil {
			logging.Error(ctx, "sweep failed",
				slog.String("audit_id", auditID),
				slog.Any("err", errs.Loggable(err)),
			)
			continue
		}
		if len(result.Reminders) > 0 || len(result.Escalations) > 0 {
			logging.Info(ctx, "sweep completed",
				slog.String("audit_id", auditID),
				slog.Int("reminders", len(result.Reminders)),
				slog.Int("escalations", len(result.Escalations)),
			)
		}
	}
}

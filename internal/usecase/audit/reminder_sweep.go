package audit

import (
	"context"
	"strings"
	"time"

	domainaudit "voltaudit/internal/domain/audit"
	"voltaudit/internal/ports"
)

// pendingStatuses are the approval states the sweep watches.
var pendingStatuses = []string{
	string(domainaudit.StatusPendingReview),
	string(domainaudit.StatusManagerApproval),
	string(domainaudit.StatusFinalApproval),
}

type SweepInput struct {
	AuditID string
	// Now defaults to the service clock; tests pin it.
	Now time.Time
}

type SweepNotice struct {
	FindingID string
	Section   string
	Assignee  string
}

type SweepResult struct {
	Reminders   []SweepNotice
	Escalations []SweepNotice
}

// ReminderSweep re-evaluates every open approval against the audit's
// thresholds. It is a pure function of current time, finding state, and
// configuration: it persists nothing and re-running it with no intervening
// change reproduces the same decisions. The reminder and escalation checks
// are independent; both may fire for the same finding in one sweep.
func (s *Service) ReminderSweep(ctx context.Context, input SweepInput) (SweepResult, error) {
	if err := s.guard(ctx); err != nil {
		return SweepResult{}, err
	}

	auditID := strings.TrimSpace(input.AuditID)
	if auditID == "" {
		return SweepResult{}, domainaudit.ErrAuditIDRequired
	}

	now := input.Now
	if now.IsZero() {
		now = s.clock()
	}

	thresholds := s.defaults
	if override, ok, err := s.repo.GetAuditThresholds(ctx, auditID); err != nil {
		return SweepResult{}, err
	} else if ok {
		thresholds = override
	}

	findings, err := s.repo.ListFindings(ctx, ports.FindingFilter{
		AuditID:          auditID,
		ApprovalStatuses: pendingStatuses,
	})
	if err != nil {
		return SweepResult{}, err
	}

	reminderAge := time.Duration(thresholds.ReminderDays) * 24 * time.Hour
	escalationAge := time.Duration(thresholds.EscalationDays) * 24 * time.Hour

	var result SweepResult
	for _, finding := range findings {
		assignee := derefString(finding.Assignee)
		if assignee == "" {
			continue
		}

		createdAt, err := time.Parse(time.RFC3339Nano, finding.CreatedAt)
		if err != nil {
			continue
		}
		age := now.Sub(createdAt)

		notice := SweepNotice{
			FindingID: finding.FindingID,
			Section:   finding.Section,
			Assignee:  assignee,
		}

		if age > reminderAge {
			result.Reminders = append(result.Reminders, notice)
			s.notifyBestEffort(ctx, ports.Notification{
				Severity:  domainaudit.SeverityWarning,
				Title:     "Approval reminder",
				Message:   "Finding in " + finding.Section + " assigned to " + assignee + " is awaiting approval",
				AuditID:   auditID,
				FindingID: finding.FindingID,
				UserID:    assignee,
			})
			s.publishBestEffort(ctx, domainaudit.EventReminderDue, auditID, "", map[string]string{
				"findingId": finding.FindingID,
				"assignee":  assignee,
			})
		}

		if age > escalationAge {
			result.Escalations = append(result.Escalations, notice)
			s.notifyBestEffort(ctx, ports.Notification{
				Severity:  domainaudit.SeverityError,
				Title:     "Approval escalation",
				Message:   "Finding in " + finding.Section + " assigned to " + assignee + " has exceeded the escalation threshold",
				AuditID:   auditID,
				FindingID: finding.FindingID,
				UserID:    assignee,
			})
			s.publishBestEffort(ctx, domainaudit.EventEscalationDue, auditID, "", map[string]string{
				"findingId": finding.FindingID,
				"assignee":  assignee,
			})
		}
	}

	return result, nil
}

type SetThresholdsInput struct {
	AuditID        string
	ReminderDays   int
	EscalationDays int
}

// SetAuditThresholds stores a per-audit override of the sweep configuration.
func (s *Service) SetAuditThresholds(ctx context.Context, input SetThresholdsInput) error {
	if err := s.guard(ctx); err != nil {
		return err
	}

	auditID := strings.TrimSpace(input.AuditID)
	if auditID == "" {
		return domainaudit.ErrAuditIDRequired
	}
	if input.ReminderDays < 0 || input.EscalationDays < 0 {
		return errNegativeThreshold
	}

	return s.repo.SetAuditThresholds(ctx, auditID, ports.AuditThresholds{
		ReminderDays:   input.ReminderDays,
		EscalationDays: input.EscalationDays,
	})
}

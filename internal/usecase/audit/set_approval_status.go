package audit

import (
	"context"
	"errors"
	"strings"

	domainaudit "voltaudit/internal/domain/audit"
	"voltaudit/internal/ports"
)

type SetApprovalStatusInput struct {
	AuditID   string
	FindingID string
	Next      string
	Actor     string
}

// SetApprovalStatus applies one approval transition. Role gating is the
// caller's concern; every requested transition is applied, appended to the
// activity log, and broadcast. Transitioning a finding that does not exist
// is a silent no-op, and re-applying the current state still logs an entry.
func (s *Service) SetApprovalStatus(ctx context.Context, input SetApprovalStatusInput) error {
	if err := s.guard(ctx); err != nil {
		return err
	}

	next, err := domainaudit.NormalizeApprovalStatus(input.Next)
	if err != nil {
		return err
	}

	actor := strings.TrimSpace(input.Actor)
	if actor == "" {
		return domainaudit.ErrActorRequired
	}

	findingID := strings.TrimSpace(input.FindingID)
	if findingID == "" {
		return domainaudit.ErrFindingIDRequired
	}

	now := s.nowString()
	var finding ports.Finding
	missing := false

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		loaded, err := s.repo.GetFinding(txCtx, findingID)
		if err != nil {
			if errors.Is(err, ports.ErrFindingNotFound) {
				missing = true
				return nil
			}
			return err
		}
		finding = loaded

		if err := s.repo.AppendActivity(txCtx, ports.ActivityAppend{
			FindingID: findingID,
			Action:    "approval_status_changed",
			Actor:     actor,
			Details:   finding.ApprovalStatus + " -> " + string(next),
			CreatedAt: now,
		}); err != nil {
			return err
		}

		return s.repo.SetApprovalStatus(txCtx, findingID, string(next), now)
	}); err != nil {
		return err
	}
	if missing {
		return nil
	}

	if assignee := derefString(finding.Assignee); assignee != "" {
		s.notifyBestEffort(ctx, ports.Notification{
			Severity:  domainaudit.NotificationSeverityFor(next),
			Title:     "Approval status updated",
			Message:   "Finding in " + finding.Section + " moved to " + string(next),
			AuditID:   finding.AuditID,
			FindingID: findingID,
			UserID:    assignee,
		})
	}

	s.publishBestEffort(ctx, domainaudit.EventFindingUpdated, finding.AuditID, actor, map[string]string{
		"findingId":      findingID,
		"approvalStatus": string(next),
	})

	return nil
}

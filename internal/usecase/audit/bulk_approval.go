package audit

import (
	"context"
	"errors"
	"strings"

	domainaudit "voltaudit/internal/domain/audit"
	"voltaudit/internal/ports"
)

type BulkSetApprovalStatusInput struct {
	AuditID    string
	FindingIDs []string
	Next       string
	Actor      string
}

type BulkSetApprovalStatusResult struct {
	// Updated lists the ids that existed and were transitioned; ids that did
	// not exist are skipped silently, matching the single-finding no-op rule.
	Updated []string
}

// BulkSetApprovalStatus applies the single-finding transition to every id in
// the selection inside one transaction, then emits one notification per
// affected finding that has an assignee.
func (s *Service) BulkSetApprovalStatus(ctx context.Context, input BulkSetApprovalStatusInput) (BulkSetApprovalStatusResult, error) {
	if err := s.guard(ctx); err != nil {
		return BulkSetApprovalStatusResult{}, err
	}

	next, err := domainaudit.NormalizeApprovalStatus(input.Next)
	if err != nil {
		return BulkSetApprovalStatusResult{}, err
	}

	actor := strings.TrimSpace(input.Actor)
	if actor == "" {
		return BulkSetApprovalStatusResult{}, domainaudit.ErrActorRequired
	}

	now := s.nowString()
	updated := make([]ports.Finding, 0, len(input.FindingIDs))

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		for _, raw := range input.FindingIDs {
			findingID := strings.TrimSpace(raw)
			if findingID == "" {
				continue
			}

			finding, err := s.repo.GetFinding(txCtx, findingID)
			if err != nil {
				if errors.Is(err, ports.ErrFindingNotFound) {
					continue
				}
				return err
			}

			if err := s.repo.AppendActivity(txCtx, ports.ActivityAppend{
				FindingID: findingID,
				Action:    "approval_status_changed",
				Actor:     actor,
				Details:   finding.ApprovalStatus + " -> " + string(next),
				CreatedAt: now,
			}); err != nil {
				return err
			}
			if err := s.repo.SetApprovalStatus(txCtx, findingID, string(next), now); err != nil {
				return err
			}

			updated = append(updated, finding)
		}
		return nil
	}); err != nil {
		return BulkSetApprovalStatusResult{}, err
	}

	result := BulkSetApprovalStatusResult{Updated: make([]string, 0, len(updated))}
	for _, finding := range updated {
		result.Updated = append(result.Updated, finding.FindingID)

		if assignee := derefString(finding.Assignee); assignee != "" {
			s.notifyBestEffort(ctx, ports.Notification{
				Severity:  domainaudit.NotificationSeverityFor(next),
				Title:     "Approval status updated",
				Message:   "Finding in " + finding.Section + " moved to " + string(next),
				AuditID:   finding.AuditID,
				FindingID: finding.FindingID,
				UserID:    assignee,
			})
		}

		s.publishBestEffort(ctx, domainaudit.EventFindingUpdated, finding.AuditID, actor, map[string]string{
			"findingId":      finding.FindingID,
			"approvalStatus": string(next),
		})
	}

	return result, nil
}

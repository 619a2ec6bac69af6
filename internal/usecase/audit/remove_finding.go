package audit

import (
	"context"
	"errors"
	"strings"

	domainaudit "voltaudit/internal/domain/audit"
	"voltaudit/internal/ports"
)

type RemoveFindingInput struct {
	AuditID   string
	FindingID string
	Actor     string
}

// RemoveFinding soft-deletes: the row is flagged and disappears from default
// listings, but stays addressable because activity entries reference it.
// Hard deletion is deliberately not offered by this core.
func (s *Service) RemoveFinding(ctx context.Context, input RemoveFindingInput) error {
	if err := s.guard(ctx); err != nil {
		return err
	}

	findingID := strings.TrimSpace(input.FindingID)
	if findingID == "" {
		return domainaudit.ErrFindingIDRequired
	}

	actor := strings.TrimSpace(input.Actor)
	if actor == "" {
		return domainaudit.ErrActorRequired
	}

	now := s.nowString()
	var auditID string
	missing := false

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		finding, err := s.repo.GetFinding(txCtx, findingID)
		if err != nil {
			if errors.Is(err, ports.ErrFindingNotFound) {
				missing = true
				return nil
			}
			return err
		}
		auditID = finding.AuditID

		if err := s.repo.AppendActivity(txCtx, ports.ActivityAppend{
			FindingID: findingID,
			Action:    "removed",
			Actor:     actor,
			Details:   "finding soft-removed",
			CreatedAt: now,
		}); err != nil {
			return err
		}

		return s.repo.SetFindingRemoved(txCtx, findingID, now)
	}); err != nil {
		return err
	}
	if missing {
		return nil
	}

	s.publishBestEffort(ctx, domainaudit.EventFindingDeleted, auditID, actor, map[string]string{
		"findingId": findingID,
	})

	return nil
}

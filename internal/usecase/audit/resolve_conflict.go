package audit

import (
	"context"
	"errors"
	"strings"

	domainaudit "voltaudit/internal/domain/audit"
	"voltaudit/internal/domain/circuit"
)

type ResolveConflictInput struct {
	AuditID    string
	ConflictID string
	Resolution string
	Actor      string
}

var (
	errConflictIDRequired = errors.New("conflict id is required")
	errAlreadyResolved    = errors.New("conflict is already resolved")
)

// ResolveConflict records how a surfaced conflict was settled. Only the
// resolution fields change; applying the chosen value back to the source
// calculators is the caller's responsibility.
func (s *Service) ResolveConflict(ctx context.Context, input ResolveConflictInput) error {
	if err := s.guard(ctx); err != nil {
		return err
	}

	conflictID := strings.TrimSpace(input.ConflictID)
	if conflictID == "" {
		return errConflictIDRequired
	}

	resolution, err := circuit.NormalizeResolution(input.Resolution)
	if err != nil {
		return err
	}

	now := s.nowString()
	var auditID string

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		record, err := s.repo.GetConflict(txCtx, conflictID)
		if err != nil {
			return err
		}
		if record.Resolved {
			return errAlreadyResolved
		}
		auditID = record.AuditID

		return s.repo.ResolveConflict(txCtx, conflictID, string(resolution), now)
	}); err != nil {
		return err
	}

	s.publishBestEffort(ctx, domainaudit.EventConflictResolved, auditID, strings.TrimSpace(input.Actor), map[string]string{
		"conflictId": conflictID,
		"resolution": string(resolution),
	})

	return nil
}

package audit

import (
	"context"
	"strings"

	"github.com/google/uuid"

	domainaudit "voltaudit/internal/domain/audit"
	"voltaudit/internal/ports"
)

type CreateFindingInput struct {
	AuditID        string
	Section        string
	Description    string
	Recommendation string
	Severity       string
	EstimatedCost  float64
	Assignee       string
	Actor          string
}

// CreateFinding records a new observation in Draft state with its initial
// activity entry, then broadcasts findingCreated.
func (s *Service) CreateFinding(ctx context.Context, input CreateFindingInput) (FindingItem, error) {
	if err := s.guard(ctx); err != nil {
		return FindingItem{}, err
	}

	auditID := strings.TrimSpace(input.AuditID)
	if auditID == "" {
		return FindingItem{}, domainaudit.ErrAuditIDRequired
	}

	actor := strings.TrimSpace(input.Actor)
	if actor == "" {
		return FindingItem{}, domainaudit.ErrActorRequired
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		return FindingItem{}, errDescriptionRequired
	}
	if input.EstimatedCost < 0 {
		return FindingItem{}, errNegativeCost
	}

	section, err := domainaudit.NormalizeSection(input.Section)
	if err != nil {
		return FindingItem{}, err
	}
	severity, err := domainaudit.NormalizeFindingSeverity(input.Severity)
	if err != nil {
		return FindingItem{}, err
	}

	now := s.nowString()
	finding := ports.Finding{
		FindingID:      uuid.NewString(),
		AuditID:        auditID,
		Section:        string(section),
		Description:    description,
		Recommendation: strings.TrimSpace(input.Recommendation),
		Severity:       string(severity),
		EstimatedCost:  input.EstimatedCost,
		Status:         string(domainaudit.FindingOpen),
		ApprovalStatus: string(domainaudit.StatusDraft),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if assignee := strings.TrimSpace(input.Assignee); assignee != "" {
		finding.Assignee = &assignee
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateFinding(txCtx, finding); err != nil {
			return err
		}
		return s.repo.AppendActivity(txCtx, ports.ActivityAppend{
			FindingID: finding.FindingID,
			Action:    "created",
			Actor:     actor,
			Details:   "finding created in section " + finding.Section,
			CreatedAt: now,
		})
	}); err != nil {
		return FindingItem{}, err
	}

	s.publishBestEffort(ctx, domainaudit.EventFindingCreated, auditID, actor, map[string]string{
		"findingId": finding.FindingID,
		"section":   finding.Section,
	})

	return mapFindingItem(finding), nil
}

package audit

import (
	"context"
	"strings"

	domainaudit "voltaudit/internal/domain/audit"
	"voltaudit/internal/ports"
)

// ListFindings returns the non-removed findings of one audit.
func (s *Service) ListFindings(ctx context.Context, auditID string) ([]FindingItem, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(auditID) == "" {
		return nil, domainaudit.ErrAuditIDRequired
	}

	findings, err := s.repo.ListFindings(ctx, ports.FindingFilter{AuditID: auditID})
	if err != nil {
		return nil, err
	}

	items := make([]FindingItem, 0, len(findings))
	for _, finding := range findings {
		items = append(items, mapFindingItem(finding))
	}
	return items, nil
}

// GetFinding returns one finding with its comment and activity logs.
func (s *Service) GetFinding(ctx context.Context, findingID string) (FindingDetail, error) {
	if err := s.guard(ctx); err != nil {
		return FindingDetail{}, err
	}
	if strings.TrimSpace(findingID) == "" {
		return FindingDetail{}, domainaudit.ErrFindingIDRequired
	}

	finding, err := s.repo.GetFinding(ctx, findingID)
	if err != nil {
		return FindingDetail{}, err
	}

	comments, err := s.repo.ListComments(ctx, findingID)
	if err != nil {
		return FindingDetail{}, err
	}
	activity, err := s.repo.ListActivity(ctx, findingID)
	if err != nil {
		return FindingDetail{}, err
	}

	detail := FindingDetail{FindingItem: mapFindingItem(finding)}
	for _, comment := range comments {
		detail.Comments = append(detail.Comments, CommentItem{
			Author:    comment.Author,
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt,
		})
	}
	for _, entry := range activity {
		detail.Activity = append(detail.Activity, ActivityItem{
			EntryID:   entry.EntryID,
			Action:    entry.Action,
			Actor:     entry.Actor,
			Details:   entry.Details,
			CreatedAt: entry.CreatedAt,
		})
	}
	return detail, nil
}

// ListConflicts returns an audit's conflicts, unresolved first by default.
func (s *Service) ListConflicts(ctx context.Context, auditID string, includeResolved bool) ([]ports.ConflictRecord, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(auditID) == "" {
		return nil, domainaudit.ErrAuditIDRequired
	}
	return s.repo.ListConflicts(ctx, auditID, includeResolved)
}

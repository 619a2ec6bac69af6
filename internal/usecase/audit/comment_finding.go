package audit

import (
	"context"
	"strings"

	domainaudit "voltaudit/internal/domain/audit"
	"voltaudit/internal/ports"
)

type AddCommentInput struct {
	AuditID   string
	FindingID string
	Author    string
	Text      string
}

// AddComment appends to the finding's comment log. Comments, like activity
// entries, are never updated or removed once written.
func (s *Service) AddComment(ctx context.Context, input AddCommentInput) error {
	if err := s.guard(ctx); err != nil {
		return err
	}

	findingID := strings.TrimSpace(input.FindingID)
	if findingID == "" {
		return domainaudit.ErrFindingIDRequired
	}

	author := strings.TrimSpace(input.Author)
	if author == "" {
		return domainaudit.ErrActorRequired
	}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		return errCommentTextRequired
	}

	now := s.nowString()
	var auditID string

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		finding, err := s.repo.GetFinding(txCtx, findingID)
		if err != nil {
			return err
		}
		auditID = finding.AuditID

		if err := s.repo.AppendComment(txCtx, ports.CommentAppend{
			FindingID: findingID,
			Author:    author,
			Text:      text,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		return s.repo.AppendActivity(txCtx, ports.ActivityAppend{
			FindingID: findingID,
			Action:    "comment_added",
			Actor:     author,
			Details:   text,
			CreatedAt: now,
		})
	}); err != nil {
		return err
	}

	s.publishBestEffort(ctx, domainaudit.EventCommentAdded, auditID, author, map[string]string{
		"findingId": findingID,
	})

	return nil
}

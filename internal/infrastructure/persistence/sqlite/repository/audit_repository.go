package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"voltaudit/internal/errs"
	"voltaudit/internal/infrastructure/persistence/sqlite/model"
	"voltaudit/internal/ports"
)

type AuditRepository struct {
	db *gorm.DB
}

var _ ports.AuditRepository = (*AuditRepository)(nil)

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *AuditRepository) ListFindings(ctx context.Context, filter ports.FindingFilter) ([]ports.Finding, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Finding{})
	if auditID := strings.TrimSpace(filter.AuditID); auditID != "" {
		query = query.Where("audit_id = ?", auditID)
	}
	if !filter.IncludeRemoved {
		query = query.Where("removed = ?", false)
	}
	if assignee := strings.TrimSpace(filter.Assignee); assignee != "" {
		query = query.Where("assignee = ?", assignee)
	}
	if len(filter.ApprovalStatuses) > 0 {
		query = query.Where("approval_status IN ?", filter.ApprovalStatuses)
	}

	var rows []model.Finding
	if err := query.Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query findings")
	}

	items := make([]ports.Finding, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapFinding(row))
	}
	return items, nil
}

func (r *AuditRepository) GetFinding(ctx context.Context, findingID string) (ports.Finding, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Finding{}, err
	}

	var row model.Finding
	if err := db.Where("finding_id = ?", findingID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Finding{}, ports.ErrFindingNotFound
		}
		return ports.Finding{}, errs.Wrap(err, "query finding")
	}
	return mapFinding(row), nil
}

func (r *AuditRepository) ListActivity(ctx context.Context, findingID string) ([]ports.ActivityEntry, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.ActivityEntry
	if err := db.
		Where("finding_id = ?", findingID).
		Order("entry_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query activity entries")
	}

	items := make([]ports.ActivityEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.ActivityEntry{
			EntryID:   row.EntryID,
			FindingID: row.FindingID,
			Action:    row.Action,
			Actor:     row.Actor,
			Details:   row.Details,
			CreatedAt: row.CreatedAt,
		})
	}
	return items, nil
}

func (r *AuditRepository) ListComments(ctx context.Context, findingID string) ([]ports.Comment, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Comment
	if err := db.
		Where("finding_id = ?", findingID).
		Order("comment_id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query comments")
	}

	items := make([]ports.Comment, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.Comment{
			CommentID: row.CommentID,
			FindingID: row.FindingID,
			Author:    row.Author,
			Text:      row.Text,
			CreatedAt: row.CreatedAt,
		})
	}
	return items, nil
}

func (r *AuditRepository) GetConflict(ctx context.Context, conflictID string) (ports.ConflictRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.ConflictRecord{}, err
	}

	var row model.Conflict
	if err := db.Where("conflict_id = ?", conflictID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ConflictRecord{}, ports.ErrConflictNotFound
		}
		return ports.ConflictRecord{}, errs.Wrap(err, "query conflict")
	}
	return mapConflict(row), nil
}

func (r *AuditRepository) ListConflicts(ctx context.Context, auditID string, includeResolved bool) ([]ports.ConflictRecord, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Conflict{}).Where("audit_id = ?", auditID)
	if !includeResolved {
		query = query.Where("resolved = ?", false)
	}

	var rows []model.Conflict
	if err := query.Order("detected_at asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query conflicts")
	}

	items := make([]ports.ConflictRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapConflict(row))
	}
	return items, nil
}

func (r *AuditRepository) GetAuditThresholds(ctx context.Context, auditID string) (ports.AuditThresholds, bool, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.AuditThresholds{}, false, err
	}

	var row model.AuditSettings
	if err := db.Where("audit_id = ?", auditID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.AuditThresholds{}, false, nil
		}
		return ports.AuditThresholds{}, false, errs.Wrap(err, "query audit settings")
	}

	return ports.AuditThresholds{
		ReminderDays:   row.ReminderDays,
		EscalationDays: row.EscalationDays,
	}, true, nil
}

func (r *AuditRepository) ListAuditIDsWithOpenApprovals(ctx context.Context) ([]string, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var auditIDs []string
	if err := db.Model(&model.Finding{}).
		Distinct("audit_id").
		Where("removed = ?", false).
		Where("approval_status IN ?", []string{"Pending Review", "Manager Approval", "Final Approval"}).
		Order("audit_id asc").
		Pluck("audit_id", &auditIDs).Error; err != nil {
		return nil, errs.Wrap(err, "query audits with open approvals")
	}
	return auditIDs, nil
}

func (r *AuditRepository) ListStages(ctx context.Context) ([]ports.WorkflowStage, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.WorkflowStage
	if err := db.Order("position asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query workflow stages")
	}

	stages := make([]ports.WorkflowStage, 0, len(rows))
	for _, row := range rows {
		stages = append(stages, ports.WorkflowStage{Name: row.Name, Position: row.Position})
	}
	return stages, nil
}

func (r *AuditRepository) CreateFinding(ctx context.Context, finding ports.Finding) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.Finding{
		FindingID:      finding.FindingID,
		AuditID:        finding.AuditID,
		Section:        finding.Section,
		Description:    finding.Description,
		Recommendation: finding.Recommendation,
		Severity:       finding.Severity,
		EstimatedCost:  finding.EstimatedCost,
		Status:         finding.Status,
		Assignee:       finding.Assignee,
		ApprovalStatus: finding.ApprovalStatus,
		Removed:        finding.Removed,
		CreatedAt:      finding.CreatedAt,
		UpdatedAt:      finding.UpdatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert finding")
	}
	return nil
}

func (r *AuditRepository) SetApprovalStatus(ctx context.Context, findingID string, status string, updatedAt string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&model.Finding{}).
		Where("finding_id = ?", findingID).
		Updates(map[string]any{
			"approval_status": status,
			"updated_at":      updatedAt,
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "update approval status")
	}
	if result.RowsAffected == 0 {
		return ports.ErrFindingNotFound
	}
	return nil
}

func (r *AuditRepository) SetFindingRemoved(ctx context.Context, findingID string, updatedAt string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&model.Finding{}).
		Where("finding_id = ?", findingID).
		Updates(map[string]any{
			"removed":    true,
			"updated_at": updatedAt,
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "mark finding removed")
	}
	if result.RowsAffected == 0 {
		return ports.ErrFindingNotFound
	}
	return nil
}

func (r *AuditRepository) AppendActivity(ctx context.Context, input ports.ActivityAppend) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.ActivityEntry{
		FindingID: input.FindingID,
		Action:    input.Action,
		Actor:     input.Actor,
		Details:   input.Details,
		CreatedAt: input.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "append activity entry")
	}
	return nil
}

func (r *AuditRepository) AppendComment(ctx context.Context, input ports.CommentAppend) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.Comment{
		FindingID: input.FindingID,
		Author:    input.Author,
		Text:      input.Text,
		CreatedAt: input.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "append comment")
	}
	return nil
}

func (r *AuditRepository) CreateConflict(ctx context.Context, record ports.ConflictRecord) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.Conflict{
		ConflictID:      record.ConflictID,
		AuditID:         record.AuditID,
		CircuitID:       record.CircuitID,
		LoadScheduleID:  record.LoadScheduleID,
		LoadItemID:      record.LoadItemID,
		Type:            record.Type,
		Severity:        record.Severity,
		DetectedAt:      record.DetectedAt,
		ComparisonsJSON: record.ComparisonsJSON,
		Resolved:        record.Resolved,
		ResolvedAt:      record.ResolvedAt,
		Resolution:      record.Resolution,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert conflict")
	}
	return nil
}

func (r *AuditRepository) ResolveConflict(ctx context.Context, conflictID string, resolution string, resolvedAt string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&model.Conflict{}).
		Where("conflict_id = ?", conflictID).
		Updates(map[string]any{
			"resolved":    true,
			"resolved_at": resolvedAt,
			"resolution":  resolution,
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "resolve conflict")
	}
	if result.RowsAffected == 0 {
		return ports.ErrConflictNotFound
	}
	return nil
}

func (r *AuditRepository) SetAuditThresholds(ctx context.Context, auditID string, thresholds ports.AuditThresholds) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.AuditSettings{
		AuditID:        auditID,
		ReminderDays:   thresholds.ReminderDays,
		EscalationDays: thresholds.EscalationDays,
		UpdatedAt:      nowString(),
	}
	if err := db.Save(&row).Error; err != nil {
		return errs.Wrap(err, "upsert audit settings")
	}
	return nil
}

func (r *AuditRepository) ReplaceStages(ctx context.Context, stages []ports.WorkflowStage) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	if err := db.Where("1 = 1").Delete(&model.WorkflowStage{}).Error; err != nil {
		return errs.Wrap(err, "clear workflow stages")
	}
	for _, stage := range stages {
		row := model.WorkflowStage{Name: stage.Name, Position: stage.Position}
		if err := db.Create(&row).Error; err != nil {
			return errs.Wrap(err, "insert workflow stage")
		}
	}
	return nil
}

func mapFinding(row model.Finding) ports.Finding {
	return ports.Finding{
		FindingID:      row.FindingID,
		AuditID:        row.AuditID,
		Section:        row.Section,
		Description:    row.Description,
		Recommendation: row.Recommendation,
		Severity:       row.Severity,
		EstimatedCost:  row.EstimatedCost,
		Status:         row.Status,
		Assignee:       row.Assignee,
		ApprovalStatus: row.ApprovalStatus,
		Removed:        row.Removed,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func mapConflict(row model.Conflict) ports.ConflictRecord {
	return ports.ConflictRecord{
		ConflictID:      row.ConflictID,
		AuditID:         row.AuditID,
		CircuitID:       row.CircuitID,
		LoadScheduleID:  row.LoadScheduleID,
		LoadItemID:      row.LoadItemID,
		Type:            row.Type,
		Severity:        row.Severity,
		DetectedAt:      row.DetectedAt,
		ComparisonsJSON: row.ComparisonsJSON,
		Resolved:        row.Resolved,
		ResolvedAt:      row.ResolvedAt,
		Resolution:      row.Resolution,
	}
}

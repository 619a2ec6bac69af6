package ports

import (
	"context"
	"errors"
)

var (
	ErrFindingNotFound  = errors.New("finding not found")
	ErrConflictNotFound = errors.New("conflict not found")
)

type FindingFilter struct {
	AuditID          string
	IncludeRemoved   bool
	Assignee         string
	ApprovalStatuses []string
}

type Finding struct {
	FindingID      string
	AuditID        string
	Section        string
	Description    string
	Recommendation string
	Severity       string
	EstimatedCost  float64
	Status         string
	Assignee       *string
	ApprovalStatus string
	Removed        bool
	CreatedAt      string
	UpdatedAt      string
}

type ActivityEntry struct {
	EntryID   uint64
	FindingID string
	Action    string
	Actor     string
	Details   string
	CreatedAt string
}

type ActivityAppend struct {
	FindingID string
	Action    string
	Actor     string
	Details   string
	CreatedAt string
}

type Comment struct {
	CommentID uint64
	FindingID string
	Author    string
	Text      string
	CreatedAt string
}

type CommentAppend struct {
	FindingID string
	Author    string
	Text      string
	CreatedAt string
}

// ConflictRecord is the persisted form of a detected circuit conflict.
// Property comparisons are stored as a JSON document; they are derived data
// and are only ever read back alongside their parent.
type ConflictRecord struct {
	ConflictID      string
	AuditID         string
	CircuitID       string
	LoadScheduleID  string
	LoadItemID      string
	Type            string
	Severity        string
	DetectedAt      string
	ComparisonsJSON string
	Resolved        bool
	ResolvedAt      *string
	Resolution      string
}

// AuditThresholds is the per-audit reminder/escalation configuration.
type AuditThresholds struct {
	ReminderDays   int
	EscalationDays int
}

type WorkflowStage struct {
	Name     string
	Position int
}

type AuditReadRepository interface {
	ListFindings(ctx context.Context, filter FindingFilter) ([]Finding, error)
	GetFinding(ctx context.Context, findingID string) (Finding, error)
	ListActivity(ctx context.Context, findingID string) ([]ActivityEntry, error)
	ListComments(ctx context.Context, findingID string) ([]Comment, error)
	GetConflict(ctx context.Context, conflictID string) (ConflictRecord, error)
	ListConflicts(ctx context.Context, auditID string, includeResolved bool) ([]ConflictRecord, error)
	GetAuditThresholds(ctx context.Context, auditID string) (AuditThresholds, bool, error)
	ListAuditIDsWithOpenApprovals(ctx context.Context) ([]string, error)
	ListStages(ctx context.Context) ([]WorkflowStage, error)
}

type AuditRepository interface {
	AuditReadRepository
	CreateFinding(ctx context.Context, finding Finding) error
	SetApprovalStatus(ctx context.Context, findingID string, status string, updatedAt string) error
	SetFindingRemoved(ctx context.Context, findingID string, updatedAt string) error
	AppendActivity(ctx context.Context, input ActivityAppend) error
	AppendComment(ctx context.Context, input CommentAppend) error
	CreateConflict(ctx context.Context, record ConflictRecord) error
	ResolveConflict(ctx context.Context, conflictID string, resolution string, resolvedAt string) error
	SetAuditThresholds(ctx context.Context, auditID string, thresholds AuditThresholds) error
	ReplaceStages(ctx context.Context, stages []WorkflowStage) error
}

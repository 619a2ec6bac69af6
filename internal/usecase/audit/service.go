package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"voltaudit/internal/bootstrap/logging"
	domainaudit "voltaudit/internal/domain/audit"
	"voltaudit/internal/errs"
	"voltaudit/internal/ports"
)

var (
	errDescriptionRequired = errors.New("description is required")
	errCommentTextRequired = errors.New("comment text is required")
	errNegativeCost        = errors.New("estimated cost must be non-negative")
	errNegativeThreshold   = errors.New("thresholds must be >= 0")
)

// Service hosts the collaborative audit workflow: approval transitions,
// comments, the reminder sweep, and circuit conflict detection. The bus and
// the notification sink are injected capabilities; both are best-effort and
// never fail a committed mutation.
type Service struct {
	repo  ports.AuditRepository
	uow   ports.UnitOfWork
	cache ports.Cache
	bus   ports.EventBus
	sink  ports.NotificationSink

	defaults ports.AuditThresholds
	clock    func() time.Time
}

func NewService(
	repo ports.AuditRepository,
	uow ports.UnitOfWork,
	cache ports.Cache,
	bus ports.EventBus,
	sink ports.NotificationSink,
	defaults ports.AuditThresholds,
) *Service {
	if defaults.ReminderDays <= 0 {
		defaults.ReminderDays = 2
	}
	if defaults.EscalationDays <= 0 {
		defaults.EscalationDays = 5
	}
	return &Service{
		repo:     repo,
		uow:      uow,
		cache:    cache,
		bus:      bus,
		sink:     sink,
		defaults: defaults,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		s.clock = clock
	}
	return s
}

func (s *Service) guard(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return errors.New("audit repository is required")
	}
	if s.uow == nil {
		return errors.New("unit of work is required")
	}
	return nil
}

func (s *Service) nowString() string {
	return s.clock().Format(time.RFC3339Nano)
}

// publishBestEffort broadcasts after a committed mutation. Bus failures are
// logged and swallowed: local state is already durable and clients recover
// by full refresh.
func (s *Service) publishBestEffort(ctx context.Context, eventType domainaudit.EventType, auditID string, actor string, payload any) {
	if s.bus == nil {
		return
	}

	env, err := domainaudit.NewEnvelope(eventType, auditID, actor, payload)
	if err != nil {
		logging.Warn(ctx, "event payload not marshalled",
			slog.String("component", "usecase.audit"),
			slog.String("event_type", string(eventType)),
		)
		return
	}

	if err := s.bus.Publish(ctx, env); err != nil {
		logging.Warn(ctx, "event publish failed",
			slog.String("component", "usecase.audit"),
			slog.String("event_type", string(eventType)),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}

func (s *Service) notifyBestEffort(ctx context.Context, n ports.Notification) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Notify(ctx, n); err != nil {
		logging.Warn(ctx, "notification delivery failed",
			slog.String("component", "usecase.audit"),
			slog.String("finding_id", n.FindingID),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}

// FindingItem is the read model of one finding.
type FindingItem struct {
	FindingID      string
	AuditID        string
	Section        string
	Description    string
	Recommendation string
	Severity       string
	EstimatedCost  float64
	Status         string
	Assignee       string
	ApprovalStatus string
	CreatedAt      string
	UpdatedAt      string
}

// FindingDetail adds the append-only logs.
type FindingDetail struct {
	FindingItem
	Comments []CommentItem
	Activity []ActivityItem
}

type CommentItem struct {
	Author    string
	Text      string
	CreatedAt string
}

type ActivityItem struct {
	EntryID   uint64
	Action    string
	Actor     string
	Details   string
	CreatedAt string
}

func mapFindingItem(finding ports.Finding) FindingItem {
	return FindingItem{
		FindingID:      finding.FindingID,
		AuditID:        finding.AuditID,
		Section:        finding.Section,
		Description:    finding.Description,
		Recommendation: finding.Recommendation,
		Severity:       finding.Severity,
		EstimatedCost:  finding.EstimatedCost,
		Status:         finding.Status,
		Assignee:       derefString(finding.Assignee),
		ApprovalStatus: finding.ApprovalStatus,
		CreatedAt:      finding.CreatedAt,
		UpdatedAt:      finding.UpdatedAt,
	}
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

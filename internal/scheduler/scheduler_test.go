package scheduler

import (
	"context"
	"testing"

	usecaseaudit "voltaudit/internal/usecase/audit"
)

var noopService usecaseaudit.Service

type staticLister struct {
	auditIDs []string
}

func (l *staticLister) ListAuditIDsWithOpenApprovals(context.Context) ([]string, error) {
	return l.auditIDs, nil
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, &staticLister{}, ""); err == nil {
		t.Fatalf("nil service must be rejected")
	}
}

func TestNewDefaultsSpec(t *testing.T) {
	t.Parallel()

	s, err := New(&noopService, &staticLister{}, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.spec != "@every 3m" {
		t.Fatalf("spec = %q, want @every 3m", s.spec)
	}

	s, err = New(&noopService, &staticLister{}, "@every 30s")
	if err != nil {
		t.Fatalf("New(custom spec) error = %v", err)
	}
	if s.spec != "@every 30s" {
		t.Fatalf("spec = %q, want @every 30s", s.spec)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	t.Parallel()

	s, err := New(&noopService, &staticLister{}, "not a cron spec")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Fatalf("invalid cron spec must fail at Start")
	}
}

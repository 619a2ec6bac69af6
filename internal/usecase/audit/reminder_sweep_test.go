package audit

import (
	"context"
	"testing"
	"time"

	domainaudit "voltaudit/internal/domain/audit"
)

func pendingTestFinding(t *testing.T, env *testEnv, auditID, assignee string) FindingItem {
	t.Helper()
	item := createTestFinding(t, env, auditID, assignee)
	if err := env.svc.SetApprovalStatus(context.Background(), SetApprovalStatusInput{
		FindingID: item.FindingID,
		Next:      "Pending Review",
		Actor:     "auditor-1",
	}); err != nil {
		t.Fatalf("SetApprovalStatus() error = %v", err)
	}
	return item
}

func TestReminderSweepFiresReminderOnly(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	item := pendingTestFinding(t, env, "audit-1", "assignee-1")

	result, err := env.svc.ReminderSweep(ctx, SweepInput{
		AuditID: "audit-1",
		Now:     env.now.Add(2*24*time.Hour + time.Hour),
	})
	if err != nil {
		t.Fatalf("ReminderSweep() error = %v", err)
	}
	if len(result.Reminders) != 1 || result.Reminders[0].FindingID != item.FindingID {
		t.Fatalf("reminders = %+v, want exactly one for the finding", result.Reminders)
	}
	if len(result.Escalations) != 0 {
		t.Fatalf("escalations = %+v, want none before the escalation threshold", result.Escalations)
	}

	if events := env.bus.published(domainaudit.EventReminderDue); len(events) != 1 {
		t.Fatalf("reminderDue events = %d, want 1", len(events))
	}
}

func TestReminderSweepFiresBothIndependently(t *testing.T) {
	env := setupService(t)
	pendingTestFinding(t, env, "audit-1", "assignee-1")

	result, err := env.svc.ReminderSweep(context.Background(), SweepInput{
		AuditID: "audit-1",
		Now:     env.now.Add(5*24*time.Hour + time.Hour),
	})
	if err != nil {
		t.Fatalf("ReminderSweep() error = %v", err)
	}
	if len(result.Reminders) != 1 || len(result.Escalations) != 1 {
		t.Fatalf("reminders = %d, escalations = %d, want both to fire", len(result.Reminders), len(result.Escalations))
	}

	if events := env.bus.published(domainaudit.EventEscalationDue); len(events) != 1 {
		t.Fatalf("escalationDue events = %d, want 1", len(events))
	}
}

func TestReminderSweepBeforeThresholdIsQuiet(t *testing.T) {
	env := setupService(t)
	pendingTestFinding(t, env, "audit-1", "assignee-1")

	result, err := env.svc.ReminderSweep(context.Background(), SweepInput{
		AuditID: "audit-1",
		Now:     env.now.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("ReminderSweep() error = %v", err)
	}
	if len(result.Reminders) != 0 || len(result.Escalations) != 0 {
		t.Fatalf("sweep fired early: %+v", result)
	}
}

func TestReminderSweepIsIdempotent(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	pendingTestFinding(t, env, "audit-1", "assignee-1")

	now := env.now.Add(3 * 24 * time.Hour)
	first, err := env.svc.ReminderSweep(ctx, SweepInput{AuditID: "audit-1", Now: now})
	if err != nil {
		t.Fatalf("first sweep error = %v", err)
	}
	second, err := env.svc.ReminderSweep(ctx, SweepInput{AuditID: "audit-1", Now: now})
	if err != nil {
		t.Fatalf("second sweep error = %v", err)
	}
	if len(first.Reminders) != len(second.Reminders) || len(first.Escalations) != len(second.Escalations) {
		t.Fatalf("sweep not repeatable: first %+v, second %+v", first, second)
	}
}

func TestReminderSweepSkipsUnassignedAndSettled(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	pendingTestFinding(t, env, "audit-1", "")
	settled := pendingTestFinding(t, env, "audit-1", "assignee-2")
	if err := env.svc.SetApprovalStatus(ctx, SetApprovalStatusInput{
		FindingID: settled.FindingID, Next: "Rejected", Actor: "manager-1",
	}); err != nil {
		t.Fatalf("SetApprovalStatus(Rejected) error = %v", err)
	}

	result, err := env.svc.ReminderSweep(ctx, SweepInput{
		AuditID: "audit-1",
		Now:     env.now.Add(10 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("ReminderSweep() error = %v", err)
	}
	if len(result.Reminders) != 0 || len(result.Escalations) != 0 {
		t.Fatalf("unassigned or settled findings triggered notices: %+v", result)
	}
}

func TestReminderSweepHonorsPerAuditThresholds(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	pendingTestFinding(t, env, "audit-1", "assignee-1")

	if err := env.svc.SetAuditThresholds(ctx, SetThresholdsInput{
		AuditID:        "audit-1",
		ReminderDays:   7,
		EscalationDays: 14,
	}); err != nil {
		t.Fatalf("SetAuditThresholds() error = %v", err)
	}

	// Past the default thresholds but inside the override.
	result, err := env.svc.ReminderSweep(ctx, SweepInput{
		AuditID: "audit-1",
		Now:     env.now.Add(6 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("ReminderSweep() error = %v", err)
	}
	if len(result.Reminders) != 0 || len(result.Escalations) != 0 {
		t.Fatalf("override ignored: %+v", result)
	}

	result, err = env.svc.ReminderSweep(ctx, SweepInput{
		AuditID: "audit-1",
		Now:     env.now.Add(8 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("ReminderSweep() error = %v", err)
	}
	if len(result.Reminders) != 1 || len(result.Escalations) != 0 {
		t.Fatalf("override thresholds misapplied: %+v", result)
	}
}

func TestListAuditIDsWithOpenApprovals(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	pendingTestFinding(t, env, "audit-1", "assignee-1")
	pendingTestFinding(t, env, "audit-2", "assignee-2")
	createTestFinding(t, env, "audit-3", "assignee-3") // still Draft

	auditIDs, err := env.repo.ListAuditIDsWithOpenApprovals(ctx)
	if err != nil {
		t.Fatalf("ListAuditIDsWithOpenApprovals() error = %v", err)
	}
	if len(auditIDs) != 2 {
		t.Fatalf("audit ids = %v, want audit-1 and audit-2", auditIDs)
	}
}

package audit

import (
	"context"
	"errors"
	"testing"

	domainaudit "voltaudit/internal/domain/audit"
	"voltaudit/internal/domain/circuit"
)

func floatPtr(v float64) *float64 { return &v }

func TestCheckCircuitFirstSnapshotIsQuiet(t *testing.T) {
	env := setupService(t)

	result, err := env.svc.CheckCircuit(context.Background(), CheckCircuitInput{
		AuditID: "audit-1",
		Source:  circuit.SourceVoltageDrop,
		Circuit: circuit.UnifiedCircuitData{ID: "c1", VoltageDropPercent: floatPtr(3.0)},
		Actor:   "engineer-1",
	})
	if err != nil {
		t.Fatalf("CheckCircuit() error = %v", err)
	}
	if result.Conflict != nil {
		t.Fatalf("single-sided snapshot produced a conflict: %+v", result.Conflict)
	}
}

func TestCheckCircuitDetectsAndPersistsConflict(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	if _, err := env.svc.CheckCircuit(ctx, CheckCircuitInput{
		AuditID: "audit-1",
		Source:  circuit.SourceVoltageDrop,
		Circuit: circuit.UnifiedCircuitData{ID: "c1", VoltageDropPercent: floatPtr(3.0)},
	}); err != nil {
		t.Fatalf("first CheckCircuit() error = %v", err)
	}

	result, err := env.svc.CheckCircuit(ctx, CheckCircuitInput{
		AuditID:        "audit-1",
		Source:         circuit.SourceScheduleOfLoads,
		Circuit:        circuit.UnifiedCircuitData{ID: "c1", VoltageDropPercent: floatPtr(4.2)},
		LoadScheduleID: "ls-1",
		LoadItemID:     "item-7",
		Actor:          "engineer-2",
	})
	if err != nil {
		t.Fatalf("second CheckCircuit() error = %v", err)
	}
	if result.Conflict == nil {
		t.Fatalf("diverging snapshots must produce a conflict")
	}
	if result.Conflict.Severity != circuit.SeverityCritical {
		t.Fatalf("severity = %q, want critical", result.Conflict.Severity)
	}

	stored, err := env.svc.ListConflicts(ctx, "audit-1", false)
	if err != nil {
		t.Fatalf("ListConflicts() error = %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored conflicts = %d, want 1", len(stored))
	}
	if stored[0].LoadScheduleID != "ls-1" || stored[0].LoadItemID != "item-7" {
		t.Fatalf("provenance = %+v", stored[0])
	}
	if stored[0].ComparisonsJSON == "" {
		t.Fatalf("comparisons not persisted")
	}

	if events := env.bus.published(domainaudit.EventConflictDetected); len(events) != 1 {
		t.Fatalf("conflictDetected events = %d, want 1", len(events))
	}
}

func TestCheckCircuitAgreementProducesNothing(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	snapshot := circuit.UnifiedCircuitData{ID: "c1", VoltageDropPercent: floatPtr(2.5)}
	if _, err := env.svc.CheckCircuit(ctx, CheckCircuitInput{
		AuditID: "audit-1", Source: circuit.SourceVoltageDrop, Circuit: snapshot,
	}); err != nil {
		t.Fatalf("first CheckCircuit() error = %v", err)
	}

	result, err := env.svc.CheckCircuit(ctx, CheckCircuitInput{
		AuditID: "audit-1", Source: circuit.SourceScheduleOfLoads, Circuit: snapshot,
	})
	if err != nil {
		t.Fatalf("second CheckCircuit() error = %v", err)
	}
	if result.Conflict != nil {
		t.Fatalf("matching snapshots produced a conflict: %+v", result.Conflict)
	}

	stored, err := env.svc.ListConflicts(ctx, "audit-1", true)
	if err != nil {
		t.Fatalf("ListConflicts() error = %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("stored conflicts = %d, want none", len(stored))
	}
}

func TestCheckCircuitRejectsUnknownSource(t *testing.T) {
	env := setupService(t)

	if _, err := env.svc.CheckCircuit(context.Background(), CheckCircuitInput{
		AuditID: "audit-1",
		Source:  circuit.Source("spreadsheet"),
		Circuit: circuit.UnifiedCircuitData{ID: "c1"},
	}); !errors.Is(err, errUnknownSource) {
		t.Fatalf("error = %v, want errUnknownSource", err)
	}
}

func TestResolveConflict(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	if _, err := env.svc.CheckCircuit(ctx, CheckCircuitInput{
		AuditID: "audit-1", Source: circuit.SourceVoltageDrop,
		Circuit: circuit.UnifiedCircuitData{ID: "c1", VoltageDropPercent: floatPtr(3.0)},
	}); err != nil {
		t.Fatalf("CheckCircuit() error = %v", err)
	}
	result, err := env.svc.CheckCircuit(ctx, CheckCircuitInput{
		AuditID: "audit-1", Source: circuit.SourceScheduleOfLoads,
		Circuit: circuit.UnifiedCircuitData{ID: "c1", VoltageDropPercent: floatPtr(4.2)},
	})
	if err != nil || result.Conflict == nil {
		t.Fatalf("CheckCircuit() = %+v, %v", result, err)
	}

	if err := env.svc.ResolveConflict(ctx, ResolveConflictInput{
		ConflictID: result.Conflict.ID,
		Resolution: "voltage-drop",
		Actor:      "engineer-1",
	}); err != nil {
		t.Fatalf("ResolveConflict() error = %v", err)
	}

	unresolved, err := env.svc.ListConflicts(ctx, "audit-1", false)
	if err != nil {
		t.Fatalf("ListConflicts(unresolved) error = %v", err)
	}
	if len(unresolved) != 0 {
		t.Fatalf("unresolved conflicts = %d, want 0", len(unresolved))
	}

	all, err := env.svc.ListConflicts(ctx, "audit-1", true)
	if err != nil {
		t.Fatalf("ListConflicts(all) error = %v", err)
	}
	if len(all) != 1 || !all[0].Resolved || all[0].Resolution != "voltage-drop" {
		t.Fatalf("resolved record = %+v", all)
	}
	if all[0].ResolvedAt == nil {
		t.Fatalf("resolvedAt not stamped")
	}

	if events := env.bus.published(domainaudit.EventConflictResolved); len(events) != 1 {
		t.Fatalf("conflictResolved events = %d, want 1", len(events))
	}

	// A second resolution attempt is rejected.
	if err := env.svc.ResolveConflict(ctx, ResolveConflictInput{
		ConflictID: result.Conflict.ID,
		Resolution: "manual",
		Actor:      "engineer-2",
	}); !errors.Is(err, errAlreadyResolved) {
		t.Fatalf("second resolution error = %v, want errAlreadyResolved", err)
	}
}

func TestResolveConflictValidation(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	if err := env.svc.ResolveConflict(ctx, ResolveConflictInput{
		ConflictID: "", Resolution: "manual",
	}); !errors.Is(err, errConflictIDRequired) {
		t.Fatalf("blank id error = %v, want errConflictIDRequired", err)
	}
	if err := env.svc.ResolveConflict(ctx, ResolveConflictInput{
		ConflictID: "x", Resolution: "coin-flip",
	}); !errors.Is(err, circuit.ErrInvalidResolution) {
		t.Fatalf("bad resolution error = %v, want ErrInvalidResolution", err)
	}
}

package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	domainaudit "voltaudit/internal/domain/audit"
	"voltaudit/internal/domain/circuit"
	"voltaudit/internal/ports"
)

type CheckCircuitInput struct {
	AuditID        string
	Source         circuit.Source
	Circuit        circuit.UnifiedCircuitData
	LoadScheduleID string
	LoadItemID     string
	Actor          string
}

type CheckCircuitResult struct {
	// Conflict is nil when the two views agree or only one view is known.
	Conflict *circuit.Conflict
}

var errUnknownSource = errors.New("unknown circuit source")

// CheckCircuit records the calling calculator's snapshot of a circuit and
// compares it against the other calculator's last-known snapshot of the same
// circuit id. A divergence is surfaced as a persisted conflict record and a
// conflictDetected event; source data is never mutated.
func (s *Service) CheckCircuit(ctx context.Context, input CheckCircuitInput) (CheckCircuitResult, error) {
	if err := s.guard(ctx); err != nil {
		return CheckCircuitResult{}, err
	}
	if s.cache == nil {
		return CheckCircuitResult{}, errors.New("snapshot cache is required")
	}

	auditID := strings.TrimSpace(input.AuditID)
	if auditID == "" {
		return CheckCircuitResult{}, domainaudit.ErrAuditIDRequired
	}
	circuitID := strings.TrimSpace(input.Circuit.ID)
	if circuitID == "" {
		return CheckCircuitResult{}, circuit.ErrCircuitIDRequired
	}

	var other circuit.Source
	switch input.Source {
	case circuit.SourceVoltageDrop:
		other = circuit.SourceScheduleOfLoads
	case circuit.SourceScheduleOfLoads:
		other = circuit.SourceVoltageDrop
	default:
		return CheckCircuitResult{}, errUnknownSource
	}

	if err := s.storeSnapshot(ctx, auditID, input.Source, input.Circuit); err != nil {
		return CheckCircuitResult{}, err
	}

	counterpart, found, err := s.loadSnapshot(ctx, auditID, other, circuitID)
	if err != nil {
		return CheckCircuitResult{}, err
	}
	if !found {
		return CheckCircuitResult{}, nil
	}

	detectInput := circuit.DetectInput{
		LoadScheduleID: strings.TrimSpace(input.LoadScheduleID),
		LoadItemID:     strings.TrimSpace(input.LoadItemID),
		Now:            s.clock(),
	}
	if input.Source == circuit.SourceVoltageDrop {
		detectInput.VoltageDrop = input.Circuit
		detectInput.ScheduleOfLoads = counterpart
	} else {
		detectInput.VoltageDrop = counterpart
		detectInput.ScheduleOfLoads = input.Circuit
	}

	detected, flagged := circuit.Detect(detectInput)
	if !flagged {
		return CheckCircuitResult{}, nil
	}

	comparisonsJSON, err := json.Marshal(detected.Comparisons)
	if err != nil {
		return CheckCircuitResult{}, err
	}

	record := ports.ConflictRecord{
		ConflictID:      detected.ID,
		AuditID:         auditID,
		CircuitID:       detected.CircuitID,
		LoadScheduleID:  detected.LoadScheduleID,
		LoadItemID:      detected.LoadItemID,
		Type:            detected.Type,
		Severity:        string(detected.Severity),
		DetectedAt:      detected.DetectedAt.Format(time.RFC3339Nano),
		ComparisonsJSON: string(comparisonsJSON),
	}
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.CreateConflict(txCtx, record)
	}); err != nil {
		return CheckCircuitResult{}, err
	}

	s.publishBestEffort(ctx, domainaudit.EventConflictDetected, auditID, strings.TrimSpace(input.Actor), map[string]string{
		"conflictId": detected.ID,
		"circuitId":  detected.CircuitID,
		"severity":   string(detected.Severity),
		"type":       detected.Type,
	})

	return CheckCircuitResult{Conflict: &detected}, nil
}

func snapshotKey(auditID string, source circuit.Source, circuitID string) string {
	return "circuit:" + auditID + ":" + string(source) + ":" + circuitID
}

func (s *Service) storeSnapshot(ctx context.Context, auditID string, source circuit.Source, data circuit.UnifiedCircuitData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, snapshotKey(auditID, source, data.ID), string(raw), 0)
}

func (s *Service) loadSnapshot(ctx context.Context, auditID string, source circuit.Source, circuitID string) (circuit.UnifiedCircuitData, bool, error) {
	raw, found, err := s.cache.Get(ctx, snapshotKey(auditID, source, circuitID))
	if err != nil || !found {
		return circuit.UnifiedCircuitData{}, false, err
	}

	var data circuit.UnifiedCircuitData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return circuit.UnifiedCircuitData{}, false, err
	}
	return data, true, nil
}

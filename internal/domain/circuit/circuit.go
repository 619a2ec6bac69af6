// Package circuit detects divergence between the two independently maintained
// representations of one electrical circuit: the voltage-drop calculator's
// view and the schedule-of-loads view. It only classifies and records;
// applying a resolution back to source data is the caller's concern.
package circuit

import (
	"fmt"
	"strings"
	"time"
)

// Source names which calculator produced a circuit snapshot.
type Source string

const (
	SourceVoltageDrop     Source = "voltage-drop"
	SourceScheduleOfLoads Source = "schedule-of-loads"
)

// UnifiedCircuitData is the shared circuit shape both calculators can emit.
// Two values with the same ID describe the same physical circuit; they are
// never merged automatically. Optional properties are pointers so an absent
// value can be skipped during comparison.
type UnifiedCircuitData struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name,omitempty"`
	ConductorSize      *string   `json:"conductorSize,omitempty"`
	ConductorLength    *float64  `json:"conductorLength,omitempty"`
	VoltageDropPercent *float64  `json:"voltageDropPercent,omitempty"`
	CircuitBreaker     *string   `json:"circuitBreaker,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

// ConflictSeverity ranks a detected divergence.
type ConflictSeverity string

const (
	SeverityLow      ConflictSeverity = "low"
	SeverityMedium   ConflictSeverity = "medium"
	SeverityHigh     ConflictSeverity = "high"
	SeverityCritical ConflictSeverity = "critical"
)

var severityRank = map[ConflictSeverity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// MaxSeverity returns the higher-ranked of two severities.
func MaxSeverity(a, b ConflictSeverity) ConflictSeverity {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

// PropertyComparison is one property pair examined by the detector. It is
// pure and derived; it is never persisted apart from its parent conflict.
type PropertyComparison struct {
	Property             string           `json:"property"`
	VoltageDropValue     string           `json:"voltageDropValue"`
	ScheduleOfLoadsValue string           `json:"scheduleOfLoadsValue"`
	DisplayName          string           `json:"displayName"`
	Unit                 string           `json:"unit,omitempty"`
	Conflict             bool             `json:"conflict"`
	Severity             ConflictSeverity `json:"severity"`
	Recommendation       string           `json:"recommendation,omitempty"`
}

// Resolution is how a surfaced conflict was settled.
type Resolution string

const (
	ResolutionVoltageDrop     Resolution = "voltage-drop"
	ResolutionScheduleOfLoads Resolution = "schedule-of-loads"
	ResolutionManual          Resolution = "manual"
	ResolutionMerge           Resolution = "merge"
)

var allowedResolutions = map[Resolution]struct{}{
	ResolutionVoltageDrop:     {},
	ResolutionScheduleOfLoads: {},
	ResolutionManual:          {},
	ResolutionMerge:           {},
}

func NormalizeResolution(raw string) (Resolution, error) {
	resolution := Resolution(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := allowedResolutions[resolution]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidResolution, raw)
	}
	return resolution, nil
}

// Conflict is a materialized divergence record. Once resolved it is immutable
// except for the resolution fields; an unresolved conflict is a normal,
// persistent state rather than an error.
type Conflict struct {
	ID             string               `json:"id"`
	CircuitID      string               `json:"circuitId"`
	LoadScheduleID string               `json:"loadScheduleId,omitempty"`
	LoadItemID     string               `json:"loadItemId,omitempty"`
	Type           string               `json:"type"`
	Severity       ConflictSeverity     `json:"severity"`
	DetectedAt     time.Time            `json:"detectedAt"`
	Comparisons    []PropertyComparison `json:"propertyComparisons"`
	Resolved       bool                 `json:"resolved"`
	ResolvedAt     *time.Time           `json:"resolvedAt,omitempty"`
	Resolution     Resolution           `json:"resolution,omitempty"`
}

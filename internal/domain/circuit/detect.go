package circuit

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ConflictTypeMultiple tags a conflict touching more than one property.
const ConflictTypeMultiple = "multiple"

// ComparisonKind selects the comparison rule for a property.
type ComparisonKind int

const (
	// KindNumeric compares by absolute difference against a noise floor,
	// with severity graded by fixed thresholds.
	KindNumeric ComparisonKind = iota
	// KindCategorical compares by exact string equality.
	KindCategorical
)

// ComparisonSpec declares one tracked property pair. The table is data so new
// properties can be added without touching the detection loop.
type ComparisonSpec struct {
	Property    string
	DisplayName string
	Unit        string
	Kind        ComparisonKind
	TypeTag     string

	// NoiseFloor and the severity thresholds apply to KindNumeric only.
	NoiseFloor        float64
	CriticalThreshold float64
	HighThreshold     float64
	MediumThreshold   float64

	// CategoricalSeverity applies to KindCategorical conflicts.
	CategoricalSeverity ConflictSeverity

	// Recommendation is static policy, not computed. The current policy of
	// preferring the voltage-drop calculator's value is carried over as-is.
	Recommendation string

	numeric     func(UnifiedCircuitData) *float64
	categorical func(UnifiedCircuitData) *string
}

// DefaultComparisons is the tracked property set.
var DefaultComparisons = []ComparisonSpec{
	{
		Property:          "voltageDropPercent",
		DisplayName:       "Voltage Drop",
		Unit:              "%",
		Kind:              KindNumeric,
		TypeTag:           "voltage-drop",
		NoiseFloor:        0.1,
		CriticalThreshold: 1.0,
		HighThreshold:     0.5,
		MediumThreshold:   0.2,
		Recommendation:    "Prefer the voltage-drop calculator's value",
		numeric:           func(c UnifiedCircuitData) *float64 { return c.VoltageDropPercent },
	},
	{
		Property:            "conductorSize",
		DisplayName:         "Conductor Size",
		Kind:                KindCategorical,
		TypeTag:             "conductor-size",
		CategoricalSeverity: SeverityHigh,
		Recommendation:      "Prefer the voltage-drop calculator's value",
		categorical:         func(c UnifiedCircuitData) *string { return c.ConductorSize },
	},
}

// Compare evaluates every tracked property of the two views. Properties
// absent on either side are skipped entirely.
func Compare(vd, sol UnifiedCircuitData) []PropertyComparison {
	out := make([]PropertyComparison, 0, len(DefaultComparisons))

	for _, spec := range DefaultComparisons {
		switch spec.Kind {
		case KindNumeric:
			a, b := spec.numeric(vd), spec.numeric(sol)
			if a == nil || b == nil {
				continue
			}
			out = append(out, spec.compareNumeric(*a, *b))
		case KindCategorical:
			a, b := spec.categorical(vd), spec.categorical(sol)
			if a == nil || b == nil {
				continue
			}
			out = append(out, spec.compareCategorical(*a, *b))
		}
	}

	return out
}

func (spec ComparisonSpec) compareNumeric(a, b float64) PropertyComparison {
	diff := math.Abs(a - b)

	severity := SeverityLow
	switch {
	case diff > spec.CriticalThreshold:
		severity = SeverityCritical
	case diff > spec.HighThreshold:
		severity = SeverityHigh
	case diff > spec.MediumThreshold:
		severity = SeverityMedium
	}

	comparison := PropertyComparison{
		Property:             spec.Property,
		VoltageDropValue:     formatFloat(a),
		ScheduleOfLoadsValue: formatFloat(b),
		DisplayName:          spec.DisplayName,
		Unit:                 spec.Unit,
		Conflict:             diff > spec.NoiseFloor,
		Severity:             severity,
	}
	if comparison.Conflict {
		comparison.Recommendation = spec.Recommendation
	}
	return comparison
}

func (spec ComparisonSpec) compareCategorical(a, b string) PropertyComparison {
	comparison := PropertyComparison{
		Property:             spec.Property,
		VoltageDropValue:     a,
		ScheduleOfLoadsValue: b,
		DisplayName:          spec.DisplayName,
		Unit:                 spec.Unit,
		Conflict:             a != b,
		Severity:             SeverityLow,
	}
	if comparison.Conflict {
		comparison.Severity = spec.CategoricalSeverity
		comparison.Recommendation = spec.Recommendation
	}
	return comparison
}

// DetectInput carries the optional provenance of the schedule-of-loads side.
type DetectInput struct {
	VoltageDrop     UnifiedCircuitData
	ScheduleOfLoads UnifiedCircuitData
	LoadScheduleID  string
	LoadItemID      string
	Now             time.Time
}

// Detect compares the two views and materializes a Conflict only when at
// least one property comparison is flagged. The conflict's severity is the
// maximum across flagged comparisons; its type is the single conflicting
// property's tag, or "multiple".
func Detect(input DetectInput) (Conflict, bool) {
	comparisons := Compare(input.VoltageDrop, input.ScheduleOfLoads)

	flagged := make([]PropertyComparison, 0, len(comparisons))
	for _, comparison := range comparisons {
		if comparison.Conflict {
			flagged = append(flagged, comparison)
		}
	}
	if len(flagged) == 0 {
		return Conflict{}, false
	}

	conflictType := ConflictTypeMultiple
	if len(flagged) == 1 {
		conflictType = typeTagFor(flagged[0].Property)
	}

	severity := SeverityLow
	for _, comparison := range flagged {
		severity = MaxSeverity(severity, comparison.Severity)
	}

	now := input.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	return Conflict{
		ID:             uuid.NewString(),
		CircuitID:      input.VoltageDrop.ID,
		LoadScheduleID: input.LoadScheduleID,
		LoadItemID:     input.LoadItemID,
		Type:           conflictType,
		Severity:       severity,
		DetectedAt:     now,
		Comparisons:    comparisons,
		Resolved:       false,
	}, true
}

func typeTagFor(property string) string {
	for _, spec := range DefaultComparisons {
		if spec.Property == property {
			return spec.TypeTag
		}
	}
	return property
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}

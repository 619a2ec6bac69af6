package audit

import (
	"fmt"
	"strings"
)

// Section is the building system a finding belongs to.
type Section string

const (
	SectionLighting Section = "lighting"
	SectionHVAC     Section = "hvac"
	SectionEnvelope Section = "envelope"
)

// FindingSeverity rates the observed deficiency.
type FindingSeverity string

const (
	FindingSeverityLow      FindingSeverity = "Low"
	FindingSeverityMedium   FindingSeverity = "Medium"
	FindingSeverityHigh     FindingSeverity = "High"
	FindingSeverityCritical FindingSeverity = "Critical"
)

// FindingStatus is the remediation progress, independent of approval state.
type FindingStatus string

const (
	FindingOpen       FindingStatus = "Open"
	FindingInProgress FindingStatus = "In Progress"
	FindingResolved   FindingStatus = "Resolved"
)

var allowedSections = map[Section]struct{}{
	SectionLighting: {},
	SectionHVAC:     {},
	SectionEnvelope: {},
}

var allowedFindingSeverities = map[FindingSeverity]struct{}{
	FindingSeverityLow:      {},
	FindingSeverityMedium:   {},
	FindingSeverityHigh:     {},
	FindingSeverityCritical: {},
}

func NormalizeSection(raw string) (Section, error) {
	section := Section(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := allowedSections[section]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidSection, raw)
	}
	return section, nil
}

func NormalizeFindingSeverity(raw string) (FindingSeverity, error) {
	severity := FindingSeverity(strings.TrimSpace(raw))
	if _, ok := allowedFindingSeverities[severity]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidFindingSeverity, raw)
	}
	return severity, nil
}

package audit

import (
	"fmt"
	"strings"
)

// ApprovalStatus is the review lifecycle position of a finding.
type ApprovalStatus string

const (
	StatusDraft           ApprovalStatus = "Draft"
	StatusPendingReview   ApprovalStatus = "Pending Review"
	StatusManagerApproval ApprovalStatus = "Manager Approval"
	StatusFinalApproval   ApprovalStatus = "Final Approval"
	StatusApproved        ApprovalStatus = "Approved"
	StatusRejected        ApprovalStatus = "Rejected"
)

// ForwardPath is the canonical review sequence before a terminal decision.
var ForwardPath = []ApprovalStatus{
	StatusDraft,
	StatusPendingReview,
	StatusManagerApproval,
	StatusFinalApproval,
}

var allowedStatuses = map[ApprovalStatus]struct{}{
	StatusDraft:           {},
	StatusPendingReview:   {},
	StatusManagerApproval: {},
	StatusFinalApproval:   {},
	StatusApproved:        {},
	StatusRejected:        {},
}

// transitions is the declared graph. Role gating is the caller's concern;
// the workflow core applies and logs whatever transition is requested, and
// this table exists for validation and UI hints, not enforcement.
var transitions = map[ApprovalStatus][]ApprovalStatus{
	StatusDraft:           {StatusPendingReview},
	StatusPendingReview:   {StatusManagerApproval, StatusRejected},
	StatusManagerApproval: {StatusFinalApproval, StatusRejected},
	StatusFinalApproval:   {StatusApproved, StatusRejected},
	StatusApproved:        {},
	StatusRejected:        {},
}

// NormalizeApprovalStatus validates a raw status string.
func NormalizeApprovalStatus(raw string) (ApprovalStatus, error) {
	trimmed := ApprovalStatus(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", ErrApprovalStatusRequired
	}
	if _, ok := allowedStatuses[trimmed]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidApprovalStatus, raw)
	}
	return trimmed, nil
}

// IsTerminal reports whether no further transition is defined from status.
func IsTerminal(status ApprovalStatus) bool {
	return status == StatusApproved || status == StatusRejected
}

// CanTransition reports whether next is a declared forward edge from current.
// Same-state transitions are always permitted: re-applying a status is a
// logged no-op-with-audit-trail, not an error.
func CanTransition(current, next ApprovalStatus) bool {
	if current == next {
		return true
	}
	for _, candidate := range transitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// NotificationSeverity classifies assignee notifications.
type NotificationSeverity string

const (
	SeverityInfo    NotificationSeverity = "info"
	SeveritySuccess NotificationSeverity = "success"
	SeverityWarning NotificationSeverity = "warning"
	SeverityError   NotificationSeverity = "error"
)

// NotificationSeverityFor maps a transition target to the severity of the
// assignee notification it produces.
func NotificationSeverityFor(next ApprovalStatus) NotificationSeverity {
	switch next {
	case StatusApproved:
		return SeveritySuccess
	case StatusRejected:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

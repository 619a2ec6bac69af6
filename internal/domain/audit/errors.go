package audit

import "errors"

var (
	ErrApprovalStatusRequired = errors.New("approval status is required")
	ErrInvalidApprovalStatus  = errors.New("invalid approval status")
	ErrInvalidSection         = errors.New("invalid finding section")
	ErrInvalidFindingSeverity = errors.New("invalid finding severity")
	ErrInvalidPresenceStatus  = errors.New("invalid presence status")

	ErrAuditIDRequired   = errors.New("audit id is required")
	ErrFindingIDRequired = errors.New("finding id is required")
	ErrActorRequired     = errors.New("actor is required")
)

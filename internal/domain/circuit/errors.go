package circuit

import "errors"

var (
	ErrInvalidResolution = errors.New("invalid conflict resolution")
	ErrCircuitIDRequired = errors.New("circuit id is required")
	ErrCircuitIDMismatch = errors.New("circuit ids do not refer to the same circuit")
)

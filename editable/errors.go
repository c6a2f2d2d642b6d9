package editable

import "errors"

// Common errors returned by the editable package.
var (
	// ErrUnsupportedHostVersion is returned by Attach when the host table is
	// older than MinHostVersion.
	ErrUnsupportedHostVersion = errors.New("unsupported host table version")

	// ErrValidationFailed is returned when the validator rejects the values of
	// the open session. The session stays open.
	ErrValidationFailed = errors.New("validation failed")

	// ErrNoTable is returned when a required host table is nil.
	ErrNoTable = errors.New("table is nil")

	// ErrInvalidRow is returned when a row index is out of range.
	ErrInvalidRow = errors.New("invalid row index")

	// ErrInvalidColumn is returned when a column index is out of range.
	ErrInvalidColumn = errors.New("invalid column index")
)

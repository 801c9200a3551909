package angle

import "errors"

// Sentinel kinds for angle errors. These allow errors.Is/As from callers.
var (
	// ErrInvalidUnit marks an angle value supplied without resolvable
	// unit or format information.
	ErrInvalidUnit = errors.New("invalid angle unit")
)

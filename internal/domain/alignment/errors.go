package alignment

import "errors"

// Sentinel kinds for alignment errors.
var (
	// ErrSingular marks a calibration star pair whose correction system
	// has no unique solution.
	ErrSingular = errors.New("singular alignment configuration")
)

package frame

import "errors"

// Sentinel kinds for frame errors.
var (
	// ErrTransform marks a degenerate geometry that prevents a
	// well-defined rotation result.
	ErrTransform = errors.New("coordinate transform failed")
)

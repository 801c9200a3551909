package service

import "errors"

// Sentinel kinds for session service errors.
var (
	// ErrCalibrationIncomplete marks an operation that needs a first
	// calibration star before it can run.
	ErrCalibrationIncomplete = errors.New("calibration incomplete")

	// ErrNotAligned marks an operation that needs a solved offset.
	ErrNotAligned = errors.New("session not aligned")
)

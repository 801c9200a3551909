package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// Request validation causes, wrapped under ErrBadRequest.
var (
	errBadOrder      = errors.New(`order must be "first" or "second"`)
	errMissingError  = errors.New("second star requires err_ra and err_dec")
	errMissingTime   = errors.New("missing time")
	errMissingTarget = errors.New("target requires alt+az or ra+dec")
)

// NewKind returns a sentinel error annotated with the operation it
// occurred in.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind attaches both a sentinel kind and the underlying cause.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// Wrap annotates an error with the operation it occurred in.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// Package repository defines the alignment session store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/telescopium/polaralign/internal/domain/alignment"
	"github.com/telescopium/polaralign/internal/domain/angle"
	"github.com/telescopium/polaralign/internal/domain/coords"
	"github.com/telescopium/polaralign/internal/domain/site"
)

// Session holds the state of one alignment session as it accumulates
// inputs from the mount. Every field is a value; a session is replaced
// wholesale on update, never mutated in place.
type Session struct {
	ID   string
	Site site.Site

	// Calibration inputs, nil until supplied.
	FirstStar  *coords.Equatorial
	SecondStar *coords.Equatorial
	ErrRA      angle.Angle
	ErrDec     angle.Angle

	// Solved outputs, nil until the second star lands.
	Matrix *alignment.Matrix
	Offset *alignment.Offset

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Aligned reports whether the session has a solved offset.
func (s Session) Aligned() bool {
	return s.Matrix != nil && s.Offset != nil
}

// Store provides access to alignment session state.
type Store interface {
	// Create inserts a new session. Returns ErrExists on a duplicate id.
	Create(ctx context.Context, s Session) error

	// Get returns the session for id. Returns ErrNotFound if unknown.
	Get(ctx context.Context, id string) (Session, error)

	// Put replaces the session for s.ID. Returns ErrNotFound if unknown.
	Put(ctx context.Context, s Session) error

	// Delete removes the session for id. Returns ErrNotFound if unknown.
	Delete(ctx context.Context, id string) error

	// Count returns the number of sessions tracked in the store.
	Count(ctx context.Context) int
}

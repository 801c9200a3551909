// Package service provides the alignment session service that implements
// the dependencies required by the HTTP API.
//
// A session collects the inputs of one two-star calibration run: the
// observing site, the first centered star, and the second star together
// with its measured right ascension/declination error. The moment the
// second star lands, the service solves the correction matrix, projects
// the error into an altitude/azimuth offset and stores both on the
// session. Targets can then be transformed into the session's offset
// frame. All computation is pure; the only state is the session record.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	repository "github.com/telescopium/polaralign/internal/adapters/repository"
	"github.com/telescopium/polaralign/internal/domain/alignment"
	"github.com/telescopium/polaralign/internal/domain/angle"
	"github.com/telescopium/polaralign/internal/domain/coords"
	"github.com/telescopium/polaralign/internal/domain/frame"
	"github.com/telescopium/polaralign/internal/domain/site"
	"github.com/telescopium/polaralign/pkg/logger"
	"github.com/telescopium/polaralign/pkg/metrics"
)

const nanosecondsPerMillisecond = 1e6

// Service implements the API dependencies for the alignment system.
type Service struct {
	mu sync.Mutex

	sessions repository.Store

	// Configuration
	defaultSite site.Site
	epsilon     float64

	// State
	started bool

	// Logging
	logger logger.Logger
	clock  func() time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets a custom session store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.sessions = store
		}
	}
}

// WithDefaultSite sets the site used for sessions created without one.
func WithDefaultSite(st site.Site) Option {
	return func(s *Service) {
		s.defaultSite = st
	}
}

// WithEpsilon sets the singularity threshold passed to the solver.
func WithEpsilon(eps float64) Option {
	return func(s *Service) {
		if eps > 0 {
			s.epsilon = eps
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		defaultSite: site.LaSerena(),
		clock:       func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.sessions == nil {
		s.sessions = repository.NewMemStore(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "alignment service started",
		logger.String("default_site", s.defaultSite.String()))
	return nil
}

// Stop releases service resources. Sessions are transient and dropped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
}

// CreateSession opens a new alignment session. A nil site selects the
// configured default.
func (s *Service) CreateSession(ctx context.Context, st *site.Site) (repository.Session, error) {
	observing := s.defaultSite
	if st != nil {
		observing = *st
	}

	now := s.clock()
	sess := repository.Session{
		ID:        uuid.NewString(),
		Site:      observing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return repository.Session{}, fmt.Errorf("create session: %w", err)
	}
	metrics.RecordSessionCreated()
	s.logger.Info(ctx, "session created",
		logger.String("session_id", sess.ID),
		logger.String("site", observing.String()))
	return sess, nil
}

// Session returns the current state of a session.
func (s *Service) Session(ctx context.Context, id string) (repository.Session, error) {
	return s.sessions.Get(ctx, id)
}

// DeleteSession removes a session.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

// SetSite replaces the session's observing site. Any calibration state is
// discarded: the correction matrix is derived from the site latitude, so
// a site change invalidates stars and offset alike.
func (s *Service) SetSite(ctx context.Context, id string, st site.Site) (repository.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return repository.Session{}, err
	}

	sess.Site = st
	sess.FirstStar = nil
	sess.SecondStar = nil
	sess.ErrRA = 0
	sess.ErrDec = 0
	sess.Matrix = nil
	sess.Offset = nil
	sess.UpdatedAt = s.clock()

	if err := s.sessions.Put(ctx, sess); err != nil {
		return repository.Session{}, err
	}
	s.logger.Info(ctx, "session site updated",
		logger.String("session_id", id),
		logger.String("site", st.String()))
	return sess, nil
}

// RecordFirstStar stores the first calibration star (hour angle and
// declination) and supersedes any previous calibration.
func (s *Service) RecordFirstStar(ctx context.Context, id string, star coords.Equatorial) (repository.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return repository.Session{}, err
	}

	sess.FirstStar = &star
	sess.SecondStar = nil
	sess.ErrRA = 0
	sess.ErrDec = 0
	sess.Matrix = nil
	sess.Offset = nil
	sess.UpdatedAt = s.clock()

	if err := s.sessions.Put(ctx, sess); err != nil {
		return repository.Session{}, err
	}
	s.logger.Info(ctx, "first calibration star recorded",
		logger.String("session_id", id),
		logger.Float64("ra_hour", star.RA.Hour()),
		logger.Float64("dec_deg", star.Dec.Deg()))
	return sess, nil
}

// RecordSecondStar stores the second calibration star together with the
// pointing error measured on it, then solves the correction matrix and
// projects the error into the session's altitude/azimuth offset. It fails
// with ErrCalibrationIncomplete when no first star has been recorded and
// with alignment.ErrSingular when the star pair cannot constrain the
// alignment; in the latter case the caller must calibrate on a different
// pair.
func (s *Service) RecordSecondStar(ctx context.Context, id string, star coords.Equatorial, errRA, errDec angle.Angle) (repository.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return repository.Session{}, err
	}
	if sess.FirstStar == nil {
		return repository.Session{}, fmt.Errorf("%w: no first star recorded", ErrCalibrationIncomplete)
	}

	var opts []alignment.Option
	if s.epsilon > 0 {
		opts = append(opts, alignment.WithEpsilon(s.epsilon))
	}

	start := time.Now()
	metrics.RecordSolve()
	matrix, err := alignment.Solve(sess.Site.Latitude, *sess.FirstStar, star, opts...)
	metrics.RecordSolveDuration(float64(time.Since(start).Nanoseconds()) / nanosecondsPerMillisecond)
	if err != nil {
		if errors.Is(err, alignment.ErrSingular) {
			metrics.RecordSingularSolve()
			s.logger.Warn(ctx, "calibration pair rejected",
				logger.String("session_id", id),
				logger.Error(err))
		}
		return repository.Session{}, err
	}

	offset := matrix.Project(errRA, errDec)

	sess.SecondStar = &star
	sess.ErrRA = errRA
	sess.ErrDec = errDec
	sess.Matrix = &matrix
	sess.Offset = &offset
	sess.UpdatedAt = s.clock()

	if err := s.sessions.Put(ctx, sess); err != nil {
		return repository.Session{}, err
	}
	s.logger.Info(ctx, "alignment solved",
		logger.String("session_id", id),
		logger.Float64("delta_alt_arcmin", offset.DeltaAlt.Arcmin()),
		logger.Float64("delta_az_arcmin", offset.DeltaAz.Arcmin()))
	return sess, nil
}

// Offset returns the session's solved altitude/azimuth offset, or
// ErrNotAligned when calibration has not completed.
func (s *Service) Offset(ctx context.Context, id string) (alignment.Offset, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return alignment.Offset{}, err
	}
	if !sess.Aligned() {
		return alignment.Offset{}, fmt.Errorf("%w: session %s", ErrNotAligned, id)
	}
	return *sess.Offset, nil
}

// Transform rotates a horizontal coordinate into the session's offset
// frame, yielding the altitude and azimuth the misaligned mount must
// drive to in order to reach the given true target.
func (s *Service) Transform(ctx context.Context, id string, hc coords.Horizontal) (coords.Horizontal, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return coords.Horizontal{}, err
	}
	if !sess.Aligned() {
		return coords.Horizontal{}, fmt.Errorf("%w: session %s", ErrNotAligned, id)
	}

	start := time.Now()
	out, err := frame.ToOffset(*sess.Offset, hc)
	metrics.RecordTransformDuration(float64(time.Since(start).Nanoseconds()) / nanosecondsPerMillisecond)
	if err != nil {
		return coords.Horizontal{}, err
	}
	metrics.RecordTransform()
	return out, nil
}

// TransformEquatorial converts a catalog right ascension/declination to
// the horizontal frame of the session's site at the given instant, then
// rotates it into the offset frame.
func (s *Service) TransformEquatorial(ctx context.Context, id string, eq coords.Equatorial, t time.Time) (coords.Horizontal, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return coords.Horizontal{}, err
	}
	return s.Transform(ctx, id, eq.ToHorizontal(t, sess.Site))
}

// Pointing reports the equatorial coordinate of the session's zenith at
// the given instant: right ascension equal to the local sidereal time and
// declination equal to the site latitude. Until goto and tracking exist
// on the mount side, the zenith stands in for the mount's reported
// position.
func (s *Service) Pointing(ctx context.Context, id string, t time.Time) (coords.Equatorial, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return coords.Equatorial{}, err
	}
	return coords.Zenith(t, sess.Site), nil
}

// Stats is a point-in-time snapshot of service state for the stats
// endpoint.
type Stats struct {
	Started     bool   `json:"started"`
	DefaultSite string `json:"default_site"`
	Sessions    int    `json:"sessions"`
}

// GetStats returns service statistics for the stats endpoint.
func (s *Service) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Started:     s.started,
		DefaultSite: s.defaultSite.String(),
	}
	if s.started {
		stats.Sessions = s.sessions.Count(context.Background())
		metrics.UpdateActiveSessions(stats.Sessions)
	}
	return stats
}

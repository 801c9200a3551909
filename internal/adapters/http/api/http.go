// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	repository "github.com/telescopium/polaralign/internal/adapters/repository"
	service "github.com/telescopium/polaralign/internal/app"
	"github.com/telescopium/polaralign/internal/domain/alignment"
	"github.com/telescopium/polaralign/internal/domain/angle"
	"github.com/telescopium/polaralign/internal/domain/coords"
	"github.com/telescopium/polaralign/internal/domain/frame"
	"github.com/telescopium/polaralign/internal/domain/site"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CreateSession(ctx context.Context, st *site.Site) (repository.Session, error)
	Session(ctx context.Context, id string) (repository.Session, error)
	DeleteSession(ctx context.Context, id string) error
	SetSite(ctx context.Context, id string, st site.Site) (repository.Session, error)
	RecordFirstStar(ctx context.Context, id string, star coords.Equatorial) (repository.Session, error)
	RecordSecondStar(ctx context.Context, id string, star coords.Equatorial, errRA, errDec angle.Angle) (repository.Session, error)
	Offset(ctx context.Context, id string) (alignment.Offset, error)
	Transform(ctx context.Context, id string, hc coords.Horizontal) (coords.Horizontal, error)
	TransformEquatorial(ctx context.Context, id string, eq coords.Equatorial, t time.Time) (coords.Horizontal, error)
	Pointing(ctx context.Context, id string, t time.Time) (coords.Equatorial, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionsHandler: NewSessionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/v1/sessions", MetricsMiddleware(s.sessionsHandler.HandleSessions, "sessions"))
	mux.HandleFunc("/api/v1/sessions/", MetricsMiddleware(s.sessionsHandler.HandleSession, "session"))
}

// angleValue carries an angle with an explicit unit across the wire.
type angleValue struct {
	Value float64    `json:"value"`
	Unit  angle.Unit `json:"unit"`
}

func (a angleValue) toAngle() (angle.Angle, error) {
	return angle.From(a.Value, a.Unit)
}

// siteRequest mirrors the boundary form of an observing site: fixed
// degree-minute-second strings plus a height in meters.
type siteRequest struct {
	Longitude string  `json:"longitude"`
	Latitude  string  `json:"latitude"`
	HeightM   float64 `json:"height_m"`
}

func (r siteRequest) toSite() (site.Site, error) {
	return site.FromDMS(r.Longitude, r.Latitude, r.HeightM)
}

type siteResponse struct {
	Longitude string  `json:"longitude"`
	Latitude  string  `json:"latitude"`
	HeightM   float64 `json:"height_m"`
}

func newSiteResponse(s site.Site) siteResponse {
	return siteResponse{
		Longitude: s.Longitude.FormatDMS(),
		Latitude:  s.Latitude.FormatDMS(),
		HeightM:   s.HeightM,
	}
}

type offsetResponse struct {
	DeltaAltArcmin float64 `json:"delta_alt_arcmin"`
	DeltaAzArcmin  float64 `json:"delta_az_arcmin"`
	DeltaAltDeg    float64 `json:"delta_alt_deg"`
	DeltaAzDeg     float64 `json:"delta_az_deg"`
}

func newOffsetResponse(o alignment.Offset) offsetResponse {
	return offsetResponse{
		DeltaAltArcmin: o.DeltaAlt.Arcmin(),
		DeltaAzArcmin:  o.DeltaAz.Arcmin(),
		DeltaAltDeg:    o.DeltaAlt.Deg(),
		DeltaAzDeg:     o.DeltaAz.Deg(),
	}
}

type sessionResponse struct {
	ID        string          `json:"id"`
	Site      siteResponse    `json:"site"`
	Aligned   bool            `json:"aligned"`
	Offset    *offsetResponse `json:"offset,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func newSessionResponse(s repository.Session) sessionResponse {
	resp := sessionResponse{
		ID:        s.ID,
		Site:      newSiteResponse(s.Site),
		Aligned:   s.Aligned(),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Offset != nil {
		o := newOffsetResponse(*s.Offset)
		resp.Offset = &o
	}
	return resp
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates domain sentinel errors to HTTP responses.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, alignment.ErrSingular):
		writeError(w, http.StatusConflict, "singular_configuration", err)
	case errors.Is(err, service.ErrCalibrationIncomplete):
		writeError(w, http.StatusConflict, "calibration_incomplete", err)
	case errors.Is(err, service.ErrNotAligned):
		writeError(w, http.StatusConflict, "not_aligned", err)
	case errors.Is(err, angle.ErrInvalidUnit):
		writeError(w, http.StatusBadRequest, "invalid_angle_unit", err)
	case errors.Is(err, frame.ErrTransform):
		writeError(w, http.StatusUnprocessableEntity, "transform_failed", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

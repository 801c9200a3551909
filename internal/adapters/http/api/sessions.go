// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/telescopium/polaralign/internal/domain/coords"
	"github.com/telescopium/polaralign/internal/domain/site"
)

const sessionsPrefix = "/api/v1/sessions/"

// SessionsHandler handles alignment session requests.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

type createSessionRequest struct {
	// Site is optional; the service default applies when omitted.
	Site *siteRequest `json:"site,omitempty"`
}

// HandleSessions handles POST /api/v1/sessions requests.
func (h *SessionsHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	// An empty body selects the default site.
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	var observing *site.Site
	if req.Site != nil {
		st, err := req.Site.toSite()
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		observing = &st
	}

	sess, err := h.deps.CreateSession(r.Context(), observing)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

// HandleSession routes /api/v1/sessions/{id} and its subresources.
func (h *SessionsHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.session"
	rest := strings.TrimPrefix(r.URL.Path, sessionsPrefix)
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" || strings.Contains(sub, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch sub {
	case "":
		h.handleRoot(w, r, id)
	case "site":
		h.handleSite(w, r, id)
	case "stars":
		h.handleStars(w, r, id)
	case "offset":
		h.handleOffset(w, r, id)
	case "transform":
		h.handleTransform(w, r, id)
	case "pointing":
		h.handlePointing(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *SessionsHandler) handleRoot(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.get_session"
	switch r.Method {
	case http.MethodGet:
		sess, err := h.deps.Session(r.Context(), id)
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, newSessionResponse(sess))
	case http.MethodDelete:
		if err := h.deps.DeleteSession(r.Context(), id); err != nil {
			writeDomainError(w, op, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (h *SessionsHandler) handleSite(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.set_site"
	if r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	var req siteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	st, err := req.toSite()
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	sess, err := h.deps.SetSite(r.Context(), id, st)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

// starRequest records a calibration star. The first star carries only
// its coordinates; the second additionally carries the pointing error
// measured after centering it, which triggers the solve.
type starRequest struct {
	Order string     `json:"order"`
	RA    angleValue `json:"ra"`
	Dec   angleValue `json:"dec"`

	ErrRA  *angleValue `json:"err_ra,omitempty"`
	ErrDec *angleValue `json:"err_dec,omitempty"`
}

func (h *SessionsHandler) handleStars(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.record_star"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req starRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ra, err := req.RA.toAngle()
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	dec, err := req.Dec.toAngle()
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	star := coords.Equatorial{RA: ra, Dec: dec}

	switch req.Order {
	case "first":
		sess, err := h.deps.RecordFirstStar(r.Context(), id, star)
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, newSessionResponse(sess))
	case "second":
		if req.ErrRA == nil || req.ErrDec == nil {
			writeError(w, http.StatusBadRequest, "bad_request",
				WrapKind(op, ErrBadRequest, errMissingError))
			return
		}
		errRA, err := req.ErrRA.toAngle()
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		errDec, err := req.ErrDec.toAngle()
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		sess, err := h.deps.RecordSecondStar(r.Context(), id, star, errRA, errDec)
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, newSessionResponse(sess))
	default:
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errBadOrder))
		return
	}
}

func (h *SessionsHandler) handleOffset(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.get_offset"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	off, err := h.deps.Offset(r.Context(), id)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newOffsetResponse(off))
}

// transformRequest rotates a target into the session's offset frame. The
// target is either a horizontal coordinate (alt + az) or a catalog
// equatorial coordinate (ra + dec), both taken at the given UTC instant.
type transformRequest struct {
	Time time.Time `json:"time"`

	Alt *angleValue `json:"alt,omitempty"`
	Az  *angleValue `json:"az,omitempty"`

	RA  *angleValue `json:"ra,omitempty"`
	Dec *angleValue `json:"dec,omitempty"`
}

type transformResponse struct {
	AltDeg float64   `json:"alt_deg"`
	AzDeg  float64   `json:"az_deg"`
	Time   time.Time `json:"time"`
}

func (h *SessionsHandler) handleTransform(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.transform"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req transformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Time.IsZero() {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errMissingTime))
		return
	}

	switch {
	case req.Alt != nil && req.Az != nil:
		alt, err := req.Alt.toAngle()
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		az, err := req.Az.toAngle()
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		sess, err := h.deps.Session(r.Context(), id)
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		got, err := h.deps.Transform(r.Context(), id, coords.Horizontal{
			Alt:  alt,
			Az:   az,
			Time: req.Time.UTC(),
			Site: sess.Site,
		})
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, transformResponse{
			AltDeg: got.Alt.Deg(),
			AzDeg:  got.Az.Deg(),
			Time:   got.Time,
		})
	case req.RA != nil && req.Dec != nil:
		ra, err := req.RA.toAngle()
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		dec, err := req.Dec.toAngle()
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		got, err := h.deps.TransformEquatorial(r.Context(), id,
			coords.Equatorial{RA: ra, Dec: dec}, req.Time.UTC())
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, transformResponse{
			AltDeg: got.Alt.Deg(),
			AzDeg:  got.Az.Deg(),
			Time:   got.Time,
		})
	default:
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errMissingTarget))
	}
}

type pointingResponse struct {
	RAHours float64   `json:"ra_hours"`
	DecDeg  float64   `json:"dec_deg"`
	Time    time.Time `json:"time"`
}

func (h *SessionsHandler) handlePointing(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.pointing"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	at := time.Now().UTC()
	if q := r.URL.Query().Get("time"); q != "" {
		t, err := time.Parse(time.RFC3339Nano, q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		at = t.UTC()
	}
	eq, err := h.deps.Pointing(r.Context(), id, at)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, pointingResponse{
		RAHours: eq.RA.Hour(),
		DecDeg:  eq.Dec.Deg(),
		Time:    at,
	})
}

// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/skysurvey/internal/auth"
	"github.com/tomtom215/skysurvey/internal/config"
	"github.com/tomtom215/skysurvey/internal/database"
	"github.com/tomtom215/skysurvey/internal/models"
	"github.com/tomtom215/skysurvey/internal/websocket"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Store is the persistence the handlers use. *database.DB implements it.
type Store interface {
	Ping(ctx context.Context) error
	Driver() string

	CreateUser(ctx context.Context, email, hashedPassword string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)

	CreateJourney(ctx context.Context, ownerID int64, name string, description *string, points []models.Waypoint) (*models.Journey, error)
	ListJourneys(ctx context.Context, ownerID int64) ([]models.Journey, error)
	GetJourney(ctx context.Context, id int64) (*models.Journey, error)
	DeleteJourney(ctx context.Context, id int64) error

	CreateMission(ctx context.Context, journeyID int64) (*models.Mission, error)
	GetMission(ctx context.Context, id int64) (*models.Mission, error)
	ListMissions(ctx context.Context, ownerID int64, filter models.MissionFilter) ([]models.Mission, error)

	CreateDetection(ctx context.Context, det models.Detection) (*models.Detection, error)
	ListDetections(ctx context.Context, missionID int64) ([]models.Detection, error)
}

var _ Store = (*database.DB)(nil)

// MissionControl starts, stops and commands mission runners.
// *mission.Manager implements it.
type MissionControl interface {
	StartMission(ctx context.Context, missionID int64) error
	StopMission(missionID int64) bool
	SendCommand(missionID int64, command string, params map[string]interface{})
	Active(missionID int64) bool
	ActiveMissions() []int64
}

// Handler holds the dependencies of every route.
type Handler struct {
	store     Store
	missions  MissionControl
	hub       *websocket.Hub
	jwt       *auth.JWTManager
	cfg       *config.Config
	policy    auth.PasswordPolicy
	startTime time.Time
	version   string
	natsUp    func() bool
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithVersion sets the version reported by the health endpoint.
func WithVersion(v string) HandlerOption {
	return func(h *Handler) { h.version = v }
}

// WithPasswordPolicy replaces the default signup password policy.
func WithPasswordPolicy(p auth.PasswordPolicy) HandlerOption {
	return func(h *Handler) { h.policy = p }
}

// WithNATSStatus reports the event mirror state on the health endpoint.
func WithNATSStatus(up func() bool) HandlerOption {
	return func(h *Handler) { h.natsUp = up }
}

// NewHandler creates a Handler. A nil cfg falls back to config.Defaults.
func NewHandler(store Store, missions MissionControl, hub *websocket.Hub, jwt *auth.JWTManager, cfg *config.Config, opts ...HandlerOption) *Handler {
	if cfg == nil {
		cfg = config.Defaults()
	}
	h := &Handler{
		store:     store,
		missions:  missions,
		hub:       hub,
		jwt:       jwt,
		cfg:       cfg,
		policy:    auth.DefaultPasswordPolicy(),
		startTime: time.Now(),
		version:   "dev",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// decodeJSON reads a bounded JSON body into v. It writes the error response
// itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, models.ErrCodeBadRequest, "Request body too large", nil)
			return false
		}
		respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, "Could not read request body", err)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// pathID parses the {id} URL parameter. It writes a 400 and returns false
// when the value is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, "Invalid id", nil)
		return 0, false
	}
	return id, true
}

// principal returns the authenticated caller. Routes using it sit behind
// auth.Middleware, so a missing principal is a wiring error.
func principal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok || p == nil {
		respondError(w, r, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Not authenticated", nil)
		return nil, false
	}
	return p, true
}

// ownedJourney loads a journey and checks it belongs to the caller. Another
// owner's journey is reported as missing.
func (h *Handler) ownedJourney(w http.ResponseWriter, r *http.Request, id int64) (*models.Journey, bool) {
	p, ok := principal(w, r)
	if !ok {
		return nil, false
	}
	j, err := h.store.GetJourney(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, "Journey", err)
		return nil, false
	}
	if j.OwnerID != p.UserID {
		respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Journey not found", nil)
		return nil, false
	}
	return j, true
}

// ownedMission is ownedJourney for missions. Ownership follows the journey.
func (h *Handler) ownedMission(w http.ResponseWriter, r *http.Request, id int64) (*models.Mission, bool) {
	p, ok := principal(w, r)
	if !ok {
		return nil, false
	}
	m, err := h.store.GetMission(r.Context(), id)
	if err != nil {
		respondStoreError(w, r, "Mission", err)
		return nil, false
	}
	if m.OwnerID != p.UserID {
		respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Mission not found", nil)
		return nil, false
	}
	m.Active = h.missions.Active(m.ID)
	return m, true
}

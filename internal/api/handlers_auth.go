// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package api

import (
	"errors"
	"mime"
	"net/http"

	"github.com/tomtom215/skysurvey/internal/auth"
	"github.com/tomtom215/skysurvey/internal/database"
	"github.com/tomtom215/skysurvey/internal/logging"
	"github.com/tomtom215/skysurvey/internal/metrics"
	"github.com/tomtom215/skysurvey/internal/models"
)

// Signup creates an account.
//
// Method: POST
// Path: /api/v1/auth/signup
//
// @Summary Create an account
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Email and password"
// @Success 201 {object} models.APIResponse{data=auth.Principal}
// @Failure 400 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Router /auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}
	if err := h.policy.Validate(req.Password, req.Email); err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error(), nil)
		return
	}

	hash, err := auth.HashPassword(req.Password, h.cfg.Security.BcryptCost)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Could not create account", err)
		return
	}

	user, err := h.store.CreateUser(r.Context(), req.Email, hash)
	if err != nil {
		metrics.RecordAuthAttempt("signup", false)
		if errors.Is(err, database.ErrDuplicate) {
			respondError(w, r, http.StatusConflict, models.ErrCodeConflict, "Email already registered", nil)
			return
		}
		respondStoreError(w, r, "User", err)
		return
	}
	metrics.RecordAuthAttempt("signup", true)

	logging.Ctx(r.Context()).Info().Int64("user_id", user.ID).Msg("user registered")
	respondData(w, r, http.StatusCreated, auth.Principal{UserID: user.ID, Email: user.Email})
}

// Login exchanges credentials for a token pair. It accepts a JSON body or an
// OAuth2 password-flow form with username and password fields.
//
// Method: POST
// Path: /api/v1/auth/login
//
// @Summary Exchange credentials for tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials, JSON or form encoded"
// @Success 200 {object} models.APIResponse{data=auth.TokenPair}
// @Failure 400 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Failure 429 {object} models.APIResponse
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readLogin(w, r)
	if !ok {
		return
	}
	identity := req.identity()
	if identity == "" || req.Password == "" {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "email and password are required", nil)
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), identity)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		respondStoreError(w, r, "User", err)
		return
	}
	if user == nil || auth.CheckPassword(user.HashedPassword, req.Password) != nil {
		metrics.RecordAuthAttempt("login", false)
		logging.Ctx(r.Context()).Warn().
			Str("ip", sanitizeLogValue(r.RemoteAddr)).
			Msg("failed login")
		respondError(w, r, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	pair, err := h.jwt.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Could not issue token", err)
		return
	}
	metrics.RecordAuthAttempt("login", true)
	respondData(w, r, http.StatusOK, pair)
}

func readLogin(w http.ResponseWriter, r *http.Request) (LoginRequest, bool) {
	var req LoginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, "Invalid form body", err)
			return req, false
		}
		req.Username = r.PostFormValue("username")
		req.Email = r.PostFormValue("email")
		req.Password = r.PostFormValue("password")
		return req, true
	default:
		return req, decodeJSON(w, r, &req)
	}
}

// Refresh issues a new token pair from a valid refresh token.
//
// Method: POST
// Path: /api/v1/auth/refresh
//
// @Summary Refresh the token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} models.APIResponse{data=auth.TokenPair}
// @Failure 400 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Router /auth/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}

	claims, err := h.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		metrics.RecordAuthAttempt("refresh", false)
		respondError(w, r, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Invalid refresh token", nil)
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		metrics.RecordAuthAttempt("refresh", false)
		respondError(w, r, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Invalid refresh token", nil)
		return
	}
	user, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			metrics.RecordAuthAttempt("refresh", false)
			respondError(w, r, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Invalid refresh token", nil)
			return
		}
		respondStoreError(w, r, "User", err)
		return
	}

	pair, err := h.jwt.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Could not issue token", err)
		return
	}
	metrics.RecordAuthAttempt("refresh", true)
	respondData(w, r, http.StatusOK, pair)
}

// Me returns the authenticated principal.
//
// Method: GET
// Path: /api/v1/auth/me
//
// @Summary Current user
// @Tags Auth
// @Produce json
// @Success 200 {object} models.APIResponse{data=auth.Principal}
// @Failure 401 {object} models.APIResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	respondData(w, r, http.StatusOK, p)
}

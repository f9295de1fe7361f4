// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/skysurvey/internal/logging"
	"github.com/tomtom215/skysurvey/internal/models"
)

type contextKey string

const principalContextKey contextKey = "principal"

// Principal is the authenticated caller.
type Principal struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
}

// WithPrincipal stores p on ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext returns the principal set by Authenticate.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	return p, ok && p != nil
}

// UserLookup confirms that a token subject still exists.
type UserLookup interface {
	UserExists(ctx context.Context, id int64) (bool, error)
}

// Middleware provides authentication middleware.
type Middleware struct {
	jwtManager *JWTManager
	users      UserLookup
}

// NewMiddleware creates the authentication middleware. users may be nil, in
// which case token validity alone is trusted.
func NewMiddleware(jwtManager *JWTManager, users UserLookup) *Middleware {
	return &Middleware{jwtManager: jwtManager, users: users}
}

// Authenticate rejects requests without a valid access token and stores the
// Principal on the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, problem := extractToken(r)
		if problem != "" {
			writeUnauthorized(w, problem)
			return
		}

		claims, err := m.jwtManager.ValidateAccessToken(token)
		if err != nil {
			logging.Debug().Err(err).Str("path", r.URL.Path).Msg("token validation failed")
			writeUnauthorized(w, "Could not validate credentials")
			return
		}
		userID, _ := claims.UserID()

		if m.users != nil {
			ok, err := m.users.UserExists(r.Context(), userID)
			if err != nil {
				logging.Error().Err(err).Int64("user_id", userID).Msg("user lookup failed")
				writeUnauthorized(w, "Could not validate credentials")
				return
			}
			if !ok {
				writeUnauthorized(w, "Could not validate credentials")
				return
			}
		}

		ctx := WithPrincipal(r.Context(), &Principal{UserID: userID, Email: claims.Email})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken reads the Authorization header, falling back to the "token"
// query parameter used by websocket clients. A non-empty problem is the
// client-facing reason the request carries no usable token.
func extractToken(r *http.Request) (token, problem string) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", "Invalid authorization header"
		}
		return strings.TrimSpace(token), ""
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, ""
	}
	return "", "Not authenticated"
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	body, err := json.Marshal(&models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    models.ErrCodeUnauthorized,
			Message: message,
		},
	})
	if err != nil {
		http.Error(w, message, http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(body)
}

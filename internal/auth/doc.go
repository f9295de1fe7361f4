// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

/*
Package auth provides account credentials, bearer tokens and the HTTP
authentication middleware.

Key Components:

  - HashPassword / CheckPassword: bcrypt hashing at the configured cost
  - PasswordPolicy: minimum strength rules applied at signup
  - JWTManager: HS256 access and refresh token pairs
  - Middleware: resolves the bearer token into a Principal on the request
    context
  - LoginThrottle: per-client token bucket in front of the login route

Tokens:

Access tokens live for security.access_token_ttl (24h by default) and
refresh tokens for security.refresh_token_ttl (7 days). Both carry the user
id in "sub" and a "typ" claim of "access" or "refresh"; a refresh token is
never accepted where an access token is expected.

The websocket route cannot set headers from a browser, so the middleware
also accepts the token in the "token" query parameter.

Usage:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    return err
	}
	mw := auth.NewMiddleware(jwtManager, auth.NewCachedUserLookup(db, 0, 0))
	r.With(mw.Authenticate).Get("/api/v1/auth/me", handler.Me)
*/
package auth

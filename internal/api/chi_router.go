// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/skysurvey/internal/auth"
	"github.com/tomtom215/skysurvey/internal/middleware"
	"github.com/tomtom215/skysurvey/internal/models"
)

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	loginThrottle *auth.LoginThrottle
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. loginThrottle may be nil.
func NewRouter(handler *Handler, authMW *auth.Middleware, loginThrottle *auth.LoginThrottle, mw *ChiMiddleware) *Router {
	return &Router{
		handler:       handler,
		auth:          authMW,
		loginThrottle: loginThrottle,
		chiMiddleware: mw,
	}
}

// compress gzips JSON bodies. It is kept off the websocket route.
func compress() func(http.Handler) http.Handler {
	return chimiddleware.Compress(5, "application/json", "application/geo+json")
}

// Setup builds the route tree.
func (router *Router) Setup() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// Global middleware, in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, models.ErrCodeBadRequest, "Method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
		r.Get("/", h.Health)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(APISecurityHeaders())

		login := r.With()
		if router.loginThrottle != nil {
			login = r.With(router.loginThrottle.Middleware)
		}
		login.Post("/login", h.Login)

		r.With(router.chiMiddleware.RateLimitCustom(RateLimitAuth)).Post("/signup", h.Signup)
		r.With(router.chiMiddleware.RateLimitCustom(RateLimitAuth)).Post("/refresh", h.Refresh)
		r.With(router.auth.Authenticate).Get("/me", h.Me)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.auth.Authenticate)

		// Live channel; no compression, the connection is hijacked.
		r.With(router.chiMiddleware.RateLimitCustom(RateLimitWebSocket)).Get("/missions/ws/{id}", h.MissionWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(APISecurityHeaders())
			r.Use(compress())

			r.Get("/journeys", h.ListJourneys)
			r.Get("/journeys/{id}", h.GetJourney)
			r.Get("/journeys/{id}/export", h.ExportJourney)

			r.Get("/missions", h.ListMissions)
			r.Get("/missions/{id}", h.GetMission)
			r.Get("/missions/{id}/detections", h.ListDetections)

			r.Group(func(r chi.Router) {
				r.Use(router.chiMiddleware.RateLimitCustom(RateLimitWrite))
				r.Post("/journeys", h.CreateJourney)
				r.Delete("/journeys/{id}", h.DeleteJourney)
				r.Post("/missions", h.CreateMission)
				r.Post("/missions/{id}/start", h.StartMission)
				r.Post("/missions/{id}/stop", h.StopMission)
				r.Post("/detections", h.CreateDetection)
			})

			r.Group(func(r chi.Router) {
				r.Use(router.chiMiddleware.RateLimitCustom(RateLimitCommand))
				r.Post("/missions/{id}/command", h.SendCommand)
				r.Post("/drone/{id}/command", h.SendCommand)
			})
		})
	})

	return r
}

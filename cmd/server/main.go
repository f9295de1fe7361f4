// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "github.com/tomtom215/skysurvey/docs" // registers the swagger document
	"github.com/tomtom215/skysurvey/internal/api"
	"github.com/tomtom215/skysurvey/internal/auth"
	"github.com/tomtom215/skysurvey/internal/config"
	"github.com/tomtom215/skysurvey/internal/database"
	"github.com/tomtom215/skysurvey/internal/logging"
	"github.com/tomtom215/skysurvey/internal/metrics"
	"github.com/tomtom215/skysurvey/internal/mission"
	"github.com/tomtom215/skysurvey/internal/supervisor"
	"github.com/tomtom215/skysurvey/internal/supervisor/services"
	ws "github.com/tomtom215/skysurvey/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("database_driver", cfg.Database.Driver).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Msg("Starting skysurvey")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run wires every component and blocks until a shutdown signal arrives.
func run(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Str("driver", db.Driver()).Msg("Database initialized")

	hub := ws.NewHub(cfg.WebSocket.SendBuffer)

	natsComponents, err := InitNATS(ctx, cfg, hub)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		natsComponents.Shutdown(shutdownCtx)
	}()

	manager := mission.NewManager(db, natsComponents.Broadcaster(hub), cfg.Mission)

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return err
	}
	loginThrottle := auth.NewLoginThrottle(cfg.Security.LoginRatePerMinute, cfg.Security.LoginBurst)
	defer loginThrottle.Stop()

	handler := api.NewHandler(db, manager, hub, jwtManager, cfg,
		api.WithVersion(version),
		api.WithPasswordPolicy(auth.DefaultPasswordPolicy()),
		api.WithNATSStatus(natsComponents.Healthy),
	)
	router := api.NewRouter(handler,
		auth.NewMiddleware(jwtManager, auth.NewCachedUserLookup(db, 0, 0)),
		loginThrottle,
		api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Server)),
	)
	server := newHTTPServer(&cfg.Server, router.Setup())

	if cfg.Server.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (RATE_LIMIT_DISABLED=true)")
	}
	for _, origin := range cfg.Server.CORSOrigins {
		if origin == "*" {
			logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*); set explicit origins in production")
			break
		}
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(&cfg.Supervisor))
	if err != nil {
		return err
	}
	tree.AddDataService(services.NewMissionManagerService(manager))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	if fwd := natsComponents.Forwarder(); fwd != nil {
		tree.AddMessagingService(services.NewEventMirrorService(fwd))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish")
		runErr = <-errCh
	case runErr = <-errCh:
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logging.Error().Err(runErr).Msg("Supervisor tree error")
	} else {
		runErr = nil
	}

	if n := tree.LogUnstopped(); n > 0 {
		logging.Warn().Int("count", n).Msg("Services failed to stop within timeout")
	}
	return runErr
}

// newHTTPServer builds the listener from the server config.
func newHTTPServer(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

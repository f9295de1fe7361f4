// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

/*
Package supervisor runs the long-lived parts of the server under a suture v4
supervision tree.

# Layers

	skysurvey (root)
	├── data-layer       mission manager
	├── messaging-layer  websocket hub, NATS event forwarder
	└── api-layer        HTTP server

Each layer is its own supervisor, so a crash loop in the NATS forwarder backs
off inside the messaging layer while the API keeps serving. Services live in
the services subpackage; each one is a thin suture.Service adapter around a
component that already knows how to run until its context is cancelled.

# Shutdown

Cancelling the context passed to Serve stops the whole tree. Services that
have not returned within ShutdownTimeout are listed by UnstoppedServiceReport
and logged by LogUnstopped so a hung component is visible in the shutdown log.

Supervisor events (restarts, backoff, panics) are written through sutureslog
to the slog bridge in the logging package, so they share the zerolog output.
*/
package supervisor

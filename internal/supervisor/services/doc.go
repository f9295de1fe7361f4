// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

// Package services adapts server components to suture.Service.
//
// Every adapter blocks in Serve until its context is cancelled and reports a
// stable name through String for supervisor logs:
//
//	http-server      HTTPServerService
//	websocket-hub    WebSocketHubService
//	mission-manager  MissionManagerService
//	event-mirror     EventMirrorService
package services

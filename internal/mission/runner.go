// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package mission

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/skysurvey/internal/logging"
	"github.com/tomtom215/skysurvey/internal/metrics"
	"github.com/tomtom215/skysurvey/internal/models"
	"github.com/tomtom215/skysurvey/internal/telemetry"
)

// State is a runner's lifecycle position.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// statusWriteTimeout bounds status updates made after the run context is
// already cancelled.
const statusWriteTimeout = 5 * time.Second

// Runner drives one mission's simulation.
type Runner struct {
	missionID int64
	store     Store
	source    telemetry.Source
	bus       Broadcaster
	interval  time.Duration
	budget    int

	state  atomic.Int32
	ticks  atomic.Int64
	onExit func()
	done   chan struct{}
	log    zerolog.Logger
}

// RunnerConfig carries a runner's collaborators.
type RunnerConfig struct {
	MissionID int64
	Store     Store
	Source    telemetry.Source
	Bus       Broadcaster
	Interval  time.Duration
	// Budget is the number of ticks before the mission completes; 0 runs
	// until cancelled.
	Budget int
	// OnExit runs once when Run returns.
	OnExit func()
}

// NewRunner creates an idle runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	return &Runner{
		missionID: cfg.MissionID,
		store:     cfg.Store,
		source:    cfg.Source,
		bus:       cfg.Bus,
		interval:  cfg.Interval,
		budget:    cfg.Budget,
		onExit:    cfg.OnExit,
		done:      make(chan struct{}),
		log:       logging.With().Str("component", "mission-runner").Int64("mission_id", cfg.MissionID).Logger(),
	}
}

// MissionID returns the mission this runner drives.
func (r *Runner) MissionID() int64 { return r.missionID }

// State returns the current lifecycle state.
func (r *Runner) State() State { return State(r.state.Load()) }

// Ticks returns the number of completed ticks.
func (r *Runner) Ticks() int64 { return r.ticks.Load() }

// Done is closed after Run has returned and the exit hook has run.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Run executes the mission until ctx is cancelled, the tick budget is
// spent, or the session cannot be acquired. It never returns an error;
// the outcome is reflected in State and in the mission's stored status.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)
	defer func() {
		if r.onExit != nil {
			r.onExit()
		}
	}()

	ctx = logging.ContextWithMissionID(ctx, r.missionID)

	session, err := r.store.AcquireSession(ctx, r.missionID)
	if err != nil {
		r.state.Store(int32(StateFailed))
		r.log.Error().Err(err).Msg("failed to acquire persistence session, mission failed")
		r.writeStatus(models.MissionStatusFailed)
		metrics.RecordMissionFinished(StateFailed.String())
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			r.log.Warn().Err(err).Msg("failed to release persistence session")
		}
	}()

	r.state.Store(int32(StateRunning))
	r.writeStatus(models.MissionStatusRunning)
	r.log.Info().Dur("interval", r.interval).Int("budget", r.budget).Msg("mission runner started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		// Cancellation wins over starting another tick.
		if ctx.Err() != nil {
			r.finish(StateStopped, models.MissionStatusStopped, "mission runner cancelled")
			return
		}

		r.tick(ctx, session)

		if r.budget > 0 && r.ticks.Load() >= int64(r.budget) {
			r.finish(StateStopped, models.MissionStatusCompleted, "mission tick budget spent")
			return
		}

		select {
		case <-ctx.Done():
			r.finish(StateStopped, models.MissionStatusStopped, "mission runner cancelled")
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) finish(state State, status, msg string) {
	r.state.Store(int32(state))
	r.writeStatus(status)
	metrics.RecordMissionFinished(status)
	r.log.Info().Str("status", status).Int64("ticks", r.ticks.Load()).Msg(msg)
}

// tick produces and publishes one step. Any panic is contained to the tick.
func (r *Runner) tick(ctx context.Context, session Session) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Msg("recovered panic in mission tick, skipping")
		}
	}()
	defer r.ticks.Add(1)
	metrics.RecordMissionTick()

	sample, detection := r.source.Generate(r.missionID)

	if ctx.Err() != nil {
		return
	}
	r.bus.Publish(r.missionID, sample)
	metrics.RecordEventPublished(telemetry.EventTypeTelemetry)

	if detection == nil {
		return
	}

	stored, err := session.AppendDetection(ctx, *detection)
	metrics.RecordDetectionPersist(err)
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to persist detection, skipping it")
		return
	}
	r.log.Debug().Int64("detection_id", stored.ID).Float64("score", detection.Score).Msg("detection persisted")

	if ctx.Err() != nil {
		return
	}
	r.bus.Publish(r.missionID, publishedDetection(stored, *detection))
	metrics.RecordEventPublished(telemetry.EventTypeDetection)
}

// publishedDetection builds the live event from the persisted row so
// subscribers see what a later detections query returns. Fields the store
// left empty keep the generated values.
func publishedDetection(row models.Detection, generated telemetry.DetectionEvent) telemetry.DetectionEvent {
	event := telemetry.DetectionEvent{
		MissionID: row.MissionID,
		Lat:       row.Lat,
		Lon:       row.Lon,
		Label:     row.Label,
		Score:     generated.Score,
		Timestamp: row.CreatedAt,
	}
	if event.MissionID == 0 {
		event.MissionID = generated.MissionID
	}
	if row.Score != nil {
		event.Score = *row.Score
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = generated.Timestamp
	}
	return event
}

// writeStatus records the mission status on a best-effort basis.
func (r *Runner) writeStatus(status string) {
	ctx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
	defer cancel()
	if err := r.store.UpdateMissionStatus(ctx, r.missionID, status); err != nil {
		r.log.Warn().Err(err).Str("status", status).Msg("failed to update mission status")
	}
}

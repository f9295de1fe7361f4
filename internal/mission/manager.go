// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package mission

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/skysurvey/internal/config"
	"github.com/tomtom215/skysurvey/internal/logging"
	"github.com/tomtom215/skysurvey/internal/metrics"
	"github.com/tomtom215/skysurvey/internal/telemetry"
)

// handle is a registry entry. Identity matters: a runner only removes the
// entry if it is still the one it was registered under.
type handle struct {
	runner *Runner
	cancel context.CancelFunc
}

// Manager starts, stops and commands mission runners.
type Manager struct {
	store     Store
	bus       Broadcaster
	cfg       config.MissionConfig
	newSource SourceFactory

	// root parents every runner context so runners outlive the requests
	// that start them.
	root       context.Context
	cancelRoot context.CancelFunc

	mu      sync.Mutex
	handles map[int64]*handle
	// stopping holds runners that were stopped but have not exited yet.
	// A restart waits for them so status writes never interleave.
	stopping map[int64]*handle
	closed   bool
	wg      sync.WaitGroup
}

// ManagerOption customises a Manager.
type ManagerOption func(*Manager)

// WithSourceFactory replaces the simulated telemetry source.
func WithSourceFactory(f SourceFactory) ManagerOption {
	return func(m *Manager) { m.newSource = f }
}

// NewManager creates a Manager. bus is usually the websocket hub, or the
// NATS forwarder wrapping it.
func NewManager(store Store, bus Broadcaster, cfg config.MissionConfig, opts ...ManagerOption) *Manager {
	root, cancel := context.WithCancel(context.Background())
	m := &Manager{
		store:      store,
		bus:        bus,
		cfg:        cfg,
		root:       root,
		cancelRoot: cancel,
		handles:    make(map[int64]*handle),
		stopping:   make(map[int64]*handle),
	}
	m.newSource = func(int64) telemetry.Source {
		return telemetry.NewGenerator(cfg.Simulation)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartMission starts a runner for missionID. Starting an already active
// mission is a no-op. The mission must exist in the store.
func (m *Manager) StartMission(ctx context.Context, missionID int64) error {
	if m.Active(missionID) {
		logging.Info().Int64("mission_id", missionID).Msg("mission already running")
		return nil
	}

	if _, err := m.store.GetMissionStatus(ctx, missionID); err != nil {
		if errors.Is(err, ErrMissionNotFound) {
			return err
		}
		return fmt.Errorf("failed to look up mission %d: %w", missionID, err)
	}

	for {
		if err := m.awaitStopped(ctx, missionID); err != nil {
			return err
		}
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return ErrManagerClosed
		}
		if _, ok := m.handles[missionID]; ok {
			m.mu.Unlock()
			logging.Info().Int64("mission_id", missionID).Msg("mission already running")
			return nil
		}
		if _, ok := m.stopping[missionID]; !ok {
			break // m.mu stays held for registration
		}
		// Stopped again while we waited.
		m.mu.Unlock()
	}

	runCtx, cancel := context.WithCancel(m.root)
	h := &handle{cancel: cancel}
	h.runner = NewRunner(RunnerConfig{
		MissionID: missionID,
		Store:     m.store,
		Source:    m.newSource(missionID),
		Bus:       m.bus,
		Interval:  m.cfg.TickInterval,
		Budget:    m.cfg.TickBudget,
		OnExit:    func() { m.release(missionID, h) },
	})
	m.handles[missionID] = h
	m.wg.Add(1)
	m.mu.Unlock()

	metrics.RecordMissionStarted()
	go func() {
		defer m.wg.Done()
		h.runner.Run(runCtx)
	}()

	logging.Info().Int64("mission_id", missionID).Msg("mission started")
	return nil
}

// awaitStopped blocks until a previously stopped runner for missionID has
// written its final status and exited, or ctx ends.
func (m *Manager) awaitStopped(ctx context.Context, missionID int64) error {
	for {
		m.mu.Lock()
		h, ok := m.stopping[missionID]
		m.mu.Unlock()
		if !ok {
			return nil
		}
		select {
		case <-h.runner.Done():
		case <-ctx.Done():
			return fmt.Errorf("mission %d is still stopping: %w", missionID, ctx.Err())
		}
	}
}

// release removes h from the registry if it is still registered. Called
// once by the runner on exit.
func (m *Manager) release(missionID int64, h *handle) {
	m.mu.Lock()
	if cur, ok := m.handles[missionID]; ok && cur == h {
		delete(m.handles, missionID)
	}
	if cur, ok := m.stopping[missionID]; ok && cur == h {
		delete(m.stopping, missionID)
	}
	m.mu.Unlock()
	h.cancel()
}

// StopMission cancels the mission's runner and deregisters it at once;
// teardown finishes asynchronously. A later StartMission for the same id
// waits for that teardown. It reports whether a runner was active.
func (m *Manager) StopMission(missionID int64) bool {
	m.mu.Lock()
	h, ok := m.handles[missionID]
	if ok {
		delete(m.handles, missionID)
		m.stopping[missionID] = h
	}
	m.mu.Unlock()

	if !ok {
		logging.Debug().Int64("mission_id", missionID).Msg("stop requested for inactive mission")
		return false
	}
	h.cancel()
	logging.Info().Int64("mission_id", missionID).Msg("mission stop requested")
	return true
}

// SendCommand forwards an operator command. Terminal commands stop the
// mission; anything else is logged and ignored. Commands for inactive
// missions are dropped. It never fails.
func (m *Manager) SendCommand(missionID int64, command string, params map[string]interface{}) {
	cmd := ParseCommand(command)
	log := logging.Info().Int64("mission_id", missionID).Str("command", string(cmd))
	if len(params) > 0 {
		log = log.Interface("params", params)
	}

	if !m.Active(missionID) {
		log.Msg("command for inactive mission dropped")
		return
	}
	log.Msg("command received")

	if cmd.Terminal() {
		m.StopMission(missionID)
		return
	}
	logging.Warn().Int64("mission_id", missionID).Str("command", string(cmd)).Msg("unrecognized command ignored")
}

// Active reports whether missionID has a registered runner.
func (m *Manager) Active(missionID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.handles[missionID]
	return ok
}

// ActiveMissions returns the ids of missions with a registered runner in
// ascending order.
func (m *Manager) ActiveMissions() []int64 {
	m.mu.Lock()
	ids := make([]int64, 0, len(m.handles))
	for id := range m.handles {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// runner returns the registered runner for missionID, if any.
func (m *Manager) runner(missionID int64) *Runner {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.handles[missionID]; ok {
		return h.runner
	}
	return nil
}

// Shutdown cancels every runner and waits for them to exit, bounded by
// ctx. The Manager refuses new starts afterwards.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	count := len(m.handles)
	m.mu.Unlock()

	m.cancelRoot()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info().Int("runners_stopped", count).Msg("mission manager stopped")
		return nil
	case <-ctx.Done():
		logging.Warn().Int("runners", count).Msg("mission manager shutdown timed out")
		return ctx.Err()
	}
}

// Serve implements suture.Service. It blocks until ctx is cancelled and
// then shuts every runner down.
func (m *Manager) Serve(ctx context.Context) error {
	<-ctx.Done()

	timeout := m.cfg.TickInterval * 5
	if timeout < statusWriteTimeout {
		timeout = statusWriteTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := m.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("mission manager shutdown: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture logging.
func (m *Manager) String() string {
	return "mission-manager"
}

// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package telemetry

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/tomtom215/skysurvey/internal/config"
)

// Source yields one tick worth of events for a mission. The second return
// value is nil on ticks without a detection.
type Source interface {
	Generate(missionID int64) (TelemetrySample, *DetectionEvent)
}

// Generator is the simulated Source: a fixed base coordinate perturbed by
// uniform noise, with an occasional detection at the same position.
type Generator struct {
	cfg config.SimulationConfig
	rng *rand.Rand
	now func() time.Time
}

// Option customises a Generator.
type Option func(*Generator)

// WithRand replaces the random source. Useful for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) { g.rng = rng }
}

// WithSeed seeds a private PCG source.
func WithSeed(seed1, seed2 uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed1, seed2)))
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator returns a Generator for one mission runner. A Generator is not
// safe for concurrent use; give each runner its own.
func NewGenerator(cfg config.SimulationConfig, opts ...Option) *Generator {
	g := &Generator{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g
}

// Generate implements Source.
func (g *Generator) Generate(missionID int64) (TelemetrySample, *DetectionEvent) {
	ts := g.now().UTC()

	sample := TelemetrySample{
		MissionID:  missionID,
		Lat:        g.cfg.BaseLat + g.jitter(g.cfg.CoordJitter),
		Lon:        g.cfg.BaseLon + g.jitter(g.cfg.CoordJitter),
		Alt:        g.cfg.BaseAlt + g.jitter(g.cfg.AltJitter),
		BatteryPct: g.battery(),
		Timestamp:  ts,
	}

	if g.rng.Float64() >= g.cfg.DetectionProbability {
		return sample, nil
	}

	score := g.cfg.ScoreMin + g.rng.Float64()*(g.cfg.ScoreMax-g.cfg.ScoreMin)
	return sample, &DetectionEvent{
		MissionID: missionID,
		Lat:       sample.Lat,
		Lon:       sample.Lon,
		Label:     g.cfg.DetectionLabel,
		Score:     RoundScore(score),
		Timestamp: ts,
	}
}

// jitter returns a uniform offset in [-amplitude, amplitude).
func (g *Generator) jitter(amplitude float64) float64 {
	return (g.rng.Float64()*2 - 1) * amplitude
}

// battery returns a uniform integer in [BatteryMin, BatteryMax].
func (g *Generator) battery() int {
	span := g.cfg.BatteryMax - g.cfg.BatteryMin
	if span <= 0 {
		return g.cfg.BatteryMin
	}
	return g.cfg.BatteryMin + g.rng.IntN(span+1)
}

// RoundScore rounds a confidence score to three decimal places.
func RoundScore(score float64) float64 {
	return math.Round(score*1000) / 1000
}

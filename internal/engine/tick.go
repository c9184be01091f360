// Package engine provides the tick-based simulation loop and the turn
// orchestrator that drives every subsystem once per tick.
package engine

import (
	"fmt"
	"log/slog"
	"time"
)

// One tick is one simulated month.
const TicksPerYear = 12

// Engine drives the simulation forward on a wall-clock cadence.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Base tick interval (default 5 seconds)
	Running  bool

	// Callbacks for each tick layer — populated during setup.
	OnTick func(tick uint64) // Every tick (sim-month)
	OnYear func(tick uint64) // Every 12 ticks
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Speed:    1.0,
		Interval: 5 * time.Second,
	}
}

// Run starts the simulation loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.Running = true
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed)

	for e.Running {
		if e.Speed <= 0 {
			// Paused — sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.Running = false
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
	if e.Tick%TicksPerYear == 0 && e.OnYear != nil {
		e.OnYear(e.Tick)
	}
}

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// SimTime renders a tick as a human-readable simulation date.
func SimTime(tick uint64) string {
	if tick == 0 {
		return "January, Year 1"
	}
	month := (tick - 1) % TicksPerYear
	year := (tick-1)/TicksPerYear + 1
	return fmt.Sprintf("%s, Year %d", monthNames[month], year)
}

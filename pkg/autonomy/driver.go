// Package autonomy runs the rover's background obstacle-avoidance loop.
// Every synthetic move it produces goes through the same orchestrator
// submit path as manual directives, so the safety interlock arbitrates both
// sources identically.
package autonomy

import (
	"context"
	"log/slog"
	"time"

	"github.com/teslashibe/go-walle/pkg/directive"
	"github.com/teslashibe/go-walle/pkg/safety"
	"github.com/teslashibe/go-walle/pkg/sensors"
	"github.com/teslashibe/go-walle/pkg/state"
)

// Submitter is the orchestrator surface the loop drives through.
type Submitter interface {
	Submit(a directive.Action) safety.Verdict
}

// Config tunes the avoidance routine. The iteration period is fixed, not
// adaptive, so the actuator call rate stays bounded.
type Config struct {
	Period    time.Duration // time between iterations
	Cruise    float64       // forward magnitude while clear
	TurnSpeed float64       // right-turn magnitude while avoiding
	TurnTicks int           // iterations spent turning per avoidance
	AvoidCM   float64       // clearance below which the routine turns away
}

// DefaultConfig mirrors the stock avoidance tuning: half-second ticks,
// gentle cruise, and a 30cm standoff comfortably above the hard halt line.
func DefaultConfig() Config {
	return Config{
		Period:    500 * time.Millisecond,
		Cruise:    0.6,
		TurnSpeed: 0.5,
		TurnTicks: 2,
		AvoidCM:   30.0,
	}
}

// Driver is the autonomy loop. It only acts while the store's autonomy flag
// is set; flipping the flag off is the cooperative cancellation point.
type Driver struct {
	submit   Submitter
	distance sensors.DistanceReader
	store    *state.Store
	cfg      Config
	logger   *slog.Logger
}

// New builds a driver. Zero-valued config fields fall back to defaults.
func New(submit Submitter, distance sensors.DistanceReader, store *state.Store, cfg Config, logger *slog.Logger) *Driver {
	def := DefaultConfig()
	if cfg.Period <= 0 {
		cfg.Period = def.Period
	}
	if cfg.Cruise <= 0 {
		cfg.Cruise = def.Cruise
	}
	if cfg.TurnSpeed <= 0 {
		cfg.TurnSpeed = def.TurnSpeed
	}
	if cfg.TurnTicks <= 0 {
		cfg.TurnTicks = def.TurnTicks
	}
	if cfg.AvoidCM <= 0 {
		cfg.AvoidCM = def.AvoidCM
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		submit:   submit,
		distance: distance,
		store:    store,
		cfg:      cfg,
		logger:   logger.With("component", "autonomy"),
	}
}

// Run loops until ctx is cancelled. Cancellation is checked only at
// iteration boundaries, and a final stop is always submitted on exit so the
// rover never keeps rolling past the loop's lifetime.
func (d *Driver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Period)
	defer ticker.Stop()
	defer d.submit.Submit(directive.Stop())

	d.logger.Info("autonomy loop started", "period", d.cfg.Period)

	var (
		active    bool // issued motion since the flag last went on
		turnsLeft int
	)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("autonomy loop stopping")
			return
		case <-ticker.C:
		}

		if !d.store.AutonomyEnabled() {
			if active {
				d.submit.Submit(directive.Stop())
				active = false
				turnsLeft = 0
			}
			continue
		}
		active = true

		d.submit.Submit(d.step(&turnsLeft))
	}
}

// step decides one iteration's move: keep turning if mid-avoidance, start an
// avoidance turn when something is inside the standoff, otherwise cruise.
// An unknown distance cruises; the interlock still holds the last known
// reading against it.
func (d *Driver) step(turnsLeft *int) directive.Action {
	if *turnsLeft > 0 {
		*turnsLeft--
		return directive.Move(directive.DirRight, d.cfg.TurnSpeed)
	}

	dist, ok := d.distance.ReadDistanceCM()
	if ok && dist < d.cfg.AvoidCM {
		d.logger.Debug("avoidance turn", "distance_cm", dist, "avoid_cm", d.cfg.AvoidCM)
		*turnsLeft = d.cfg.TurnTicks - 1
		d.submit.Submit(directive.Stop())
		return directive.Move(directive.DirRight, d.cfg.TurnSpeed)
	}

	return directive.Move(directive.DirForward, d.cfg.Cruise)
}

// Package power monitors battery voltage and owns the safe-shutdown
// collaborator. The monitor smooths raw readings with an exponential moving
// average and feeds the state store; the orchestrator's interlock decides
// when the smoothed value is critical.
package power

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-walle/pkg/sensors"
	"github.com/teslashibe/go-walle/pkg/state"
)

// Status classifies a battery sample.
type Status string

const (
	StatusOK       Status = "ok"
	StatusLow      Status = "low"
	StatusCritical Status = "critical"
)

// Config tunes the battery monitor.
type Config struct {
	CriticalVolts  float64
	WarnVolts      float64
	SampleInterval time.Duration
	// Smoothing is the EMA factor in [0, 1]; higher weights the new sample.
	Smoothing float64
}

// DefaultConfig matches a 3S LiPo pack (~3.6V per cell critical).
func DefaultConfig() Config {
	return Config{
		CriticalVolts:  10.8,
		WarnVolts:      11.4,
		SampleInterval: 5 * time.Second,
		Smoothing:      0.6,
	}
}

// Monitor samples a battery reader and keeps a smoothed voltage.
type Monitor struct {
	reader sensors.BatteryReader
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	ema    float64
	haveEM bool
}

// NewMonitor creates a battery monitor.
func NewMonitor(reader sensors.BatteryReader, cfg Config, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{reader: reader, cfg: cfg, logger: logger.With("component", "power.monitor")}
}

// Sample reads once and folds the value into the moving average. Returns the
// smoothed voltage, or ok=false when the reader has nothing.
func (m *Monitor) Sample() (float64, bool) {
	raw, ok := m.reader.ReadBatteryVolts()
	if !ok {
		return 0, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.haveEM {
		m.ema = raw
		m.haveEM = true
	} else {
		alpha := clamp01(m.cfg.Smoothing)
		m.ema = alpha*raw + (1-alpha)*m.ema
	}
	m.logger.Debug("battery sample", "raw", raw, "ema", m.ema)
	return m.ema, true
}

// Voltage returns the current smoothed voltage.
func (m *Monitor) Voltage() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ema, m.haveEM
}

// Classify samples once and buckets the result. An unreadable battery
// classifies as ok: the interlock keeps using the last known value from the
// state store, so a dropout never hides a previously observed breach.
func (m *Monitor) Classify() Status {
	v, ok := m.Sample()
	if !ok {
		return StatusOK
	}
	switch {
	case v <= m.cfg.CriticalVolts:
		return StatusCritical
	case v <= m.cfg.WarnVolts:
		return StatusLow
	default:
		return StatusOK
	}
}

// Watch periodically samples the battery into the state store until the
// context is canceled. Low-battery transitions are logged; denial and
// shutdown decisions belong to the interlock, not here.
func (m *Monitor) Watch(ctx context.Context, store *state.Store) {
	ticker := time.NewTicker(m.cfg.SampleInterval)
	defer ticker.Stop()

	warned := false
	for {
		if v, ok := m.Sample(); ok {
			store.RecordBattery(state.Known(v))
			if v <= m.cfg.WarnVolts && v > m.cfg.CriticalVolts {
				if !warned {
					m.logger.Warn("battery low", "volts", v)
					warned = true
				}
			} else {
				warned = false
			}
		}
		// A failed read records nothing: the store keeps the last known
		// voltage so the interlock never forgets a critical observation.

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

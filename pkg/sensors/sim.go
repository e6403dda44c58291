package sensors

import (
	"sync"
	"time"

	"github.com/teslashibe/go-walle/internal/config"
)

// SimUltrasonic synthesizes distance readings for development machines.
// Without an override it plays an 8-second far -> near -> far cycle so the
// obstacle guard and autonomy loop get exercised without hardware.
type SimUltrasonic struct {
	mu       sync.Mutex
	override *float64
	start    time.Time
	now      func() time.Time
}

// NewSimUltrasonic creates a simulated distance sensor.
func NewSimUltrasonic() *SimUltrasonic {
	return &SimUltrasonic{start: time.Now(), now: time.Now}
}

// SetDistance pins the simulated reading. Passing a negative value restores
// the automatic pattern.
func (s *SimUltrasonic) SetDistance(cm float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cm < 0 {
		s.override = nil
		return
	}
	s.override = &cm
}

// ReadDistanceCM returns the pinned or patterned distance.
func (s *SimUltrasonic) ReadDistanceCM() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.override != nil {
		return *s.override, true
	}

	t := s.now().Sub(s.start).Seconds()
	for t >= 8.0 {
		t -= 8.0
	}
	switch {
	case t < 2.0:
		return 120.0, true // clear
	case t < 4.0:
		return 120.0 - (t-2.0)*40.0, true // approaching, down to ~40cm
	case t < 6.0:
		return 20.0, true // close obstacle
	default:
		return 80.0, true // clearing again
	}
}

// EnvBattery reads the pack voltage from the environment, standing in for
// the ADC on machines without hardware.
type EnvBattery struct{}

// ReadBatteryVolts returns the configured voltage; defaults to a healthy
// pack so simulation runs are never denied by the battery interlock.
func (EnvBattery) ReadBatteryVolts() (float64, bool) {
	return config.BatteryVolts(), true
}

// FixedBattery always reports the same voltage. Useful in tests and for
// wiring a known-critical pack state.
type FixedBattery struct {
	Volts float64
}

func (f FixedBattery) ReadBatteryVolts() (float64, bool) {
	return f.Volts, true
}

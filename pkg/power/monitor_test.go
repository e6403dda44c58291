package power

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-walle/pkg/sensors"
	"github.com/teslashibe/go-walle/pkg/state"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

// seqBattery serves a scripted sequence of readings, repeating the last.
type seqBattery struct {
	mu   sync.Mutex
	seq  []float64
	oks  []bool
	next int
}

func (s *seqBattery) ReadBatteryVolts() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.next
	if i >= len(s.seq) {
		i = len(s.seq) - 1
	} else {
		s.next++
	}
	ok := true
	if i < len(s.oks) {
		ok = s.oks[i]
	}
	return s.seq[i], ok
}

func TestMonitor_FirstSampleSeedsEMA(t *testing.T) {
	m := NewMonitor(sensors.FixedBattery{Volts: 12.0}, DefaultConfig(), nil)
	v, ok := m.Sample()
	if !ok || !floatEquals(v, 12.0) {
		t.Errorf("got %v/%v, want 12.0/true", v, ok)
	}
}

func TestMonitor_EMASmoothing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Smoothing = 0.6
	b := &seqBattery{seq: []float64{12.0, 10.0}}
	m := NewMonitor(b, cfg, nil)

	m.Sample()
	v, _ := m.Sample()
	// 0.6*10 + 0.4*12 = 10.8
	if !floatEquals(v, 10.8) {
		t.Errorf("smoothed: got %v, want 10.8", v)
	}
}

func TestMonitor_FailedReadKeepsEMA(t *testing.T) {
	b := &seqBattery{seq: []float64{12.0, 0}, oks: []bool{true, false}}
	m := NewMonitor(b, DefaultConfig(), nil)

	m.Sample()
	if _, ok := m.Sample(); ok {
		t.Error("failed read should report ok=false")
	}
	v, ok := m.Voltage()
	if !ok || !floatEquals(v, 12.0) {
		t.Errorf("EMA after dropout: got %v/%v, want 12.0/true", v, ok)
	}
}

func TestMonitor_Classify(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		volts float64
		want  Status
	}{
		{12.6, StatusOK},
		{11.2, StatusLow},
		{10.5, StatusCritical},
	}
	for _, tc := range tests {
		m := NewMonitor(sensors.FixedBattery{Volts: tc.volts}, cfg, nil)
		if got := m.Classify(); got != tc.want {
			t.Errorf("%vV: got %v, want %v", tc.volts, got, tc.want)
		}
	}
}

func TestWatch_RecordsIntoStore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleInterval = 5 * time.Millisecond
	m := NewMonitor(sensors.FixedBattery{Volts: 11.9}, cfg, nil)
	store := state.New()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Watch(ctx, store)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.Snapshot().LastBatteryVolts.Valid {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	cancel()
	<-done

	r := store.Snapshot().LastBatteryVolts
	if !r.Valid || !floatEquals(r.Value, 11.9) {
		t.Errorf("recorded battery: got %+v, want 11.9/valid", r)
	}
}

func TestSafeShutdown_SimulatedRunsOnce(t *testing.T) {
	s := NewSafeShutdown(true, nil)
	// Must be callable repeatedly without side effects past the first.
	s.InitiateSafeShutdown()
	s.InitiateSafeShutdown()
	s.InitiateSafeShutdown()
}

package autonomy

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-walle/pkg/directive"
	"github.com/teslashibe/go-walle/pkg/safety"
	"github.com/teslashibe/go-walle/pkg/state"
)

// recordingSubmitter captures every action the loop submits.
type recordingSubmitter struct {
	mu      sync.Mutex
	actions []directive.Action
}

func (r *recordingSubmitter) Submit(a directive.Action) safety.Verdict {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
	return safety.Verdict{Decision: safety.Allow, Action: a}
}

func (r *recordingSubmitter) all() []directive.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]directive.Action, len(r.actions))
	copy(out, r.actions)
	return out
}

func (r *recordingSubmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actions)
}

// fixedDistance always reads the same clearance.
type fixedDistance struct {
	mu sync.Mutex
	cm float64
	ok bool
}

func (f *fixedDistance) set(cm float64, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cm, f.ok = cm, ok
}

func (f *fixedDistance) ReadDistanceCM() (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cm, f.ok
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.Period = 5 * time.Millisecond
	return cfg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestRun_CruisesForwardWhileClear(t *testing.T) {
	sub := &recordingSubmitter{}
	dist := &fixedDistance{cm: 150, ok: true}
	store := state.New()
	store.SetAutonomy(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := New(sub, dist, store, fastConfig(), nil)
	go d.Run(ctx)

	waitFor(t, func() bool { return sub.count() >= 3 })
	cancel()

	for _, a := range sub.all()[:3] {
		if a.Kind != directive.KindMove || a.Direction != directive.DirForward {
			t.Errorf("got %v/%v, want forward move", a.Kind, a.Direction)
		}
	}
}

func TestRun_AvoidanceTurnsAwayFromObstacle(t *testing.T) {
	sub := &recordingSubmitter{}
	dist := &fixedDistance{cm: 10, ok: true}
	store := state.New()
	store.SetAutonomy(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := New(sub, dist, store, fastConfig(), nil)
	go d.Run(ctx)

	waitFor(t, func() bool { return sub.count() >= 4 })
	cancel()

	var sawStop, sawRight bool
	for _, a := range sub.all() {
		if a.Direction == directive.DirStop {
			sawStop = true
		}
		if a.Direction == directive.DirRight {
			sawRight = true
		}
		if a.Direction == directive.DirForward {
			t.Error("loop drove forward into a 10cm obstacle")
		}
	}
	if !sawStop || !sawRight {
		t.Errorf("avoidance routine: stop=%v right-turn=%v, want both", sawStop, sawRight)
	}
}

func TestRun_IdleWhileAutonomyDisabled(t *testing.T) {
	sub := &recordingSubmitter{}
	dist := &fixedDistance{cm: 150, ok: true}
	store := state.New() // autonomy off

	ctx, cancel := context.WithCancel(context.Background())
	d := New(sub, dist, store, fastConfig(), nil)
	go d.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	if sub.count() != 0 {
		t.Errorf("idle loop submitted %d actions, want 0", sub.count())
	}
	cancel()
}

func TestRun_StopsOnceWhenFlagDrops(t *testing.T) {
	sub := &recordingSubmitter{}
	dist := &fixedDistance{cm: 150, ok: true}
	store := state.New()
	store.SetAutonomy(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := New(sub, dist, store, fastConfig(), nil)
	go d.Run(ctx)

	waitFor(t, func() bool { return sub.count() >= 2 })
	store.SetAutonomy(false)

	waitFor(t, func() bool {
		for _, a := range sub.all() {
			if a.Direction == directive.DirStop {
				return true
			}
		}
		return false
	})

	// Let a few idle iterations pass; no further motion should appear.
	n := sub.count()
	time.Sleep(50 * time.Millisecond)
	if sub.count() != n {
		t.Errorf("idle loop kept submitting: %d -> %d", n, sub.count())
	}
}

func TestRun_FinalStopOnCancel(t *testing.T) {
	sub := &recordingSubmitter{}
	dist := &fixedDistance{cm: 150, ok: true}
	store := state.New()
	store.SetAutonomy(true)

	ctx, cancel := context.WithCancel(context.Background())
	d := New(sub, dist, store, fastConfig(), nil)

	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return sub.count() >= 1 })
	cancel()
	<-done

	actions := sub.all()
	last := actions[len(actions)-1]
	if last.Direction != directive.DirStop {
		t.Errorf("last action: got %v, want stop", last.Direction)
	}
}

func TestRun_UnknownDistanceCruises(t *testing.T) {
	sub := &recordingSubmitter{}
	dist := &fixedDistance{ok: false}
	store := state.New()
	store.SetAutonomy(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := New(sub, dist, store, fastConfig(), nil)
	go d.Run(ctx)

	waitFor(t, func() bool { return sub.count() >= 2 })
	cancel()

	if a := sub.all()[0]; a.Direction != directive.DirForward {
		t.Errorf("got %v, want forward when distance is unknown", a.Direction)
	}
}

func TestNew_DefaultsFillZeroConfig(t *testing.T) {
	d := New(&recordingSubmitter{}, &fixedDistance{}, state.New(), Config{}, nil)
	if d.cfg.Period != DefaultConfig().Period {
		t.Errorf("period: got %v, want default", d.cfg.Period)
	}
	if d.cfg.AvoidCM != DefaultConfig().AvoidCM {
		t.Errorf("avoid: got %v, want default", d.cfg.AvoidCM)
	}
}

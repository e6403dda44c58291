// Package state holds the rover's mutable runtime state behind a single
// mutex-guarded store. The store is the only coordination point between the
// manual orchestrator loop and the autonomy loop: readers get consistent
// value-copy snapshots, and every mutation is all-or-nothing.
package state

import (
	"sync"
	"time"

	"github.com/teslashibe/go-walle/pkg/directive"
)

// Declared ranges for stored values.
const (
	MaxTrim = 0.2

	// RestArmPos is the default arm rest pose.
	RestArmPos = 0.5
)

// Reading is an optional sensor value: Valid is false when the last read
// failed or no reading has arrived yet.
type Reading struct {
	Value float64
	Valid bool
	At    time.Time
}

// Known wraps a value into a valid Reading stamped now.
func Known(v float64) Reading {
	return Reading{Value: v, Valid: true, At: time.Now()}
}

// Snapshot is an immutable copy of the rover state at a point in time.
type Snapshot struct {
	SpeedScale      float64
	TrimLeft        float64
	TrimRight       float64
	AutonomyEnabled bool
	ArmLeft         float64
	ArmRight        float64
	GripperOpen     bool
	Halted          bool

	LastDistanceCM   Reading
	LastBatteryVolts Reading
}

// Store owns the single mutable rover state. All access goes through its
// methods; there is no package-level instance.
type Store struct {
	mu sync.RWMutex
	s  Snapshot
}

// New returns a store with default state: full speed scale, zero trim,
// autonomy off, arms at rest, gripper open.
func New() *Store {
	return &Store{s: Snapshot{
		SpeedScale:  1.0,
		ArmLeft:     RestArmPos,
		ArmRight:    RestArmPos,
		GripperOpen: true,
	}}
}

// Snapshot returns a consistent copy of the current state.
func (st *Store) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}

// SetSpeedScale stores the absolute speed scale, clamped to [0, 1],
// and returns the stored value.
func (st *Store) SetSpeedScale(v float64) float64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.SpeedScale = clamp(v, 0, 1)
	return st.s.SpeedScale
}

// ScaleSpeed multiplies the current scale by factor, clamped to [0, 1].
func (st *Store) ScaleSpeed(factor float64) float64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.SpeedScale = clamp(st.s.SpeedScale*factor, 0, 1)
	return st.s.SpeedScale
}

// AddSpeed adds delta to the current scale, clamped to [0, 1].
func (st *Store) AddSpeed(delta float64) float64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.SpeedScale = clamp(st.s.SpeedScale+delta, 0, 1)
	return st.s.SpeedScale
}

// SetTrim stores an absolute per-side trim, clamped to [-0.2, 0.2].
func (st *Store) SetTrim(side directive.Side, v float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.applyTrim(side, clamp(v, -MaxTrim, MaxTrim))
}

// AdjustTrim adds delta to a side's trim, clamped to [-0.2, 0.2].
func (st *Store) AdjustTrim(side directive.Side, delta float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	cur := st.s.TrimLeft
	if side == directive.SideRight {
		cur = st.s.TrimRight
	}
	st.applyTrim(side, clamp(cur+delta, -MaxTrim, MaxTrim))
}

func (st *Store) applyTrim(side directive.Side, v float64) {
	if side == directive.SideRight {
		st.s.TrimRight = v
	} else {
		st.s.TrimLeft = v
	}
}

// ResetTrim zeroes both trims unconditionally.
func (st *Store) ResetTrim() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.TrimLeft = 0
	st.s.TrimRight = 0
}

// SetAutonomy flips the autonomy flag and reports the previous value.
func (st *Store) SetAutonomy(enabled bool) (was bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	was = st.s.AutonomyEnabled
	st.s.AutonomyEnabled = enabled
	return was
}

// AutonomyEnabled reads the autonomy flag.
func (st *Store) AutonomyEnabled() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.AutonomyEnabled
}

// SetArm stores one arm's position, clamped to [0, 1].
func (st *Store) SetArm(side directive.Side, pos float64) float64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	pos = clamp(pos, 0, 1)
	if side == directive.SideRight {
		st.s.ArmRight = pos
	} else {
		st.s.ArmLeft = pos
	}
	return pos
}

// AdjustArm adds delta to one arm's position, clamped to [0, 1], and
// returns the stored value.
func (st *Store) AdjustArm(side directive.Side, delta float64) float64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	if side == directive.SideRight {
		st.s.ArmRight = clamp(st.s.ArmRight+delta, 0, 1)
		return st.s.ArmRight
	}
	st.s.ArmLeft = clamp(st.s.ArmLeft+delta, 0, 1)
	return st.s.ArmLeft
}

// SetArms stores both arm positions in one atomic mutation.
func (st *Store) SetArms(left, right float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.ArmLeft = clamp(left, 0, 1)
	st.s.ArmRight = clamp(right, 0, 1)
}

// SetGripper stores the gripper state and reports the previous value.
func (st *Store) SetGripper(open bool) (was bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	was = st.s.GripperOpen
	st.s.GripperOpen = open
	return was
}

// RecordDistance stores the latest distance reading. An invalid reading
// keeps the previous value but marks it stale-unknown, so distance-based
// vetoes are disabled until a fresh reading arrives.
func (st *Store) RecordDistance(r Reading) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.LastDistanceCM = r
}

// RecordBattery stores the latest battery reading.
func (st *Store) RecordBattery(r Reading) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.LastBatteryVolts = r
}

// TripHalt sets the halted flag and records the triggering distance in the
// same atomic mutation. Returns true when this call flipped the flag (the
// edge), so callers can narrate once per block instead of every cycle.
func (st *Store) TripHalt(dist Reading) (edge bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.LastDistanceCM = dist
	edge = !st.s.Halted
	st.s.Halted = true
	return edge
}

// ClearHalt re-validates clearance at commit time and, only if the latest
// recorded distance is known and at least resumeCM, clears the halted flag.
// The re-check and the flag flip happen under one lock so a stale "clear"
// decision from one loop cannot overwrite a halt the other loop just
// tripped against a fresher reading.
func (st *Store) ClearHalt(resumeCM float64) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.s.Halted {
		return true
	}
	d := st.s.LastDistanceCM
	if !d.Valid || d.Value < resumeCM {
		return false
	}
	st.s.Halted = false
	return true
}

// Halted reads the halted flag.
func (st *Store) Halted() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Halted
}

// clamp restricts v to the range [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

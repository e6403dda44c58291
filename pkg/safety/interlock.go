// Package safety arbitrates every motion-affecting action before it reaches
// the actuators. Both the manual orchestrator and the autonomy loop submit
// through the same Check, so no actuator call path can skip it.
package safety

import (
	"fmt"

	"github.com/teslashibe/go-walle/pkg/directive"
	"github.com/teslashibe/go-walle/pkg/state"
)

// Decision is the outcome class of an interlock check.
type Decision int

const (
	Allow Decision = iota
	Downgrade
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Downgrade:
		return "downgrade"
	case Deny:
		return "deny"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// Veto reasons surfaced to the user.
const (
	ReasonCriticalBattery = "critical_battery"
	ReasonObstacleGuard   = "obstacle_guard"
)

// Verdict is the result of a safety check. On Downgrade, Action carries the
// substituted action; on Allow it echoes the input. ClearsHalt and TripsHalt
// tell the caller which halt transition to commit to the state store.
type Verdict struct {
	Decision   Decision
	Action     directive.Action
	Reason     string
	ClearsHalt bool
	TripsHalt  bool
}

// Sample is the latest sensor readings, taken just before a check.
// Invalid readings mean the sensor could not be read.
type Sample struct {
	DistanceCM   state.Reading
	BatteryVolts state.Reading
}

// Thresholds configures the interlock policy.
type Thresholds struct {
	// CriticalVolts is the battery voltage below which everything except
	// emergency-safe actions is denied and shutdown is triggered.
	CriticalVolts float64
	// WarnVolts is the low-battery warning level.
	WarnVolts float64
	// HaltCM is the clearance below which forward drive is downgraded to a
	// stop. ResumeCM is the clearance required to release a halt; keeping it
	// above HaltCM gives the guard hysteresis so the rover does not oscillate
	// at the boundary.
	HaltCM   float64
	ResumeCM float64
}

// DefaultThresholds matches a 3S LiPo pack and a short-range ultrasonic
// sensor: critical at 10.8V (~3.6V per cell), halt at 20cm, resume at 25cm.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CriticalVolts: 10.8,
		WarnVolts:     11.4,
		HaltCM:        20.0,
		ResumeCM:      25.0,
	}
}

// Check evaluates one candidate action against a state snapshot and the
// latest sensor sample. It is pure: it never mutates anything, so it needs
// no locking. The caller commits the halt transitions it reports.
//
// Policy, in priority order:
//  1. Critical battery denies everything except queries, a gripper safe
//     release, stop, and autonomy toggles.
//  2. Forward drive with a known obstacle inside HaltCM downgrades to stop
//     and trips the halt flag.
//  3. Forward drive while halted is allowed only once a known reading shows
//     ResumeCM of clearance; the verdict then also clears the halt.
//  4. Everything else passes: the interlock governs drive-train safety only.
func Check(a directive.Action, snap state.Snapshot, sample Sample, th Thresholds) Verdict {
	battery := effective(sample.BatteryVolts, snap.LastBatteryVolts)
	distance := effective(sample.DistanceCM, snap.LastDistanceCM)

	if battery.Valid && battery.Value < th.CriticalVolts && !a.SafeUnderCriticalBattery() {
		return Verdict{Decision: Deny, Action: a, Reason: ReasonCriticalBattery}
	}

	if a.IsForwardDrive() {
		if distance.Valid && distance.Value < th.HaltCM {
			return Verdict{
				Decision:  Downgrade,
				Action:    directive.Stop(),
				Reason:    ReasonObstacleGuard,
				TripsHalt: true,
			}
		}
		if snap.Halted {
			if distance.Valid && distance.Value >= th.ResumeCM {
				return Verdict{Decision: Allow, Action: a, ClearsHalt: true}
			}
			return Verdict{Decision: Deny, Action: a, Reason: ReasonObstacleGuard}
		}
	}

	return Verdict{Decision: Allow, Action: a}
}

// Critical reports whether the effective battery reading is below the
// critical threshold.
func Critical(snap state.Snapshot, sample Sample, th Thresholds) bool {
	battery := effective(sample.BatteryVolts, snap.LastBatteryVolts)
	return battery.Valid && battery.Value < th.CriticalVolts
}

// effective prefers a fresh valid reading, falling back to the last known
// value so a transient sensor failure never forgets a critical observation.
func effective(fresh, last state.Reading) state.Reading {
	if fresh.Valid {
		return fresh
	}
	return last
}

// Package directive defines the closed set of actions the rover understands
// and the parser that normalizes conversational or teleop input into them.
//
// Directives arrive either as structured control records (the {type, value}
// shape produced by the chat control mode) or as free text from voice/teleop.
// Parsing is pure and stateless: numeric fields are clamped to their declared
// ranges, never rejected, and unparseable input yields an Unknown action
// instead of an error so malformed conversational input can never crash the
// control loop.
package directive

import "github.com/google/uuid"

// Kind identifies an action variant.
type Kind string

const (
	KindMove           Kind = "move"
	KindSetSpeed       Kind = "set_speed"
	KindTrim           Kind = "trim"
	KindResetTrim      Kind = "reset_trim"
	KindToggleAutonomy Kind = "toggle_autonomy"
	KindPose           Kind = "pose"
	KindSetArm         Kind = "set_arm"
	KindGripper        Kind = "gripper"
	KindQuery          Kind = "query"
	KindSay            Kind = "say"
	KindGrab           Kind = "grab"
	KindUnknown        Kind = "unknown"
)

// Direction is a drive direction for Move actions.
type Direction string

const (
	DirForward  Direction = "forward"
	DirBackward Direction = "backward"
	DirLeft     Direction = "left"
	DirRight    Direction = "right"
	DirStop     Direction = "stop"
)

// Side selects a drive side or arm.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// SpeedOp selects how a SetSpeed value is applied to the current scale.
type SpeedOp string

const (
	SpeedSet   SpeedOp = "set"   // absolute value
	SpeedScale SpeedOp = "scale" // multiply current scale ("speed up a bit")
	SpeedAdd   SpeedOp = "add"   // additive delta
)

// Declared ranges for clamped numeric fields.
const (
	MaxMagnitude = 1.0
	MaxTrim      = 0.2
)

// Action is one normalized directive. Exactly one Kind is set; the other
// fields are meaningful only for the kinds noted in their comments.
type Action struct {
	ID   string // correlation ID for logging
	Kind Kind

	Direction Direction // Move
	Magnitude float64   // Move, in [0, 1]

	Value   float64 // SetSpeed, SetArm; clamped to [0, 1]
	SpeedOp SpeedOp // SetSpeed

	Side  Side    // Trim, SetArm
	Delta float64 // Trim, in [-0.2, 0.2]
	Set   bool    // Trim: absolute set instead of adjust

	Pose string // Pose: named arm pose

	Open   bool // Gripper, ToggleAutonomy (Enable)
	Toggle bool // Gripper: flip current state
	Enable bool // ToggleAutonomy

	Topic string // Query, Grab: object label, empty for "everything"
	Text  string // Say: narration text

	Raw       string // original input, always set for Unknown
	ClampNote string // non-empty when a numeric field was silently clamped
}

// New returns an Action of the given kind with a fresh correlation ID.
func New(kind Kind) Action {
	return Action{ID: uuid.NewString(), Kind: kind}
}

// Unknown wraps unparseable input.
func Unknown(raw string) Action {
	a := New(KindUnknown)
	a.Raw = raw
	return a
}

// Move builds a clamped Move action.
func Move(dir Direction, magnitude float64) Action {
	a := New(KindMove)
	a.Direction = dir
	a.Magnitude, a.ClampNote = clampNoted(magnitude, 0, MaxMagnitude, "magnitude")
	if dir == DirStop {
		a.Magnitude = 0
	}
	return a
}

// Stop is a zero-magnitude stop Move. Downgraded actions use this form.
func Stop() Action {
	return Move(DirStop, 0)
}

// IsForwardDrive reports whether the action would drive the rover forward.
// Only these actions are subject to the obstacle guard.
func (a Action) IsForwardDrive() bool {
	return a.Kind == KindMove && a.Direction == DirForward && a.Magnitude > 0
}

// IsMotion reports whether the action reaches the drive train at all.
func (a Action) IsMotion() bool {
	return a.Kind == KindMove
}

// SafeUnderCriticalBattery reports whether the action may proceed while the
// battery is critically low. Queries cost nothing, closing the gripper is a
// safe release, and toggling autonomy must always work so a human can shut
// the behavior down.
func (a Action) SafeUnderCriticalBattery() bool {
	switch a.Kind {
	case KindQuery, KindSay, KindToggleAutonomy, KindUnknown:
		return true
	case KindGripper:
		return !a.Open && !a.Toggle
	case KindMove:
		return a.Direction == DirStop
	}
	return false
}

// clampNoted clamps v to [lo, hi] and returns a note when it changed.
func clampNoted(v, lo, hi float64, field string) (float64, string) {
	c := clamp(v, lo, hi)
	if c != v {
		return c, field + " clamped"
	}
	return c, ""
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

// Package orchestrator is the rover's master loop. It turns parsed
// directives into safe, stateful actuator behavior: every submission takes a
// state and sensor snapshot, passes the safety interlock, commits the state
// mutation, and only then touches hardware. The manual path, the web API and
// the autonomy loop all enter through Submit, so no actuator call can skip
// the interlock.
package orchestrator

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/teslashibe/go-walle/pkg/arm"
	"github.com/teslashibe/go-walle/pkg/directive"
	"github.com/teslashibe/go-walle/pkg/motor"
	"github.com/teslashibe/go-walle/pkg/persona"
	"github.com/teslashibe/go-walle/pkg/power"
	"github.com/teslashibe/go-walle/pkg/safety"
	"github.com/teslashibe/go-walle/pkg/sensors"
	"github.com/teslashibe/go-walle/pkg/state"
	"github.com/teslashibe/go-walle/pkg/voice"
)

// Perceptor answers Query and Grab directives. Describe returns a spoken
// description; PlanGrab returns the primitive control records that would
// bring the gripper to the labeled object.
type Perceptor interface {
	Describe(topic string) string
	PlanGrab(label string) []directive.Record
}

// Deps are the orchestrator's collaborators. Store, Motors and Speaker are
// required; the rest degrade gracefully when nil.
type Deps struct {
	Store    *state.Store
	Sensors  sensors.Reader
	Motors   motor.Controller
	Arms     arm.Controller
	Speaker  voice.Speaker
	Percept  Perceptor
	Shutdown power.Shutdown
	Persona  *persona.Adapter
	Logger   *slog.Logger
}

// Orchestrator serializes directive processing. One directive is handled to
// completion before the next is accepted; only the autonomy loop runs
// concurrently, and it coordinates through the state store.
type Orchestrator struct {
	mu sync.Mutex

	store    *state.Store
	sensors  sensors.Reader
	motors   motor.Controller
	arms     arm.Controller
	speaker  voice.Speaker
	percept  Perceptor
	shutdown power.Shutdown
	persona  *persona.Adapter
	logger   *slog.Logger

	th    safety.Thresholds
	latch safety.BatteryLatch

	// OnVerdict, when set, observes every processed action and its verdict.
	// The dashboard uses it for narration; it runs inside the submit lock
	// and must not re-enter the orchestrator.
	OnVerdict func(a directive.Action, v safety.Verdict)
}

// New builds an orchestrator with the given collaborators and thresholds.
func New(deps Deps, th safety.Thresholds) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:    deps.Store,
		sensors:  deps.Sensors,
		motors:   deps.Motors,
		arms:     deps.Arms,
		speaker:  deps.Speaker,
		percept:  deps.Percept,
		shutdown: deps.Shutdown,
		persona:  deps.Persona,
		logger:   logger.With("component", "orchestrator"),
		th:       th,
	}
}

// SubmitText parses free text and submits the resulting action.
func (o *Orchestrator) SubmitText(text string) safety.Verdict {
	return o.Submit(directive.ParseText(text))
}

// SubmitRecord parses a structured control record and submits each resulting
// action in order. The last verdict is returned.
func (o *Orchestrator) SubmitRecord(rec directive.Record) safety.Verdict {
	var v safety.Verdict
	for _, a := range directive.ParseRecord(rec) {
		v = o.Submit(a)
	}
	return v
}

// Submit runs one action through snapshot, interlock, state commit and
// actuator call. Actuator faults are logged and swallowed; nothing here is
// fatal to the loop.
func (o *Orchestrator) Submit(a directive.Action) safety.Verdict {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.submitLocked(a)
}

func (o *Orchestrator) submitLocked(a directive.Action) safety.Verdict {
	if a.ClampNote != "" {
		o.logger.Info("directive value adjusted", "id", a.ID, "kind", a.Kind, "note", a.ClampNote)
	}

	sample := o.sample()
	snap := o.store.Snapshot()

	// Edge-triggered shutdown: at most one call per continuous breach, and
	// it fires even when the current action happens to be a safe one.
	critical := safety.Critical(snap, sample, o.th)
	batteryKnown := sample.BatteryVolts.Valid || snap.LastBatteryVolts.Valid
	if o.latch.Observe(critical, batteryKnown) {
		o.logger.Error("battery critical, initiating safe shutdown",
			"volts", sample.BatteryVolts.Value, "threshold", o.th.CriticalVolts)
		o.narrate("Battery critical. Shutting down to protect the cells.")
		if o.shutdown != nil {
			o.shutdown.InitiateSafeShutdown()
		}
	}

	v := safety.Check(a, snap, sample, o.th)

	switch v.Decision {
	case safety.Deny:
		o.logger.Warn("directive denied", "id", a.ID, "kind", a.Kind, "reason", v.Reason)
		// Narration for denials is edge-triggered elsewhere (the shutdown
		// latch above, the halt trip below) so a blocked loop does not
		// repeat itself every cycle.

	case safety.Downgrade:
		if o.store.TripHalt(sample.DistanceCM) {
			o.logger.Warn("obstacle guard tripped", "id", a.ID,
				"distance_cm", sample.DistanceCM.Value, "halt_cm", o.th.HaltCM)
			o.narrate("Obstacle ahead. Holding position.")
		}
		o.apply(v.Action, snap)

	case safety.Allow:
		if v.ClearsHalt {
			// Commit-time re-check: the latest recorded distance must still
			// show clearance when the flag actually flips, or a stale
			// decision here could overwrite a halt the autonomy loop just
			// tripped against a fresher reading.
			if !o.store.ClearHalt(o.th.ResumeCM) {
				o.logger.Warn("halt release rejected at commit", "id", a.ID)
				v = safety.Verdict{Decision: safety.Deny, Action: a, Reason: safety.ReasonObstacleGuard}
				break
			}
			o.logger.Info("obstacle cleared, resuming", "id", a.ID)
			o.narrate("Path clear. Rolling again.")
		}
		o.apply(v.Action, snap)
	}

	if o.OnVerdict != nil {
		o.OnVerdict(a, v)
	}
	return v
}

// sample reads the sensors and records the readings. Battery is only
// recorded when valid so a transient read failure never forgets a critical
// observation; distance is recorded as-is because an unknown distance must
// disable the obstacle veto.
func (o *Orchestrator) sample() safety.Sample {
	var s safety.Sample
	if o.sensors == nil {
		return s
	}
	if d, ok := o.sensors.ReadDistanceCM(); ok {
		s.DistanceCM = state.Known(d)
	}
	o.store.RecordDistance(s.DistanceCM)

	if b, ok := o.sensors.ReadBatteryVolts(); ok {
		s.BatteryVolts = state.Known(b)
		o.store.RecordBattery(s.BatteryVolts)
	}
	return s
}

// apply commits the state mutation for an allowed action and invokes the
// matching actuator.
func (o *Orchestrator) apply(a directive.Action, snap state.Snapshot) {
	switch a.Kind {
	case directive.KindMove:
		o.drive(a)

	case directive.KindSetSpeed:
		var scale float64
		switch a.SpeedOp {
		case directive.SpeedScale:
			scale = o.store.ScaleSpeed(a.Value)
		case directive.SpeedAdd:
			scale = o.store.AddSpeed(a.Value)
		default:
			scale = o.store.SetSpeedScale(a.Value)
		}
		o.logger.Info("speed scale updated", "id", a.ID, "scale", scale)

	case directive.KindTrim:
		if a.Set {
			o.store.SetTrim(a.Side, a.Delta)
		} else {
			o.store.AdjustTrim(a.Side, a.Delta)
		}
		o.logger.Info("trim updated", "id", a.ID, "side", a.Side, "delta", a.Delta, "absolute", a.Set)

	case directive.KindResetTrim:
		o.store.ResetTrim()
		o.logger.Info("trim reset", "id", a.ID)

	case directive.KindToggleAutonomy:
		was := o.store.SetAutonomy(a.Enable)
		if was != a.Enable {
			if a.Enable {
				o.narrate("Autonomy engaged.")
			} else {
				o.narrate("Autonomy disengaged.")
				o.stopMotors()
			}
		}

	case directive.KindPose:
		pose, known := arm.LookupPose(a.Pose)
		if !known {
			o.logger.Warn("unknown pose, using rest", "id", a.ID, "pose", a.Pose)
		}
		o.store.SetArms(pose.Left, pose.Right)
		if o.arms != nil {
			if err := o.arms.SetArms(pose.Left, pose.Right); err != nil {
				o.logger.Warn("arm actuator fault", "id", a.ID, "error", err)
			}
		}

	case directive.KindSetArm:
		var pos float64
		if a.Set {
			pos = o.store.SetArm(a.Side, a.Value)
		} else {
			pos = o.store.AdjustArm(a.Side, a.Delta)
		}
		if o.arms != nil {
			if err := o.arms.SetArm(string(a.Side), pos); err != nil {
				o.logger.Warn("arm actuator fault", "id", a.ID, "error", err)
			}
		}

	case directive.KindGripper:
		open := a.Open
		if a.Toggle {
			open = !snap.GripperOpen
		}
		o.store.SetGripper(open)
		if o.arms != nil {
			if err := o.arms.SetGripper(open); err != nil {
				o.logger.Warn("gripper actuator fault", "id", a.ID, "error", err)
			}
		}

	case directive.KindQuery:
		if o.percept == nil {
			o.narrate("My eyes are offline.")
			return
		}
		o.narrate(o.percept.Describe(a.Topic))

	case directive.KindSay:
		o.narrate(a.Text)

	case directive.KindGrab:
		o.grab(a)

	case directive.KindUnknown:
		o.logger.Info("unparseable directive ignored", "id", a.ID, "raw", a.Raw)
	}
}

// drive translates a Move into per-side motor speeds. Magnitude, speed scale
// and trim combine into a clamped per-side speed; direction only sets the
// sign of each side.
func (o *Orchestrator) drive(a directive.Action) {
	if a.Direction == directive.DirStop || a.Magnitude == 0 {
		o.stopMotors()
		return
	}

	snap := o.store.Snapshot()
	base := a.Magnitude * snap.SpeedScale
	left := clamp01(base + snap.TrimLeft)
	right := clamp01(base + snap.TrimRight)

	switch a.Direction {
	case directive.DirBackward:
		left, right = -left, -right
	case directive.DirLeft:
		left = -left
	case directive.DirRight:
		right = -right
	}

	if o.motors == nil {
		return
	}
	if err := o.motors.Drive(left, right); err != nil {
		o.logger.Warn("drive actuator fault", "id", a.ID, "error", err)
	}
}

func (o *Orchestrator) stopMotors() {
	if o.motors == nil {
		return
	}
	if err := o.motors.Stop(); err != nil {
		o.logger.Warn("stop actuator fault", "error", err)
	}
}

// grab asks perception for a plan and runs each step through the interlock
// like any other directive.
func (o *Orchestrator) grab(a directive.Action) {
	if o.percept == nil {
		o.narrate("I cannot see anything to grab.")
		return
	}
	plan := o.percept.PlanGrab(a.Topic)
	for _, rec := range plan {
		for _, step := range directive.ParseRecord(rec) {
			o.submitLocked(step)
		}
	}
}

// narrate speaks through the persona when one is configured.
func (o *Orchestrator) narrate(msg string) {
	if msg == "" || o.speaker == nil {
		return
	}
	if o.persona != nil {
		msg = o.persona.Apply(msg)
	}
	o.speaker.Say(msg)
}

// Drain is the shutdown sequence: autonomy off, one final stop, gripper to
// its safe closed state. Call before releasing the actuators.
func (o *Orchestrator) Drain() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.store.SetAutonomy(false)
	o.stopMotors()
	o.store.SetGripper(false)
	if o.arms != nil {
		if err := o.arms.SetGripper(false); err != nil {
			o.logger.Warn("gripper actuator fault during drain", "error", err)
		}
	}
	o.logger.Info("orchestrator drained")
}

// DescribeState renders a short spoken status line for voice teleop.
func (o *Orchestrator) DescribeState() string {
	snap := o.store.Snapshot()
	var b strings.Builder
	b.WriteString("Speed scale ")
	b.WriteString(fmtFloat(snap.SpeedScale))
	if snap.AutonomyEnabled {
		b.WriteString(", autonomy on")
	}
	if snap.Halted {
		b.WriteString(", holding for an obstacle")
	}
	if snap.LastBatteryVolts.Valid {
		b.WriteString(", battery ")
		b.WriteString(fmtFloat(snap.LastBatteryVolts.Value))
		b.WriteString(" volts")
	}
	b.WriteString(".")
	return b.String()
}

// fmtFloat trims trailing zeros for speech output.
func fmtFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
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

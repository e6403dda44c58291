package directive

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func one(t *testing.T, actions []Action) Action {
	t.Helper()
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}
	return actions[0]
}

func TestParseRecord_Movement(t *testing.T) {
	a := one(t, ParseRecord(Record{Type: "movement", Value: "forward"}))
	if a.Kind != KindMove || a.Direction != DirForward {
		t.Errorf("got %v/%v, want move/forward", a.Kind, a.Direction)
	}
	if !floatEquals(a.Magnitude, 1.0) {
		t.Errorf("magnitude: got %v, want 1.0", a.Magnitude)
	}

	stop := one(t, ParseRecord(Record{Type: "movement", Value: "stop"}))
	if stop.Direction != DirStop || stop.Magnitude != 0 {
		t.Errorf("stop: got %v/%v", stop.Direction, stop.Magnitude)
	}
}

func TestParseRecord_Autonomy(t *testing.T) {
	start := one(t, ParseRecord(Record{Type: "autonomy", Value: "start"}))
	if start.Kind != KindToggleAutonomy || !start.Enable {
		t.Errorf("start: got %v enable=%v", start.Kind, start.Enable)
	}
	stop := one(t, ParseRecord(Record{Type: "autonomy", Value: "stop"}))
	if stop.Kind != KindToggleAutonomy || stop.Enable {
		t.Errorf("stop: got %v enable=%v", stop.Kind, stop.Enable)
	}
}

func TestParseRecord_GripperToggle(t *testing.T) {
	a := one(t, ParseRecord(Record{Type: "gripper", Value: "toggle"}))
	if a.Kind != KindGripper || !a.Toggle {
		t.Errorf("got %v toggle=%v", a.Kind, a.Toggle)
	}
}

func TestParseRecord_ArmsTwoSided(t *testing.T) {
	actions := ParseRecord(Record{Type: "arms", Value: "set:0.3:0.7"})
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(actions))
	}
	if actions[0].Side != SideLeft || !floatEquals(actions[0].Value, 0.3) {
		t.Errorf("left: got %v/%v", actions[0].Side, actions[0].Value)
	}
	if actions[1].Side != SideRight || !floatEquals(actions[1].Value, 0.7) {
		t.Errorf("right: got %v/%v", actions[1].Side, actions[1].Value)
	}
}

func TestParseRecord_ArmClampNote(t *testing.T) {
	a := one(t, ParseRecord(Record{Type: "arms", Value: "set_left:1.5"}))
	if !floatEquals(a.Value, 1.0) {
		t.Errorf("value: got %v, want 1.0", a.Value)
	}
	if a.ClampNote == "" {
		t.Error("expected a clamp note for out-of-range arm position")
	}
}

func TestParseRecord_TuningTrim(t *testing.T) {
	a := one(t, ParseRecord(Record{Type: "tuning", Value: "trim_adj:left:0.05"}))
	if a.Kind != KindTrim || a.Side != SideLeft || a.Set {
		t.Errorf("got %v/%v set=%v", a.Kind, a.Side, a.Set)
	}
	if !floatEquals(a.Delta, 0.05) {
		t.Errorf("delta: got %v, want 0.05", a.Delta)
	}

	// Out of range trims clamp, never reject.
	big := one(t, ParseRecord(Record{Type: "tuning", Value: "trim_set:right:0.9"}))
	if !floatEquals(big.Delta, MaxTrim) {
		t.Errorf("clamped delta: got %v, want %v", big.Delta, MaxTrim)
	}
	if big.ClampNote == "" {
		t.Error("expected clamp note")
	}
}

func TestParseRecord_TuningSpeed(t *testing.T) {
	a := one(t, ParseRecord(Record{Type: "tuning", Value: "speed_set:2.5"}))
	if a.Kind != KindSetSpeed || a.SpeedOp != SpeedSet {
		t.Errorf("got %v/%v", a.Kind, a.SpeedOp)
	}
	if !floatEquals(a.Value, 1.0) {
		t.Errorf("clamped speed: got %v, want 1.0", a.Value)
	}

	adj := one(t, ParseRecord(Record{Type: "tuning", Value: "speed_adj:-0.1"}))
	if adj.SpeedOp != SpeedAdd || !floatEquals(adj.Value, -0.1) {
		t.Errorf("adj: got %v/%v", adj.SpeedOp, adj.Value)
	}
}

func TestParseRecord_VisionAndTask(t *testing.T) {
	q := one(t, ParseRecord(Record{Type: "vision", Value: "describe:orange_mug"}))
	if q.Kind != KindQuery || q.Topic != "orange_mug" {
		t.Errorf("got %v/%q", q.Kind, q.Topic)
	}
	all := one(t, ParseRecord(Record{Type: "vision", Value: "describe"}))
	if all.Topic != "" {
		t.Errorf("bare describe topic: got %q, want empty", all.Topic)
	}

	g := one(t, ParseRecord(Record{Type: "task", Value: "grab:red cube"}))
	if g.Kind != KindGrab || g.Topic != "red cube" {
		t.Errorf("got %v/%q", g.Kind, g.Topic)
	}
}

func TestParseRecord_UnknownNeverErrors(t *testing.T) {
	cases := []Record{
		{Type: "movement", Value: "sideways"},
		{Type: "tuning", Value: "trim_adj:middle:0.1"},
		{Type: "arms", Value: "set:abc:def"},
		{Type: "nonsense", Value: ""},
	}
	for _, rec := range cases {
		a := one(t, ParseRecord(rec))
		if a.Kind != KindUnknown {
			t.Errorf("%v: got %v, want unknown", rec, a.Kind)
		}
		if a.Raw == "" {
			t.Errorf("%v: unknown action lost its raw text", rec)
		}
	}
}

func TestParseText_Heuristics(t *testing.T) {
	tests := []struct {
		text string
		kind Kind
	}{
		{"please move forward", KindMove},
		{"back up a little", KindMove},
		{"stop right there", KindMove},
		{"speed up a bit", KindSetSpeed},
		{"slow down", KindSetSpeed},
		{"set speed to 0.5", KindSetSpeed},
		{"trim left motor by 0.05", KindTrim},
		{"reset trim", KindResetTrim},
		{"turn autonomy on", KindToggleAutonomy},
		{"open gripper", KindGripper},
		{"wave at them", KindPose},
		{"what do you see", KindQuery},
		{"sing me a song", KindUnknown},
	}
	for _, tc := range tests {
		a := ParseText(tc.text)
		if a.Kind != tc.kind {
			t.Errorf("%q: got %v, want %v", tc.text, a.Kind, tc.kind)
		}
	}
}

func TestParseText_SpeedUpIsRelative(t *testing.T) {
	a := ParseText("speed up a bit")
	if a.SpeedOp != SpeedScale || !floatEquals(a.Value, 1.1) {
		t.Errorf("got %v/%v, want scale/1.1", a.SpeedOp, a.Value)
	}
	b := ParseText("slow down")
	if b.SpeedOp != SpeedScale || !floatEquals(b.Value, 0.9) {
		t.Errorf("got %v/%v, want scale/0.9", b.SpeedOp, b.Value)
	}
}

func TestParseText_TrimDelta(t *testing.T) {
	a := ParseText("trim left motor by 0.05")
	if a.Side != SideLeft || !floatEquals(a.Delta, 0.05) {
		t.Errorf("got %v/%v", a.Side, a.Delta)
	}
	// "trim right" with a huge value clamps silently.
	b := ParseText("trim right by 3")
	if !floatEquals(b.Delta, MaxTrim) || b.ClampNote == "" {
		t.Errorf("got %v note=%q", b.Delta, b.ClampNote)
	}
}

func TestParseText_Magnitude(t *testing.T) {
	a := ParseText("forward at 0.5")
	if !floatEquals(a.Magnitude, 0.5) {
		t.Errorf("got %v, want 0.5", a.Magnitude)
	}
	// Spoken percentages read as fractions.
	b := ParseText("go straight at 50")
	if !floatEquals(b.Magnitude, 0.5) {
		t.Errorf("got %v, want 0.5", b.Magnitude)
	}
}

func TestParseText_StopBeatsDirection(t *testing.T) {
	a := ParseText("stop turning left")
	if a.Direction != DirStop {
		t.Errorf("got %v, want stop", a.Direction)
	}
}

func TestSafeUnderCriticalBattery(t *testing.T) {
	safe := []Action{
		New(KindQuery),
		New(KindToggleAutonomy),
		Stop(),
		{Kind: KindGripper, Open: false},
	}
	for _, a := range safe {
		if !a.SafeUnderCriticalBattery() {
			t.Errorf("%v should be safe under critical battery", a.Kind)
		}
	}

	unsafe := []Action{
		Move(DirForward, 0.5),
		Move(DirLeft, 0.5),
		{Kind: KindGripper, Open: true},
		{Kind: KindGripper, Toggle: true},
		New(KindPose),
		New(KindSetSpeed),
	}
	for _, a := range unsafe {
		if a.SafeUnderCriticalBattery() {
			t.Errorf("%v should not be safe under critical battery", a.Kind)
		}
	}
}

func TestMove_ClampsMagnitude(t *testing.T) {
	a := Move(DirForward, 3.0)
	if !floatEquals(a.Magnitude, 1.0) {
		t.Errorf("got %v, want 1.0", a.Magnitude)
	}
	if a.ClampNote == "" {
		t.Error("expected clamp note")
	}
	neg := Move(DirBackward, -0.5)
	if !floatEquals(neg.Magnitude, 0) {
		t.Errorf("got %v, want 0", neg.Magnitude)
	}
}

func TestActionIDsAreUnique(t *testing.T) {
	a, b := New(KindMove), New(KindMove)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty IDs, got %q and %q", a.ID, b.ID)
	}
}

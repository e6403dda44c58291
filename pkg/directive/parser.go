package directive

import (
	"regexp"
	"strconv"
	"strings"
)

// Record is the structured control shape produced by the chat control mode:
// a type tag plus a colon-separated value, e.g. {"tuning", "trim_adj:left:0.05"}.
type Record struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ParseRecord normalizes one control record into actions. Most records map to
// a single action; two-sided arm sets expand into one SetArm per side.
// Anything unrecognized becomes Unknown, never an error.
func ParseRecord(rec Record) []Action {
	value := strings.TrimSpace(rec.Value)
	switch rec.Type {
	case "movement":
		switch Direction(value) {
		case DirForward, DirBackward, DirLeft, DirRight:
			return []Action{Move(Direction(value), MaxMagnitude)}
		case DirStop:
			return []Action{Stop()}
		}
	case "autonomy":
		switch value {
		case "start", "stop":
			a := New(KindToggleAutonomy)
			a.Enable = value == "start"
			return []Action{a}
		}
	case "gesture":
		if value != "" {
			a := New(KindPose)
			a.Pose = strings.ToLower(value)
			return []Action{a}
		}
	case "gripper":
		switch value {
		case "open", "close", "toggle":
			a := New(KindGripper)
			a.Open = value == "open"
			a.Toggle = value == "toggle"
			return []Action{a}
		}
	case "arms":
		return parseArms(value)
	case "tuning":
		return parseTuning(value)
	case "vision":
		a := New(KindQuery)
		if _, detail, ok := strings.Cut(value, ":"); ok {
			a.Topic = detail
		}
		return []Action{a}
	case "speech":
		if value != "" {
			a := New(KindSay)
			a.Text = value
			return []Action{a}
		}
	case "task":
		if label, ok := strings.CutPrefix(value, "grab:"); ok && label != "" {
			a := New(KindGrab)
			a.Topic = label
			return []Action{a}
		}
	}
	return []Action{Unknown(rec.Type + ":" + rec.Value)}
}

// parseArms handles "set:l:r", "set_left:v", "set_right:v" and "adjust:l:r".
func parseArms(value string) []Action {
	parts := strings.Split(value, ":")
	if len(parts) < 2 {
		return []Action{Unknown("arms:" + value)}
	}
	mode := parts[0]
	nums := make([]float64, 0, 2)
	for _, p := range parts[1:] {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return []Action{Unknown("arms:" + value)}
		}
		nums = append(nums, v)
	}

	arm := func(side Side, v float64, relative bool) Action {
		a := New(KindSetArm)
		a.Side = side
		if relative {
			a.Delta = clamp(v, -1, 1)
			a.Set = false
		} else {
			a.Value, a.ClampNote = clampNoted(v, 0, 1, "arm position")
			a.Set = true
		}
		return a
	}

	switch {
	case mode == "set" && len(nums) == 2:
		return []Action{arm(SideLeft, nums[0], false), arm(SideRight, nums[1], false)}
	case mode == "set_left" && len(nums) >= 1:
		return []Action{arm(SideLeft, nums[0], false)}
	case mode == "set_right" && len(nums) >= 1:
		return []Action{arm(SideRight, nums[0], false)}
	case mode == "adjust" && len(nums) == 2:
		return []Action{arm(SideLeft, nums[0], true), arm(SideRight, nums[1], true)}
	}
	return []Action{Unknown("arms:" + value)}
}

// parseTuning handles speed_set, speed_adj, trim_reset, trim_set and trim_adj.
func parseTuning(value string) []Action {
	switch {
	case value == "trim_reset":
		return []Action{New(KindResetTrim)}
	case strings.HasPrefix(value, "speed_set:"), strings.HasPrefix(value, "speed_adj:"):
		op, raw, _ := strings.Cut(value, ":")
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return []Action{Unknown("tuning:" + value)}
		}
		a := New(KindSetSpeed)
		if op == "speed_set" {
			a.SpeedOp = SpeedSet
			a.Value, a.ClampNote = clampNoted(v, 0, 1, "speed")
		} else {
			a.SpeedOp = SpeedAdd
			a.Value = clamp(v, -1, 1)
		}
		return []Action{a}
	case strings.HasPrefix(value, "trim_set:"), strings.HasPrefix(value, "trim_adj:"):
		parts := strings.SplitN(value, ":", 3)
		if len(parts) != 3 {
			return []Action{Unknown("tuning:" + value)}
		}
		side := Side(parts[1])
		if side != SideLeft && side != SideRight {
			return []Action{Unknown("tuning:" + value)}
		}
		v, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return []Action{Unknown("tuning:" + value)}
		}
		a := New(KindTrim)
		a.Side = side
		a.Set = parts[0] == "trim_set"
		a.Delta, a.ClampNote = clampNoted(v, -MaxTrim, MaxTrim, "trim")
		return []Action{a}
	}
	return []Action{Unknown("tuning:" + value)}
}

var numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ParseText applies fallback keyword heuristics to free text from voice or
// teleop input. The heuristics only ever produce actions from the closed set;
// anything else becomes Unknown so the caller can narrate confusion instead
// of failing.
func ParseText(text string) Action {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return Unknown(text)
	}

	switch {
	case containsAny(t, "reset trim", "trim reset", "clear trim"):
		return New(KindResetTrim)

	case strings.Contains(t, "trim"):
		side := SideLeft
		if strings.Contains(t, "right") {
			side = SideRight
		} else if !strings.Contains(t, "left") {
			return Unknown(text)
		}
		v, ok := firstNumber(t)
		if !ok {
			return Unknown(text)
		}
		a := New(KindTrim)
		a.Side = side
		a.Delta, a.ClampNote = clampNoted(v, -MaxTrim, MaxTrim, "trim")
		return a

	case containsAny(t, "speed up", "faster"):
		a := New(KindSetSpeed)
		a.SpeedOp = SpeedScale
		a.Value = 1.1
		return a

	case containsAny(t, "slow down", "slower"):
		a := New(KindSetSpeed)
		a.SpeedOp = SpeedScale
		a.Value = 0.9
		return a

	case strings.Contains(t, "speed"):
		v, ok := firstNumber(t)
		if !ok {
			return Unknown(text)
		}
		a := New(KindSetSpeed)
		a.SpeedOp = SpeedSet
		a.Value, a.ClampNote = clampNoted(v, 0, 1, "speed")
		return a

	case strings.Contains(t, "autonomy"), strings.Contains(t, "auto mode"):
		a := New(KindToggleAutonomy)
		a.Enable = !containsAny(t, "stop", "off", "disable", "end")
		return a

	case containsAny(t, "open gripper", "open the gripper", "let go", "release"):
		a := New(KindGripper)
		a.Open = true
		return a

	case containsAny(t, "close gripper", "close the gripper", "grip", "grab"):
		a := New(KindGripper)
		return a

	case containsAny(t, "wave", "point", "nod", "salute"), strings.Contains(t, "rest pose"):
		a := New(KindPose)
		for _, name := range []string{"wave", "point", "nod", "salute", "rest"} {
			if strings.Contains(t, name) {
				a.Pose = name
				break
			}
		}
		return a

	case containsAny(t, "what do you see", "look around", "describe"):
		a := New(KindQuery)
		return a

	case strings.Contains(t, "stop"):
		return Stop()

	case containsAny(t, "forward", "ahead", "go straight"):
		return Move(DirForward, textMagnitude(t))
	case containsAny(t, "backward", "back up", "reverse"):
		return Move(DirBackward, textMagnitude(t))
	case strings.Contains(t, "left"):
		return Move(DirLeft, textMagnitude(t))
	case strings.Contains(t, "right"):
		return Move(DirRight, textMagnitude(t))
	}

	return Unknown(text)
}

// textMagnitude pulls an explicit magnitude out of phrases like
// "forward at 0.5", defaulting to full speed.
func textMagnitude(t string) float64 {
	if v, ok := firstNumber(t); ok && v > 0 {
		if v > 1 {
			// Spoken percentages: "at 50" means half speed.
			v = v / 100
		}
		return v
	}
	return MaxMagnitude
}

func firstNumber(t string) (float64, bool) {
	m := numberRe.FindString(t)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func containsAny(t string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(t, s) {
			return true
		}
	}
	return false
}

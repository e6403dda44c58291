package chat

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-walle/pkg/directive"
)

// Fallback is the rule-based controller used when no language model is
// configured or the model call fails. It only emits record shapes the
// directive parser already understands.
type Fallback struct {
	// Attitude flavors the spoken acknowledgement: friendly, cheerful, grumpy.
	Attitude string
}

// GenerateControlReply matches keywords against the utterance. It never
// returns an error: an utterance with no recognizable command yields a
// speech-only reply.
func (f Fallback) GenerateControlReply(userText string) (ControlReply, error) {
	t := strings.ToLower(userText)
	var actions []directive.Record

	add := func(typ, value string) {
		actions = append(actions, directive.Record{Type: typ, Value: value})
	}

	switch {
	case containsAny(t, "start autonomy", "autonomy mode", "autonomy on", "enable autonomy"):
		add("autonomy", "start")
	case containsAny(t, "stop autonomy", "autonomy off", "disable autonomy"):
		add("autonomy", "stop")
	}

	switch {
	case strings.Contains(t, "stop"):
		if len(actions) == 0 {
			add("movement", "stop")
		}
	case containsAny(t, "forward", "ahead", "straight"):
		add("movement", "forward")
	case containsAny(t, "backward", "back up", "reverse"):
		add("movement", "backward")
	case strings.Contains(t, "turn left"):
		add("movement", "left")
	case strings.Contains(t, "turn right"):
		add("movement", "right")
	}

	for _, gesture := range []string{"wave", "point", "nod", "salute"} {
		if strings.Contains(t, gesture) {
			add("gesture", gesture)
			break
		}
	}

	switch {
	case containsAny(t, "grab", "pick up"):
		add("gripper", "close")
		if label := objectAfter(t, "grab ", "pick up "); label != "" {
			add("task", "grab:"+label)
		}
	case containsAny(t, "release", "let go", "drop it", "open the gripper", "open gripper"):
		add("gripper", "open")
	}

	switch {
	case containsAny(t, "what do you see", "look around", "describe your surroundings"):
		add("vision", "describe")
	case strings.Contains(t, "do you see"):
		if label := objectAfter(t, "do you see "); label != "" {
			add("vision", "describe:"+strings.ReplaceAll(label, " ", "_"))
		} else {
			add("vision", "describe")
		}
	}

	switch {
	case containsAny(t, "speed up", "faster"):
		add("tuning", "speed_adj:0.1")
	case containsAny(t, "slow down", "slower"):
		add("tuning", "speed_adj:-0.1")
	case containsAny(t, "reset trim", "trim reset"):
		add("tuning", "trim_reset")
	}

	return ControlReply{Speech: f.acknowledge(userText, actions), Actions: actions}, nil
}

// acknowledge builds the spoken response in the configured attitude.
func (f Fallback) acknowledge(userText string, actions []directive.Record) string {
	if len(actions) == 0 {
		switch f.Attitude {
		case "grumpy":
			return fmt.Sprintf("Ugh. You said: %s. Figure it out yourself.", userText)
		case "cheerful":
			return fmt.Sprintf("You said: %s. That's awesome, but I don't know what to do with it!", userText)
		default:
			return fmt.Sprintf("I heard: %s. How can I help further?", userText)
		}
	}
	switch f.Attitude {
	case "grumpy":
		return "Fine. Doing it."
	case "cheerful":
		return "On it, right away!"
	default:
		return "Okay, on it."
	}
}

// objectAfter extracts a short object phrase following one of the markers:
// "grab the red cube" yields "red cube".
func objectAfter(t string, markers ...string) string {
	for _, marker := range markers {
		_, rest, ok := strings.Cut(t, marker)
		if !ok {
			continue
		}
		rest = strings.TrimPrefix(rest, "the ")
		rest = strings.TrimPrefix(rest, "a ")
		// Cut at the first clause break.
		if i := strings.IndexAny(rest, ".,!?"); i >= 0 {
			rest = rest[:i]
		}
		words := strings.Fields(rest)
		if len(words) > 3 {
			words = words[:3]
		}
		if len(words) == 0 {
			continue
		}
		return strings.Join(words, " ")
	}
	return ""
}

func containsAny(t string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(t, s) {
			return true
		}
	}
	return false
}

package chat

import (
	"strings"
	"testing"

	"github.com/teslashibe/go-walle/pkg/directive"
)

func reply(t *testing.T, text string) ControlReply {
	t.Helper()
	r, err := Fallback{}.GenerateControlReply(text)
	if err != nil {
		t.Fatalf("fallback errored: %v", err)
	}
	if r.Speech == "" {
		t.Errorf("%q: speech should never be empty", text)
	}
	return r
}

func hasAction(r ControlReply, typ, value string) bool {
	for _, a := range r.Actions {
		if a.Type == typ && a.Value == value {
			return true
		}
	}
	return false
}

func TestFallback_Movement(t *testing.T) {
	r := reply(t, "Please move forward for me")
	if !hasAction(r, "movement", "forward") {
		t.Errorf("got %+v, want movement/forward", r.Actions)
	}
}

func TestFallback_AutonomyStartStop(t *testing.T) {
	if r := reply(t, "Can you start autonomy mode?"); !hasAction(r, "autonomy", "start") {
		t.Errorf("got %+v, want autonomy/start", r.Actions)
	}
	r := reply(t, "Stop autonomy now")
	if !hasAction(r, "autonomy", "stop") {
		t.Errorf("got %+v, want autonomy/stop", r.Actions)
	}
	if hasAction(r, "movement", "stop") {
		t.Error("autonomy stop should not also emit a movement stop")
	}
}

func TestFallback_Gesture(t *testing.T) {
	if r := reply(t, "Wave to the humans!"); !hasAction(r, "gesture", "wave") {
		t.Errorf("got %+v, want gesture/wave", r.Actions)
	}
}

func TestFallback_GrabEmitsGripperAndTask(t *testing.T) {
	r := reply(t, "Grab that cube!")
	if !hasAction(r, "gripper", "close") {
		t.Errorf("got %+v, want gripper/close", r.Actions)
	}
	var task string
	for _, a := range r.Actions {
		if a.Type == "task" {
			task = a.Value
		}
	}
	if !strings.HasPrefix(task, "grab:") {
		t.Errorf("task value: got %q, want grab:<label>", task)
	}
}

func TestFallback_Release(t *testing.T) {
	if r := reply(t, "Release the cube now"); !hasAction(r, "gripper", "open") {
		t.Errorf("got %+v, want gripper/open", r.Actions)
	}
}

func TestFallback_Vision(t *testing.T) {
	if r := reply(t, "What do you see around you?"); !hasAction(r, "vision", "describe") {
		t.Errorf("got %+v, want vision/describe", r.Actions)
	}
	if r := reply(t, "Do you see the orange mug?"); !hasAction(r, "vision", "describe:orange_mug") {
		t.Errorf("got %+v, want vision/describe:orange_mug", r.Actions)
	}
}

func TestFallback_Tuning(t *testing.T) {
	if r := reply(t, "Speed up a bit"); !hasAction(r, "tuning", "speed_adj:0.1") {
		t.Errorf("got %+v", r.Actions)
	}
	if r := reply(t, "Please reset trim"); !hasAction(r, "tuning", "trim_reset") {
		t.Errorf("got %+v", r.Actions)
	}
}

func TestFallback_ChitChatIsSpeechOnly(t *testing.T) {
	r := reply(t, "How are you today?")
	if len(r.Actions) != 0 {
		t.Errorf("chit-chat produced actions: %+v", r.Actions)
	}
}

func TestFallback_ActionsParseCleanly(t *testing.T) {
	// Every record the fallback emits must be understood by the parser.
	utterances := []string{
		"Please move forward for me",
		"Can you start autonomy mode?",
		"Wave to the humans!",
		"Grab that cube!",
		"Release the cube now",
		"What do you see around you?",
		"Speed up a bit",
	}
	for _, u := range utterances {
		r := reply(t, u)
		for _, rec := range r.Actions {
			for _, a := range directive.ParseRecord(rec) {
				if a.Kind == directive.KindUnknown {
					t.Errorf("%q: record %+v parsed to unknown", u, rec)
				}
			}
		}
	}
}

func TestFallback_AttitudeChangesSpeech(t *testing.T) {
	grumpy, _ := Fallback{Attitude: "grumpy"}.GenerateControlReply("move forward")
	cheerful, _ := Fallback{Attitude: "cheerful"}.GenerateControlReply("move forward")
	if grumpy.Speech == cheerful.Speech {
		t.Error("attitudes should produce different acknowledgements")
	}
}

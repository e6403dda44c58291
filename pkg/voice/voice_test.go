package voice

import (
	"sync"
	"testing"
)

func TestFunc_Adapts(t *testing.T) {
	var (
		mu    sync.Mutex
		lines []string
	)
	var s Speaker = Func(func(text string) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, text)
	})

	s.Say("hello")
	s.Say("world")

	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 2 || lines[0] != "hello" {
		t.Errorf("got %v", lines)
	}
}

func TestConsole_ImplementsSpeaker(t *testing.T) {
	var _ Speaker = NewConsole(nil)
}

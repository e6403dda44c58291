// Package voice provides the spoken-output collaborator. The core treats
// speech as fire-and-forget: a Speaker either reaches a real TTS backend or
// logs the line, and failures never propagate into the control loops.
package voice

import (
	"errors"
	"log/slog"
)

// Sentinel errors for speaker backends.
var (
	// ErrNoAPIKey is returned when a cloud speaker is built without a key.
	ErrNoAPIKey = errors.New("voice: API key required")

	// ErrNotConnected is returned when speaking before Connect.
	ErrNotConnected = errors.New("voice: not connected")
)

// Speaker speaks one line of text. Fire-and-forget from the caller's
// perspective: implementations own their own error handling and timeouts.
type Speaker interface {
	Say(text string)
}

// Console logs speech instead of synthesizing it. This is the simulation
// fallback used in development.
type Console struct {
	Logger *slog.Logger
}

// NewConsole creates a console speaker.
func NewConsole(logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{Logger: logger.With("component", "voice.console")}
}

// Say logs the line under a TTS marker.
func (c *Console) Say(text string) {
	c.Logger.Info("[TTS] "+text, "speaker", "console")
}

// Func adapts a function to the Speaker interface.
type Func func(text string)

func (f Func) Say(text string) { f(text) }

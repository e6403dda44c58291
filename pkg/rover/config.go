package rover

import (
	"time"

	"github.com/teslashibe/go-walle/internal/config"
	"github.com/teslashibe/go-walle/pkg/autonomy"
	"github.com/teslashibe/go-walle/pkg/safety"
)

// Config is the full runtime configuration for the rover stack.
type Config struct {
	Debug bool

	// Sim runs every hardware collaborator in simulation.
	Sim bool

	// MotorIP is the motor daemon address; empty falls back to the
	// WALLE_MOTOR_IP environment variable.
	MotorIP string

	// HTTPAddr is the teleop dashboard listen address; empty disables it.
	HTTPAddr string

	// PersonaPath points at a YAML persona file; empty uses the default.
	PersonaPath string

	// ProfilesPath points at a YAML color-profile file for perception.
	ProfilesPath string

	CameraIndex int

	// Keys, read from the environment by the caller.
	OpenAIKey       string
	GoogleAPIKey    string
	ElevenLabsKey   string
	ElevenLabsVoice string

	ChatModel string

	// StdinChat reads conversational commands from standard input.
	StdinChat bool

	Thresholds safety.Thresholds
	Autonomy   autonomy.Config

	// StatePublishInterval is how often the dashboard state stream ticks.
	StatePublishInterval time.Duration
}

// DefaultConfig returns a simulation-friendly configuration.
func DefaultConfig() Config {
	return Config{
		Sim:                  true,
		MotorIP:              config.MotorIP(""),
		HTTPAddr:             ":8081",
		CameraIndex:          0,
		StdinChat:            true,
		Thresholds:           safety.DefaultThresholds(),
		Autonomy:             autonomy.DefaultConfig(),
		StatePublishInterval: time.Second,
	}
}

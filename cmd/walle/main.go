// WALL-E rover control stack: conversational teleop, safety interlock and
// background obstacle avoidance in one process.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-walle/pkg/rover"
)

func main() {
	cfg := parseFlags()

	app, err := rover.New(cfg)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	if err := app.Init(); err != nil {
		log.Fatalf("initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("runtime error: %v", err)
	}
}

func parseFlags() rover.Config {
	cfg := rover.DefaultConfig()

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	sim := flag.Bool("sim", cfg.Sim, "Run all hardware collaborators in simulation")
	motorIP := flag.String("motor-ip", "", "Motor daemon IP (overrides WALLE_MOTOR_IP)")
	httpAddr := flag.String("http", cfg.HTTPAddr, "Teleop dashboard listen address, empty to disable")
	personaPath := flag.String("persona", "", "YAML persona file")
	profilesPath := flag.String("profiles", "", "YAML color-profile file for perception")
	camera := flag.Int("camera", cfg.CameraIndex, "Camera device index")
	noStdin := flag.Bool("no-stdin", false, "Disable the stdin chat loop")
	voiceID := flag.String("tts-voice", "", "ElevenLabs voice ID")
	flag.Parse()

	cfg.Debug = *debug
	cfg.Sim = *sim
	cfg.HTTPAddr = *httpAddr
	cfg.PersonaPath = *personaPath
	cfg.ProfilesPath = *profilesPath
	cfg.CameraIndex = *camera
	cfg.StdinChat = !*noStdin
	if *motorIP != "" {
		cfg.MotorIP = *motorIP
	}

	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	cfg.ElevenLabsKey = os.Getenv("ELEVENLABS_API_KEY")
	cfg.ElevenLabsVoice = *voiceID
	if cfg.ElevenLabsVoice == "" {
		cfg.ElevenLabsVoice = os.Getenv("ELEVENLABS_VOICE_ID")
	}
	return cfg
}

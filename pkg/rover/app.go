// Package rover assembles the full control stack: state store, safety
// interlock, orchestrator, autonomy loop, perception, chat, voice and the
// teleop dashboard. Binaries construct an App and run it; all wiring policy
// lives here.
package rover

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/teslashibe/go-walle/internal/config"
	"github.com/teslashibe/go-walle/internal/log"
	"github.com/teslashibe/go-walle/pkg/arm"
	"github.com/teslashibe/go-walle/pkg/autonomy"
	"github.com/teslashibe/go-walle/pkg/chat"
	"github.com/teslashibe/go-walle/pkg/directive"
	"github.com/teslashibe/go-walle/pkg/motor"
	"github.com/teslashibe/go-walle/pkg/orchestrator"
	"github.com/teslashibe/go-walle/pkg/percept"
	"github.com/teslashibe/go-walle/pkg/persona"
	"github.com/teslashibe/go-walle/pkg/power"
	"github.com/teslashibe/go-walle/pkg/safety"
	"github.com/teslashibe/go-walle/pkg/sensors"
	"github.com/teslashibe/go-walle/pkg/state"
	"github.com/teslashibe/go-walle/pkg/voice"
	"github.com/teslashibe/go-walle/pkg/web"
)

// App is the assembled rover.
type App struct {
	cfg Config

	store      *state.Store
	orch       *orchestrator.Orchestrator
	driver     *autonomy.Driver
	monitor    *power.Monitor
	server     *web.Server
	chatCtl    chat.Controller
	recognizer *percept.Recognizer
	adapter    *persona.Adapter

	speaker    voice.Speaker
	elevenlabs *voice.ElevenLabsWS
	blob       *percept.BlobDetector
	ultrasonic *sensors.SimUltrasonic
}

// New validates the configuration and returns an unstarted app.
func New(cfg Config) (*App, error) {
	if cfg.Thresholds == (safety.Thresholds{}) {
		cfg.Thresholds = safety.DefaultThresholds()
	}
	if cfg.Thresholds.ResumeCM <= cfg.Thresholds.HaltCM {
		return nil, errors.New("rover: resume clearance must exceed halt clearance")
	}
	return &App{cfg: cfg}, nil
}

// Init builds every collaborator. Hardware that fails to initialize falls
// back to simulation rather than aborting startup.
func (a *App) Init() error {
	level := "info"
	if a.cfg.Debug {
		level = "debug"
	}
	log.Init(level)

	a.store = state.New()

	p := persona.Default()
	if a.cfg.PersonaPath != "" {
		loaded, err := persona.Load(a.cfg.PersonaPath)
		if err != nil {
			return fmt.Errorf("load persona: %w", err)
		}
		p = loaded
	}
	a.adapter = persona.NewAdapter(p)

	a.speaker = voice.NewConsole(log.L())
	if a.cfg.ElevenLabsKey != "" {
		el, err := voice.NewElevenLabsWS(a.cfg.ElevenLabsKey, a.cfg.ElevenLabsVoice, log.L())
		if err != nil {
			log.Warn("elevenlabs speaker unavailable, using console", "error", err)
		} else {
			a.elevenlabs = el
			a.speaker = el
		}
	}

	var (
		motors motor.Controller
		arms   arm.Controller
	)
	if a.cfg.Sim {
		motors = motor.NewSimController(0.5, log.L())
		arms = arm.NewSimController(log.L())
	} else {
		base := config.MotorAPIURL(a.cfg.MotorIP)
		motors = motor.NewHTTPController(base)
		arms = arm.NewHTTPController(base)
	}

	// Distance always comes from the simulated ultrasonic for now; the real
	// rangefinder sits behind the motor daemon and is not exposed yet.
	// Battery reads the ADC bridge's env export.
	a.ultrasonic = sensors.NewSimUltrasonic()
	battery := sensors.EnvBattery{}
	reader := sensors.Combined{Distance: a.ultrasonic, Battery: battery}

	a.recognizer = a.buildRecognizer()
	a.chatCtl = a.buildChat(p)

	a.monitor = power.NewMonitor(battery, power.DefaultConfig(), log.L())

	a.orch = orchestrator.New(orchestrator.Deps{
		Store:    a.store,
		Sensors:  reader,
		Motors:   motors,
		Arms:     arms,
		Speaker:  a.speaker,
		Percept:  a.recognizer,
		Shutdown: power.NewSafeShutdown(a.cfg.Sim, log.L()),
		Persona:  a.adapter,
		Logger:   log.L(),
	}, a.cfg.Thresholds)

	a.driver = autonomy.New(a.orch, a.ultrasonic, a.store, a.cfg.Autonomy, log.L())

	if a.cfg.HTTPAddr != "" {
		a.server = web.NewServer(a.cfg.HTTPAddr, a.store)
		a.server.OnDirective = func(rec directive.Record) error {
			a.orch.SubmitRecord(rec)
			return nil
		}
		a.server.OnChat = a.handleUtterance
		a.server.OnObservations = func() ([]percept.Observation, error) {
			return a.recognizer.Observations(), nil
		}
		a.orch.OnVerdict = a.narrateVerdict
	}

	return nil
}

// buildRecognizer stacks the perception tiers that are actually available:
// cloud vision when a key is present, the camera blob detector when not in
// simulation, deterministic simulation always.
func (a *App) buildRecognizer() *percept.Recognizer {
	profiles := percept.DefaultProfiles
	if a.cfg.ProfilesPath != "" {
		loaded, err := percept.LoadProfiles(a.cfg.ProfilesPath)
		if err != nil {
			log.Warn("color profiles unavailable, using defaults", "error", err)
		} else {
			profiles = loaded
		}
	}

	opts := []percept.Option{percept.WithProfiles(profiles)}

	if !a.cfg.Sim {
		blob, err := percept.NewBlobDetector(a.cfg.CameraIndex, profiles, log.L())
		if err != nil {
			log.Warn("camera unavailable, perception degrades to simulation", "error", err)
		} else {
			a.blob = blob
			opts = append(opts, percept.WithLocal(blob))

			if a.cfg.GoogleAPIKey != "" {
				cloud, err := percept.NewCloudDetector(context.Background(),
					percept.CloudConfig{APIKey: a.cfg.GoogleAPIKey}, blob, log.L())
				if err != nil {
					log.Warn("cloud vision unavailable", "error", err)
				} else {
					opts = append(opts, percept.WithRemote(cloud))
				}
			}
		}
	}

	return percept.NewRecognizer(log.L(), opts...)
}

// buildChat prefers the model-backed controller, with the keyword fallback
// both inside it and as the standalone controller when no key is set.
func (a *App) buildChat(p persona.Persona) chat.Controller {
	fallback := chat.Fallback{Attitude: p.Tone}
	if a.cfg.OpenAIKey == "" {
		return fallback
	}
	personaText := fmt.Sprintf("Tone: %s. Prefix: %s. Catchphrase: %s.", p.Tone, p.Prefix, p.Catchphrase)
	ctl, err := chat.NewOpenAI(a.cfg.OpenAIKey, a.cfg.ChatModel, personaText, fallback, log.L())
	if err != nil {
		log.Warn("openai chat unavailable, using fallback", "error", err)
		return fallback
	}
	return ctl
}

// Run starts the background loops and blocks until ctx is cancelled, then
// drains: autonomy off, final stop, gripper safe.
func (a *App) Run(ctx context.Context) error {
	if a.elevenlabs != nil {
		if err := a.elevenlabs.Connect(ctx); err != nil {
			log.Warn("elevenlabs connect failed, using console voice", "error", err)
			a.speaker = voice.NewConsole(log.L())
		}
	}

	go a.monitor.Watch(ctx, a.store)
	go a.driver.Run(ctx)

	if a.server != nil {
		a.server.StartAsync()
		go a.publishState(ctx)
	}
	if a.cfg.StdinChat {
		go a.stdinLoop(ctx)
	}

	log.Info("rover running", "sim", a.cfg.Sim, "http", a.cfg.HTTPAddr)
	<-ctx.Done()

	a.orch.Drain()
	return nil
}

// Shutdown releases external resources. Call after Run returns.
func (a *App) Shutdown() {
	if a.server != nil {
		if err := a.server.Shutdown(); err != nil {
			log.Warn("dashboard shutdown failed", "error", err)
		}
	}
	if a.elevenlabs != nil {
		a.elevenlabs.Close()
	}
	if a.blob != nil {
		a.blob.Close()
	}
}

// Submit exposes the orchestrator path for auxiliary binaries.
func (a *App) Submit(d directive.Action) safety.Verdict {
	return a.orch.Submit(d)
}

// SubmitText parses free text and submits it.
func (a *App) SubmitText(text string) safety.Verdict {
	return a.orch.SubmitText(text)
}

// DescribeState returns a short spoken status line.
func (a *App) DescribeState() string {
	return a.orch.DescribeState()
}

// handleUtterance runs one conversational turn: chat controller first, then
// action submission, with the plain text parser as the last resort.
func (a *App) handleUtterance(text string) (chat.ControlReply, error) {
	reply, err := a.chatCtl.GenerateControlReply(text)
	if err != nil {
		a.orch.SubmitText(text)
		return chat.ControlReply{}, err
	}

	if reply.Speech != "" {
		say := directive.New(directive.KindSay)
		say.Text = reply.Speech
		a.orch.Submit(say)
	}
	for _, rec := range reply.Actions {
		a.orch.SubmitRecord(rec)
	}
	if reply.Speech == "" && len(reply.Actions) == 0 {
		a.orch.SubmitText(text)
	}
	return reply, nil
}

// stdinLoop reads conversational commands from standard input until EOF or
// cancellation.
func (a *App) stdinLoop(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("WALL-E ready. Type a command, or 'quit'.")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			log.Info("stdin chat closed by user")
			return
		}
		if _, err := a.handleUtterance(line); err != nil {
			log.Warn("chat turn failed", "error", err)
		}
	}
}

// publishState ticks store snapshots out to dashboard subscribers.
func (a *App) publishState(ctx context.Context) {
	interval := a.cfg.StatePublishInterval
	if interval <= 0 {
		interval = DefaultConfig().StatePublishInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.server.PublishState()
		}
	}
}

// narrateVerdict mirrors orchestrator outcomes into the dashboard feed.
func (a *App) narrateVerdict(d directive.Action, v safety.Verdict) {
	if a.server == nil {
		return
	}
	switch v.Decision {
	case safety.Deny:
		a.server.AddNarration("safety", fmt.Sprintf("denied %s: %s", d.Kind, v.Reason))
	case safety.Downgrade:
		a.server.AddNarration("safety", fmt.Sprintf("downgraded %s: %s", d.Kind, v.Reason))
	default:
		a.server.AddNarration("action", string(d.Kind))
	}
}

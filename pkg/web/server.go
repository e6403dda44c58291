// Package web serves the teleop dashboard: REST control endpoints plus
// websocket streams for live state and narration.
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-walle/internal/log"
	"github.com/teslashibe/go-walle/pkg/chat"
	"github.com/teslashibe/go-walle/pkg/directive"
	"github.com/teslashibe/go-walle/pkg/hub"
	"github.com/teslashibe/go-walle/pkg/percept"
	"github.com/teslashibe/go-walle/pkg/state"
)

// NarrationEntry is one line of the rover's running commentary.
type NarrationEntry struct {
	Time    string `json:"time"`
	Kind    string `json:"kind"` // action, safety, speech, error
	Message string `json:"message"`
}

const narrationCap = 500

// Server is the dashboard server. Control flows through the callback
// fields so the web layer stays ignorant of orchestration internals.
type Server struct {
	app   *fiber.App
	addr  string
	store *state.Store

	narration   []NarrationEntry
	narrationMu sync.RWMutex

	stateHub     *hub.Hub
	narrationHub *hub.Hub

	// OnDirective submits a parsed control record to the orchestrator.
	OnDirective func(rec directive.Record) error

	// OnChat runs free text through the chat controller and returns the
	// reply after its actions have been submitted.
	OnChat func(text string) (chat.ControlReply, error)

	// OnObservations asks the perception stack what the rover sees.
	OnObservations func() ([]percept.Observation, error)
}

// NewServer wires the routes. store backs GET /api/state and the state
// stream; it is read-only here.
func NewServer(addr string, store *state.Store) *Server {
	s := &Server{
		addr:         addr,
		store:        store,
		narration:    make([]NarrationEntry, 0, narrationCap),
		stateHub:     hub.New("state"),
		narrationHub: hub.New("narration"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "WALL-E Teleop",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())
	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Post("/directive", s.handleDirective)
	api.Post("/chat", s.handleChat)
	api.Get("/observations", s.handleObservations)
	api.Get("/narration", s.handleNarration)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/state", websocket.New(s.handleStateWS))
	app.Get("/ws/narration", websocket.New(s.handleNarrationWS))

	s.app = app
	return s
}

// Start runs the hubs and listens. Blocks until Shutdown.
func (s *Server) Start() error {
	log.Info("teleop dashboard listening", "addr", s.addr)
	go s.stateHub.Run()
	go s.narrationHub.Run()
	return s.app.Listen(s.addr)
}

// StartAsync serves in a goroutine, logging any listen failure.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("teleop server stopped", "error", err)
		}
	}()
}

// PublishState snapshots the store and broadcasts it to state subscribers.
func (s *Server) PublishState() {
	s.stateHub.BroadcastJSON(s.store.Snapshot())
}

// AddNarration records a commentary line and broadcasts it.
func (s *Server) AddNarration(kind, message string) {
	entry := NarrationEntry{
		Time:    time.Now().Format("15:04:05"),
		Kind:    kind,
		Message: message,
	}

	s.narrationMu.Lock()
	s.narration = append(s.narration, entry)
	if len(s.narration) > narrationCap {
		s.narration = s.narration[1:]
	}
	s.narrationMu.Unlock()

	s.narrationHub.BroadcastJSON(entry)
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

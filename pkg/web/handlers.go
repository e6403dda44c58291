package web

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-walle/pkg/directive"
	"github.com/teslashibe/go-walle/pkg/hub"
)

// handleState returns the current store snapshot.
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.store.Snapshot())
}

// handleDirective accepts a raw control record and submits it.
func (s *Server) handleDirective(c *fiber.Ctx) error {
	var rec directive.Record
	if err := c.BodyParser(&rec); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "body must be a {type, value} record",
		})
	}
	if rec.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "type is required",
		})
	}

	if s.OnDirective == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "directive handling not configured",
		})
	}
	if err := s.OnDirective(rec); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"accepted": true})
}

type chatRequest struct {
	Text string `json:"text"`
}

// handleChat runs free text through the chat controller.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "text is required",
		})
	}

	if s.OnChat == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "chat not configured",
		})
	}
	reply, err := s.OnChat(req.Text)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(reply)
}

// handleObservations reports what the perception stack currently sees.
func (s *Server) handleObservations(c *fiber.Ctx) error {
	if s.OnObservations == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "perception not configured",
		})
	}
	obs, err := s.OnObservations()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(obs)
}

// handleNarration returns the buffered commentary lines.
func (s *Server) handleNarration(c *fiber.Ctx) error {
	s.narrationMu.RLock()
	defer s.narrationMu.RUnlock()
	return c.JSON(s.narration)
}

// handleStateWS streams state snapshots, starting with the current one.
func (s *Server) handleStateWS(c *websocket.Conn) {
	if snap, err := json.Marshal(s.store.Snapshot()); err == nil {
		c.WriteMessage(websocket.TextMessage, snap)
	}
	hub.NewClient(s.stateHub, c).Run()
}

// handleNarrationWS replays the buffer then streams new lines.
func (s *Server) handleNarrationWS(c *websocket.Conn) {
	s.narrationMu.RLock()
	for _, entry := range s.narration {
		c.WriteJSON(entry)
	}
	s.narrationMu.RUnlock()

	hub.NewClient(s.narrationHub, c).Run()
}

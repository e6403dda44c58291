package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/teslashibe/go-walle/pkg/chat"
	"github.com/teslashibe/go-walle/pkg/directive"
	"github.com/teslashibe/go-walle/pkg/percept"
	"github.com/teslashibe/go-walle/pkg/state"
)

func newTestServer() *Server {
	return NewServer(":0", state.New())
}

func TestHandleState(t *testing.T) {
	s := newTestServer()
	s.store.SetSpeedScale(0.5)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/state", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}

	var snap state.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.SpeedScale != 0.5 {
		t.Errorf("speed scale: got %v, want 0.5", snap.SpeedScale)
	}
}

func TestHandleDirective(t *testing.T) {
	s := newTestServer()
	var got directive.Record
	s.OnDirective = func(rec directive.Record) error {
		got = rec
		return nil
	}

	body, _ := json.Marshal(directive.Record{Type: "movement", Value: "forward"})
	req := httptest.NewRequest(http.MethodPost, "/api/directive", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	if got.Type != "movement" || got.Value != "forward" {
		t.Errorf("submitted record: got %+v", got)
	}
}

func TestHandleDirective_RequiresType(t *testing.T) {
	s := newTestServer()
	s.OnDirective = func(directive.Record) error { return nil }

	req := httptest.NewRequest(http.MethodPost, "/api/directive", bytes.NewReader([]byte(`{"value":"forward"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}

func TestHandleDirective_Unconfigured(t *testing.T) {
	s := newTestServer()

	body, _ := json.Marshal(directive.Record{Type: "movement", Value: "stop"})
	req := httptest.NewRequest(http.MethodPost, "/api/directive", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", resp.StatusCode)
	}
}

func TestHandleChat(t *testing.T) {
	s := newTestServer()
	s.OnChat = func(text string) (chat.ControlReply, error) {
		return chat.ControlReply{
			Speech:  "On it.",
			Actions: []directive.Record{{Type: "movement", Value: "forward"}},
		}, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte(`{"text":"move forward"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}

	var reply chat.ControlReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.Speech != "On it." || len(reply.Actions) != 1 {
		t.Errorf("got %+v", reply)
	}
}

func TestHandleChat_ErrorBubbles(t *testing.T) {
	s := newTestServer()
	s.OnChat = func(string) (chat.ControlReply, error) {
		return chat.ControlReply{}, errors.New("model offline")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte(`{"text":"hi"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", resp.StatusCode)
	}
}

func TestHandleObservations(t *testing.T) {
	s := newTestServer()
	s.OnObservations = func() ([]percept.Observation, error) {
		return []percept.Observation{{Label: "red_cube", DistanceCM: 40}}, nil
	}

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/observations", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}

	var obs []percept.Observation
	if err := json.NewDecoder(resp.Body).Decode(&obs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(obs) != 1 || obs[0].Label != "red_cube" {
		t.Errorf("got %+v", obs)
	}
}

func TestHandleNarration_Buffer(t *testing.T) {
	s := newTestServer()
	go s.narrationHub.Run()
	s.AddNarration("safety", "denied move: critical_battery")

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/narration", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var entries []NarrationEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != "safety" {
		t.Errorf("got %+v", entries)
	}
}

func TestAddNarration_CapsBuffer(t *testing.T) {
	s := newTestServer()
	go s.narrationHub.Run()
	for i := 0; i < narrationCap+50; i++ {
		s.AddNarration("action", "move")
	}
	s.narrationMu.RLock()
	n := len(s.narration)
	s.narrationMu.RUnlock()
	if n != narrationCap {
		t.Errorf("buffer size: got %d, want %d", n, narrationCap)
	}
}

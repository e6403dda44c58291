package motor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/teslashibe/go-walle/internal/httpc"
)

// httpClient has a short timeout so a wedged daemon cannot stall the
// control loops. Shared by all HTTPController instances.
var httpClient = httpc.NewClient(2 * time.Second)

// HTTPController implements Controller using the motor daemon's HTTP API.
// This is the primary controller on real hardware.
type HTTPController struct {
	BaseURL string
}

// NewHTTPController creates an HTTP-based motor controller for the daemon
// listening on the rover.
func NewHTTPController(baseURL string) *HTTPController {
	return &HTTPController{BaseURL: baseURL}
}

// Drive posts per-side speeds to the daemon.
func (c *HTTPController) Drive(left, right float64) error {
	payload := map[string]float64{
		"left":  clamp(left, -1, 1),
		"right": clamp(right, -1, 1),
	}
	return c.post("/api/motors/drive", payload)
}

// Stop halts both motors.
func (c *HTTPController) Stop() error {
	return c.post("/api/motors/stop", nil)
}

func (c *HTTPController) post(path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal motor payload: %w", err)
	}

	resp, err := httpClient.Post(c.BaseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("motor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("motor daemon returned status %d", resp.StatusCode)
	}
	return nil
}

package arm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/teslashibe/go-walle/internal/httpc"
)

var httpClient = httpc.NewClient(2 * time.Second)

// HTTPController drives the servo daemon's HTTP API on real hardware.
type HTTPController struct {
	BaseURL string
}

// NewHTTPController creates an HTTP-based arm controller.
func NewHTTPController(baseURL string) *HTTPController {
	return &HTTPController{BaseURL: baseURL}
}

func (c *HTTPController) SetArm(side string, pos float64) error {
	return c.post("/api/servos/arm", map[string]any{
		"side":     side,
		"position": clamp01(pos),
	})
}

func (c *HTTPController) SetArms(left, right float64) error {
	return c.post("/api/servos/arms", map[string]any{
		"left":  clamp01(left),
		"right": clamp01(right),
	})
}

func (c *HTTPController) SetGripper(open bool) error {
	return c.post("/api/servos/gripper", map[string]any{"open": open})
}

func (c *HTTPController) post(path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal servo payload: %w", err)
	}

	resp, err := httpClient.Post(c.BaseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("servo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("servo daemon returned status %d", resp.StatusCode)
	}
	return nil
}

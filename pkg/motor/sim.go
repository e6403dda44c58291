package motor

import (
	"log/slog"
	"math"
	"sync"
)

// SimController is the simulation fallback. It dead-reckons a position and
// heading from the commanded wheel speeds so tests and dev runs can assert
// on virtual motion. Safe for concurrent use by both control loops.
type SimController struct {
	mu sync.Mutex

	// Virtual odometry.
	x, y    float64
	heading float64 // radians, 0 = north, positive = clockwise

	step   float64 // distance per full-speed Drive call
	logger *slog.Logger

	lastLeft, lastRight float64
	driveCalls          int
	stopCalls           int
}

// NewSimController creates a simulated drive train. step is the distance (in
// arbitrary units) covered by one full-speed Drive call.
func NewSimController(step float64, logger *slog.Logger) *SimController {
	if step <= 0 {
		step = 1.0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SimController{step: step, logger: logger.With("component", "motor.sim")}
}

// Drive advances the virtual position. Symmetric speeds translate, opposed
// speeds rotate in place, mixed speeds do a bit of both.
func (c *SimController) Drive(left, right float64) error {
	left = clamp(left, -1, 1)
	right = clamp(right, -1, 1)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastLeft, c.lastRight = left, right
	c.driveCalls++

	forward := (left + right) / 2
	turn := (right - left) / 2

	c.heading += turn * math.Pi / 4 // quarter turn per full-speed opposed call
	dist := c.step * forward
	c.x += math.Sin(c.heading) * dist
	c.y += math.Cos(c.heading) * dist

	c.logger.Debug("sim drive",
		"left", left, "right", right,
		"x", c.x, "y", c.y, "heading", c.heading)
	return nil
}

// Stop zeroes the commanded speeds.
func (c *SimController) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastLeft, c.lastRight = 0, 0
	c.stopCalls++
	c.logger.Debug("sim stop")
	return nil
}

// Position returns the simulated coordinates.
func (c *SimController) Position() (x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.x, c.y
}

// Heading returns the simulated heading in radians.
func (c *SimController) Heading() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.heading
}

// LastSpeeds returns the most recently commanded per-side speeds.
func (c *SimController) LastSpeeds() (left, right float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastLeft, c.lastRight
}

// Reset returns the simulation to the origin facing north.
func (c *SimController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.x, c.y, c.heading = 0, 0, 0
	c.lastLeft, c.lastRight = 0, 0
}

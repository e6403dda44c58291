// Package arm drives the two arm servos and the gripper claw. Positions are
// normalized to [0, 1] per arm; named poses provide the gesture vocabulary
// used by Pose directives.
package arm

import (
	"log/slog"
	"sync"
)

// Controller is the arm/gripper actuator collaborator. Implementations must
// tolerate out-of-range positions (callers clamp) and return quickly.
type Controller interface {
	SetArm(side string, pos float64) error
	SetArms(left, right float64) error
	SetGripper(open bool) error
}

// Pose is a named two-arm position.
type Pose struct {
	Left, Right float64
}

// Poses is the gesture table. "rest" is the startup pose.
var Poses = map[string]Pose{
	"rest":   {0.5, 0.5},
	"wave":   {0.8, 0.2},
	"point":  {0.15, 0.85},
	"nod":    {0.6, 0.6},
	"salute": {0.9, 0.4},
}

// LookupPose resolves a pose name, defaulting to rest for unknown names so
// a mis-heard gesture never faults the loop.
func LookupPose(name string) (Pose, bool) {
	p, ok := Poses[name]
	if !ok {
		return Poses["rest"], false
	}
	return p, true
}

// SimController logs servo effects instead of driving hardware.
type SimController struct {
	mu sync.Mutex

	left, right float64
	gripperOpen bool
	logger      *slog.Logger
}

// NewSimController creates a simulated arm controller at the rest pose with
// the gripper open.
func NewSimController(logger *slog.Logger) *SimController {
	if logger == nil {
		logger = slog.Default()
	}
	rest := Poses["rest"]
	return &SimController{
		left:        rest.Left,
		right:       rest.Right,
		gripperOpen: true,
		logger:      logger.With("component", "arm.sim"),
	}
}

func (c *SimController) SetArm(side string, pos float64) error {
	pos = clamp01(pos)
	c.mu.Lock()
	defer c.mu.Unlock()
	if side == "right" {
		c.right = pos
	} else {
		c.left = pos
	}
	c.logger.Debug("sim arm", "side", side, "pos", pos)
	return nil
}

func (c *SimController) SetArms(left, right float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.left = clamp01(left)
	c.right = clamp01(right)
	c.logger.Debug("sim arms", "left", c.left, "right", c.right)
	return nil
}

func (c *SimController) SetGripper(open bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gripperOpen = open
	c.logger.Debug("sim gripper", "open", open)
	return nil
}

// Positions returns the simulated arm positions.
func (c *SimController) Positions() (left, right float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.left, c.right
}

// GripperOpen returns the simulated gripper state.
func (c *SimController) GripperOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gripperOpen
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

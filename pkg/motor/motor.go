// Package motor provides the drive-train actuator used by the orchestrator
// and the autonomy loop. Two implementations exist: an HTTP controller that
// talks to the motor daemon on the rover, and a simulation that dead-reckons
// position so the rest of the stack behaves predictably on a dev machine.
package motor

// Controller is the interface for sending drive commands to the rover.
// Implementations must not reject out-of-range speeds (callers already
// clamp) and must return quickly; slow transports own their own timeouts.
type Controller interface {
	// Drive sets per-side wheel speeds in [-1, 1]; positive is forward.
	Drive(left, right float64) error

	// Stop halts both motors.
	Stop() error
}

// clamp restricts v to the range [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

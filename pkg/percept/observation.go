// Package percept recognizes colored objects for Query directives and grab
// plans. Three tiers are supported: a remote Google Cloud Vision client, a
// local HSV color-blob detector on the camera, and a deterministic-ish
// simulation so the conversational loop works on any machine.
package percept

import (
	"fmt"
	"strings"
)

// Observation is one recognized object with a rough range and bearing.
type Observation struct {
	Label      string  `json:"label"`
	Color      string  `json:"color"`
	Shape      string  `json:"shape"`
	DistanceCM float64 `json:"distance_cm"`
	AngleDeg   float64 `json:"angle_deg"` // positive = to the right
}

// FriendlyLabel is the label with underscores spoken away.
func (o Observation) FriendlyLabel() string {
	return strings.ReplaceAll(o.Label, "_", " ")
}

// DirectionHint narrates the bearing.
func (o Observation) DirectionHint() string {
	switch {
	case o.AngleDeg < -12:
		return "to your left"
	case o.AngleDeg > 12:
		return "to your right"
	default:
		return "straight ahead"
	}
}

// Description is the spoken form of the observation.
func (o Observation) Description() string {
	color := strings.ReplaceAll(o.Color, "_", " ")
	shape := strings.ReplaceAll(o.Shape, "_", " ")
	return fmt.Sprintf("%s %s (%s) about %.0f cm away %s",
		color, shape, o.FriendlyLabel(), o.DistanceCM, o.DirectionHint())
}

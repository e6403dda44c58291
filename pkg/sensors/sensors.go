// Package sensors provides the distance and battery collaborators consumed
// by the safety interlock and autonomy loop. Readers return (value, ok)
// rather than errors: an unreadable sensor is an absent reading, never a
// failure of the caller.
package sensors

// DistanceReader reads forward clearance in centimeters.
type DistanceReader interface {
	ReadDistanceCM() (float64, bool)
}

// BatteryReader reads pack voltage.
type BatteryReader interface {
	ReadBatteryVolts() (float64, bool)
}

// Reader is the combined sensor collaborator the control loops consume.
type Reader interface {
	DistanceReader
	BatteryReader
}

// Combined bundles independent distance and battery readers into one Reader.
type Combined struct {
	Distance DistanceReader
	Battery  BatteryReader
}

func (c Combined) ReadDistanceCM() (float64, bool) {
	if c.Distance == nil {
		return 0, false
	}
	return c.Distance.ReadDistanceCM()
}

func (c Combined) ReadBatteryVolts() (float64, bool) {
	if c.Battery == nil {
		return 0, false
	}
	return c.Battery.ReadBatteryVolts()
}

package safety

import "sync"

// BatteryLatch tracks the critical-battery edge so the shutdown collaborator
// is invoked exactly once per continuous breach. A fresh non-critical reading
// re-arms the latch; an absent reading changes nothing, so a sensor dropout
// mid-breach cannot cause a second shutdown call.
type BatteryLatch struct {
	mu      sync.Mutex
	tripped bool
}

// Observe records one battery evaluation. It returns true exactly once per
// breach: on the transition into critical.
func (l *BatteryLatch) Observe(critical, known bool) (edge bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !known {
		return false
	}
	if critical {
		if l.tripped {
			return false
		}
		l.tripped = true
		return true
	}
	l.tripped = false
	return false
}

// Tripped reports whether the latch is currently in a breach.
func (l *BatteryLatch) Tripped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tripped
}

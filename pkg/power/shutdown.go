package power

import (
	"log/slog"
	"os/exec"
	"sync"
)

// Shutdown is the safe-shutdown collaborator. The orchestrator invokes it at
// most once per critical-battery breach (the safety.BatteryLatch owns the
// edge); implementations only need to be idempotent as a backstop.
type Shutdown interface {
	InitiateSafeShutdown()
}

// SafeShutdown halts the platform. In simulate mode it only logs; on
// hardware it asks the OS to power down.
type SafeShutdown struct {
	Simulate bool

	logger *slog.Logger
	once   sync.Once
}

// NewSafeShutdown creates the shutdown collaborator.
func NewSafeShutdown(simulate bool, logger *slog.Logger) *SafeShutdown {
	if logger == nil {
		logger = slog.Default()
	}
	return &SafeShutdown{Simulate: simulate, logger: logger.With("component", "power.shutdown")}
}

// InitiateSafeShutdown powers the platform down. Subsequent calls are no-ops.
func (s *SafeShutdown) InitiateSafeShutdown() {
	s.once.Do(func() {
		if s.Simulate {
			s.logger.Info("simulated shutdown requested; skipping poweroff")
			return
		}
		s.logger.Error("critical battery: requesting system shutdown")
		if err := exec.Command("sudo", "shutdown", "-h", "now").Run(); err != nil {
			s.logger.Error("failed to request shutdown", "error", err)
		}
	})
}

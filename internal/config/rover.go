// Package config provides configuration helpers for go-walle commands.
package config

import (
	"os"
	"strconv"
)

// Default rover configuration.
const (
	DefaultMotorPort     = "8000"
	DefaultDashboardPort = "8090"
	DefaultBatteryEnvVar = "WALLE_BATTERY_VOLTS"
	DefaultBatteryVolts  = 12.0
)

// MotorIP returns the motor daemon IP from the WALLE_MOTOR_IP env var.
// Falls back to the provided default if not set.
func MotorIP(defaultIP string) string {
	if ip := os.Getenv("WALLE_MOTOR_IP"); ip != "" {
		return ip
	}
	return defaultIP
}

// MotorAPIURL returns the motor daemon HTTP API URL.
func MotorAPIURL(motorIP string) string {
	return "http://" + motorIP + ":" + DefaultMotorPort
}

// BatteryVolts returns the simulated battery voltage from the environment.
// Used by the env battery driver when no ADC hardware is present.
func BatteryVolts() float64 {
	return EnvFloat(DefaultBatteryEnvVar, DefaultBatteryVolts)
}

// EnvFloat returns a float from the named env var, or def when unset or
// unparseable.
func EnvFloat(name string, def float64) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

// Env returns the named env var or def when unset.
func Env(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

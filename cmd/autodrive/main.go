// Standalone obstacle-avoidance runner: enables autonomy immediately and
// drives until interrupted. Useful for tuning the avoidance loop without
// the conversational stack.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-walle/pkg/directive"
	"github.com/teslashibe/go-walle/pkg/rover"
)

func main() {
	cfg := rover.DefaultConfig()
	cfg.StdinChat = false
	cfg.HTTPAddr = ""

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	sim := flag.Bool("sim", true, "Run in simulation")
	motorIP := flag.String("motor-ip", "", "Motor daemon IP (overrides WALLE_MOTOR_IP)")
	period := flag.Duration("period", cfg.Autonomy.Period, "Autonomy iteration period")
	cruise := flag.Float64("cruise", cfg.Autonomy.Cruise, "Forward magnitude while clear")
	avoid := flag.Float64("avoid-cm", cfg.Autonomy.AvoidCM, "Clearance below which the rover turns away")
	flag.Parse()

	cfg.Debug = *debug
	cfg.Sim = *sim
	cfg.Autonomy.Period = *period
	cfg.Autonomy.Cruise = *cruise
	cfg.Autonomy.AvoidCM = *avoid
	if *motorIP != "" {
		cfg.MotorIP = *motorIP
	}

	app, err := rover.New(cfg)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	if err := app.Init(); err != nil {
		log.Fatalf("initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Give the loops a beat to start before engaging.
	go func() {
		time.Sleep(250 * time.Millisecond)
		enable := directive.New(directive.KindToggleAutonomy)
		enable.Enable = true
		app.Submit(enable)
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("runtime error: %v", err)
	}
}

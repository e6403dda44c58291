// Keyword teleop loop: reads short spoken-style commands from stdin and
// pushes them straight through the text parser, bypassing the chat model.
// "status" reads the rover state back; "quit" exits.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-walle/pkg/rover"
	"github.com/teslashibe/go-walle/pkg/safety"
)

func main() {
	cfg := rover.DefaultConfig()
	cfg.StdinChat = false
	cfg.HTTPAddr = ""

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	sim := flag.Bool("sim", true, "Run in simulation")
	motorIP := flag.String("motor-ip", "", "Motor daemon IP (overrides WALLE_MOTOR_IP)")
	flag.Parse()

	cfg.Debug = *debug
	cfg.Sim = *sim
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

	go func() {
		defer cancel()
		scanner := bufio.NewScanner(os.Stdin)
		fmt.Println("voicedrive ready: forward / backward / left / right / stop / faster / slower / status / quit")
		for scanner.Scan() {
			line := strings.TrimSpace(strings.ToLower(scanner.Text()))
			switch line {
			case "":
				continue
			case "quit", "exit":
				return
			case "status":
				fmt.Println(app.DescribeState())
				continue
			}
			v := app.SubmitText(line)
			if v.Decision != safety.Allow {
				fmt.Printf("%s (%s)\n", v.Decision, v.Reason)
			}
		}
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("runtime error: %v", err)
	}
}

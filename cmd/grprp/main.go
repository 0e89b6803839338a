// Command grprp runs the appliance cycle: it reads the start and stop
// buttons and drives the pumps, heater, mixer, blender and hatches.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/grprp/internal/config"
	"github.com/sweeney/grprp/internal/controller"
	"github.com/sweeney/grprp/internal/gpio"
	"github.com/sweeney/grprp/internal/heartbeat"
	"github.com/sweeney/grprp/internal/millis"
	"github.com/sweeney/grprp/internal/mqtt"
)

func main() {
	configPath := flag.String("config", "", "YAML pin map (built-in defaults if empty)")
	poll := flag.Duration("poll", 10*time.Millisecond, "Button polling interval")
	backend := flag.String("backend", "", `Actuator backend override ("gpio" or "mqtt")`)
	broker := flag.String("broker", "", "MQTT broker address override")
	printInputs := flag.Bool("print-inputs", false, "Print button levels and exit")

	flag.Parse()

	if err := run(*configPath, *poll, *backend, *broker, *printInputs); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(configPath string, poll time.Duration, backend, broker string, printInputs bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if backend != "" {
		cfg.Backend = config.Backend(backend)
	}
	if broker != "" {
		cfg.MQTT.Broker = broker
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The clock must be ticking before the first sample is taken.
	clock, err := millis.NewClock(cfg.Timer)
	if err != nil {
		return err
	}
	clock.Start(ctx)

	reader, err := gpio.NewRealReader(cfg.Chip, cfg.Start, cfg.Stop)
	if err != nil {
		return fmt.Errorf("init inputs: %w", err)
	}
	defer reader.Close()

	if printInputs {
		start, stop, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read inputs: %w", err)
		}
		fmt.Printf("start: %s, stop: %s\n", pressedString(start), pressedString(stop))
		return nil
	}

	writer, err := openWriter(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Printf("close outputs: %v", err)
		}
	}()

	ctrl, err := controller.New(clock, reader, writer)
	if err != nil {
		// Keep going: a dead output should not stop the buttons working.
		log.Printf("initial outputs: %v", err)
	}

	var blinker *heartbeat.Blinker
	if cfg.HeartbeatEnabled() {
		led, err := gpio.NewRealOutput(cfg.Chip, cfg.HeartbeatPin)
		if err != nil {
			return fmt.Errorf("init heartbeat: %w", err)
		}
		blinker, err = heartbeat.New(led, heartbeat.DefaultPeriod, clock.Now())
		if err != nil {
			led.Close()
			return fmt.Errorf("init heartbeat: %w", err)
		}
		defer blinker.Close()
	}

	log.Printf("started: poll=%v backend=%s timer=%v", poll, cfg.Backend, cfg.Timer.Period())

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, blinker, clock, ticker.C, sigCh)
}

func openWriter(cfg config.Config) (gpio.Writer, error) {
	switch cfg.Backend {
	case config.BackendMQTT:
		w, err := mqtt.NewRealRelayWriter(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Prefix)
		if err != nil {
			return nil, fmt.Errorf("init relays: %w", err)
		}
		log.Printf("relays: broker=%s prefix=%s", cfg.MQTT.Broker, cfg.MQTT.Prefix)
		return w, nil
	default:
		w, err := gpio.NewRealWriter(cfg.Chip, cfg.ActuatorPins())
		if err != nil {
			return nil, fmt.Errorf("init outputs: %w", err)
		}
		return w, nil
	}
}

// runLoop polls the controller on every tick until a signal arrives, then
// turns every actuator off. blinker may be nil.
func runLoop(ctrl *controller.Controller, blinker *heartbeat.Blinker, clock controller.Clock, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down in %s", s, ctrl.State())
			if err := ctrl.Shutdown(); err != nil {
				log.Printf("shutdown outputs: %v", err)
			}
			return nil

		case <-tick:
			changed, err := ctrl.Poll()
			if err != nil {
				log.Printf("poll error: %v", err)
				// Don't crash on hardware failure
			}
			if changed {
				tr := ctrl.LastTransition()
				log.Printf("transition: %s -> %s after %dms (stopping=%v)", tr.From, tr.To, tr.Elapsed, tr.Stopping)
			}

			if blinker != nil {
				if err := blinker.Update(clock.Now(), changed); err != nil {
					log.Printf("heartbeat: %v", err)
				}
			}
		}
	}
}

func pressedString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}

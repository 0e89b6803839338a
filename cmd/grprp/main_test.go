package main

import (
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/grprp/internal/controller"
	"github.com/sweeney/grprp/internal/gpio"
	"github.com/sweeney/grprp/internal/heartbeat"
	"github.com/sweeney/grprp/internal/logic"
	"github.com/sweeney/grprp/internal/millis"
)

// stepClock returns 0, step, 2*step, ... on successive calls to Now.
// Not safe for concurrent use (only called from runLoop's goroutine).
type stepClock struct {
	now  millis.Millis
	step millis.Millis
}

func (c *stepClock) Now() millis.Millis {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// repeat returns n copies of sample.
func repeat(sample gpio.Sample, n int) []gpio.Sample {
	out := make([]gpio.Sample, n)
	for i := range out {
		out[i] = sample
	}
	return out
}

// runRunLoop drives runLoop for nTicks and then delivers signal.
func runRunLoop(t *testing.T, ctrl *controller.Controller, blinker *heartbeat.Blinker, clock controller.Clock, nTicks int, signal os.Signal) error {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(ctrl, blinker, clock, tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal

	return <-errCh
}

func newController(t *testing.T, clock controller.Clock, reader gpio.Reader) (*controller.Controller, *gpio.FakeWriter) {
	t.Helper()
	writer := gpio.NewFakeWriter()
	ctrl, err := controller.New(clock, reader, writer)
	if err != nil {
		t.Fatalf("controller.New returned error: %v", err)
	}
	return ctrl, writer
}

func TestRunLoopShutdownTurnsOutputsOff(t *testing.T) {
	clock := &stepClock{step: 100}
	reader := gpio.NewFakeReader(repeat(gpio.Sample{}, 1))
	ctrl, writer := newController(t, clock, reader)

	if !writer.On(logic.LowerDrainPump) || !writer.On(logic.UpperDrainPump) {
		t.Fatal("expected drain pumps on at start-up")
	}

	if err := runRunLoop(t, ctrl, nil, clock, 0, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if got := writer.Energized(); len(got) != 0 {
		t.Errorf("expected all outputs off after shutdown, got %v", got)
	}
}

func TestRunLoopReachesInitialIdling(t *testing.T) {
	clock := &stepClock{step: 100}
	reader := gpio.NewFakeReader(repeat(gpio.Sample{}, 1))
	ctrl, writer := newController(t, clock, reader)

	// Draining lasts one second; the tenth poll sees 1000ms elapsed.
	if err := runRunLoop(t, ctrl, nil, clock, 12, syscall.SIGINT); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if got := ctrl.State(); got != logic.InitialIdling {
		t.Fatalf("state = %s, want %s", got, logic.InitialIdling)
	}
	tr := ctrl.LastTransition()
	if tr.From != logic.InitialDraining || tr.To != logic.InitialIdling || tr.At != 1000 {
		t.Errorf("unexpected transition: %+v", tr)
	}

	readyOn := false
	for _, w := range writer.Writes {
		if w.Actuator == logic.Ready && w.On {
			readyOn = true
		}
	}
	if !readyOn {
		t.Error("expected ready indicator to be lit on reaching idle")
	}
}

func TestRunLoopStartCommitsCycle(t *testing.T) {
	samples := append(repeat(gpio.Sample{}, 10), gpio.Sample{Start: true})
	clock := &stepClock{step: 100}
	reader := gpio.NewFakeReader(samples)
	ctrl, _ := newController(t, clock, reader)

	// idle at 1000ms, locking at 1100ms, committed once start is held 250ms
	if err := runRunLoop(t, ctrl, nil, clock, 14, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if got := ctrl.State(); got != logic.InitialSetupSeparatorOpening {
		t.Errorf("state = %s, want %s", got, logic.InitialSetupSeparatorOpening)
	}
}

func TestRunLoopContinuesOnReadError(t *testing.T) {
	clock := &stepClock{step: 500}
	reader := gpio.NewFakeReader(nil)
	reader.ReadError = errors.New("gpio fault")
	ctrl, writer := newController(t, clock, reader)

	if err := runRunLoop(t, ctrl, nil, clock, 5, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	// Without a sample the machine must not advance, even past its dwell.
	if got := ctrl.State(); got != logic.InitialDraining {
		t.Errorf("state = %s, want %s", got, logic.InitialDraining)
	}
	if got := writer.Energized(); len(got) != 0 {
		t.Errorf("expected shutdown after errors, got %v energized", got)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	clock := &stepClock{step: 100}
	reader := gpio.NewFakeReader(repeat(gpio.Sample{}, 1))
	ctrl, _ := newController(t, clock, reader)

	led := &gpio.FakeOutput{}
	blinker, err := heartbeat.New(led, heartbeat.DefaultPeriod, clock.Now())
	if err != nil {
		t.Fatalf("heartbeat.New returned error: %v", err)
	}

	// Each tick reads the clock twice: once to poll, once for the LED.
	// The LED toggles on the third tick and is relit by the transition
	// on the fifth.
	if err := runRunLoop(t, ctrl, blinker, clock, 5, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if got := ctrl.State(); got != logic.InitialIdling {
		t.Fatalf("state = %s, want %s", got, logic.InitialIdling)
	}
	if led.Toggles != 1 {
		t.Errorf("expected 1 toggle, got %d", led.Toggles)
	}
	if led.Sets != 2 {
		t.Errorf("expected 2 sets (start and resync), got %d", led.Sets)
	}
	if !led.Level {
		t.Error("expected LED lit after transition")
	}
}

func TestPressedString(t *testing.T) {
	if pressedString(true) != "PRESSED" {
		t.Error("expected PRESSED")
	}
	if pressedString(false) != "RELEASED" {
		t.Error("expected RELEASED")
	}
}

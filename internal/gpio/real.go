//go:build linux

package gpio

import (
	"fmt"
	"sort"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/grprp/internal/logic"
)

// RealReader reads the buttons from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip     *gpiocdev.Chip
	startPin *gpiocdev.Line
	stopPin  *gpiocdev.Line
}

// NewRealReader requests the start and stop lines of the given chip.
func NewRealReader(chipName string, pinStart, pinStop int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Buttons switch to ground, so the lines idle high on the pull-up.
	startLine, err := chip.RequestLine(pinStart, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request start pin %d: %w", pinStart, err)
	}

	stopLine, err := chip.RequestLine(pinStop, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		startLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request stop pin %d: %w", pinStop, err)
	}

	return &RealReader{
		chip:     chip,
		startPin: startLine,
		stopPin:  stopLine,
	}, nil
}

// Read returns the logical states of the start and stop buttons.
// Inverts raw GPIO: raw low (0) = pressed.
func (r *RealReader) Read() (bool, bool, error) {
	startRaw, err := r.startPin.Value()
	if err != nil {
		return false, false, fmt.Errorf("read start pin: %w", err)
	}

	stopRaw, err := r.stopPin.Value()
	if err != nil {
		return false, false, fmt.Errorf("read stop pin: %w", err)
	}

	return startRaw == 0, stopRaw == 0, nil
}

// Close releases GPIO resources.
func (r *RealReader) Close() error {
	var errs []error

	if r.startPin != nil {
		if err := r.startPin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close start pin: %w", err))
		}
	}
	if r.stopPin != nil {
		if err := r.stopPin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close stop pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealOutput is a single output line. Active high.
type RealOutput struct {
	line  *gpiocdev.Line
	pin   int
	level bool
}

func requestOutput(chip *gpiocdev.Chip, pin int) (*RealOutput, error) {
	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	return &RealOutput{line: line, pin: pin}, nil
}

// Set drives the line high (on) or low.
func (o *RealOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set pin %d: %w", o.pin, err)
	}
	o.level = on
	return nil
}

// Toggle inverts the last level written.
func (o *RealOutput) Toggle() error {
	return o.Set(!o.level)
}

// Close drives the line low and hands it back to the kernel as an input
// with pull-down, matching Pi boot defaults, so no relay stays energized.
func (o *RealOutput) Close() error {
	var errs []error
	if err := o.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("clear pin %d: %w", o.pin, err))
	}
	if err := o.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", o.pin, err))
	}
	if err := o.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pin %d: %w", o.pin, err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealWriter drives the actuator lines.
type RealWriter struct {
	chip    *gpiocdev.Chip
	outputs map[logic.Actuator]*RealOutput
}

// NewRealWriter requests every actuator line as an output, initially low.
func NewRealWriter(chipName string, pins map[logic.Actuator]int) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	w := &RealWriter{
		chip:    chip,
		outputs: make(map[logic.Actuator]*RealOutput, len(pins)),
	}

	// Request in a fixed order so error messages are reproducible.
	actuators := make([]logic.Actuator, 0, len(pins))
	for a := range pins {
		actuators = append(actuators, a)
	}
	sort.Slice(actuators, func(i, j int) bool { return actuators[i] < actuators[j] })

	for _, a := range actuators {
		out, err := requestOutput(chip, pins[a])
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", a, pins[a], err)
		}
		w.outputs[a] = out
	}

	return w, nil
}

// Set drives actuator a.
func (w *RealWriter) Set(a logic.Actuator, on bool) error {
	out, ok := w.outputs[a]
	if !ok {
		return fmt.Errorf("no pin for %s", a)
	}
	if err := out.Set(on); err != nil {
		return fmt.Errorf("%s: %w", a, err)
	}
	return nil
}

// Toggle inverts actuator a.
func (w *RealWriter) Toggle(a logic.Actuator) error {
	out, ok := w.outputs[a]
	if !ok {
		return fmt.Errorf("no pin for %s", a)
	}
	return w.Set(a, !out.level)
}

// Close de-energizes and releases every actuator line, then the chip.
func (w *RealWriter) Close() error {
	var errs []error

	for a, out := range w.outputs {
		if err := out.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a, err))
		}
	}
	w.outputs = nil

	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		w.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// NewRealOutput requests a single output line, for indicators outside the
// actuator set. The returned output owns its chip handle.
func NewRealOutput(chipName string, pin int) (Output, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	out, err := requestOutput(chip, pin)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request pin %d: %w", pin, err)
	}
	return &chipOutput{RealOutput: out, chip: chip}, nil
}

type chipOutput struct {
	*RealOutput
	chip *gpiocdev.Chip
}

func (o *chipOutput) Close() error {
	err := o.RealOutput.Close()
	if cerr := o.chip.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close chip: %w", cerr)
	}
	return err
}

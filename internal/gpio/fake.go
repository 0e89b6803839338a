package gpio

import (
	"errors"
	"fmt"

	"github.com/sweeney/grprp/internal/logic"
)

// FakeReader is a test double that returns scripted button values.
type FakeReader struct {
	// Samples contains scripted (start, stop) values to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// Sample represents a single button reading (already in logical form).
type Sample struct {
	Start bool // true = pressed
	Stop  bool // true = pressed
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (bool, bool, error) {
	if f.ReadError != nil {
		return false, false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample.Start, sample.Stop, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// Write records one level written to an actuator.
type Write struct {
	Actuator logic.Actuator
	On       bool
}

// FakeWriter records actuator levels for test assertions.
type FakeWriter struct {
	// Levels holds the current level of every actuator written so far.
	Levels map[logic.Actuator]bool

	// Writes contains every Set and Toggle, in order.
	Writes []Write

	// SetError, if set, is returned by Set and Toggle for the actuators in FailOn
	// (or for every actuator when FailOn is empty). The level is not changed.
	SetError error
	FailOn   map[logic.Actuator]bool

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeWriter creates a FakeWriter with every actuator off.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{Levels: make(map[logic.Actuator]bool)}
}

// Set records the level.
func (f *FakeWriter) Set(a logic.Actuator, on bool) error {
	if f.SetError != nil && (len(f.FailOn) == 0 || f.FailOn[a]) {
		return fmt.Errorf("%s: %w", a, f.SetError)
	}
	f.Levels[a] = on
	f.Writes = append(f.Writes, Write{Actuator: a, On: on})
	return nil
}

// Toggle inverts the recorded level.
func (f *FakeWriter) Toggle(a logic.Actuator) error {
	return f.Set(a, !f.Levels[a])
}

// On reports the current level of a.
func (f *FakeWriter) On(a logic.Actuator) bool {
	return f.Levels[a]
}

// Energized returns every actuator currently on, in declaration order.
func (f *FakeWriter) Energized() []logic.Actuator {
	var out []logic.Actuator
	for _, a := range logic.Actuators() {
		if f.Levels[a] {
			out = append(out, a)
		}
	}
	return out
}

// Close turns every actuator off and marks the writer closed.
func (f *FakeWriter) Close() error {
	for a := range f.Levels {
		f.Levels[a] = false
	}
	f.Closed = true
	return nil
}

// Reset clears recorded writes and levels.
func (f *FakeWriter) Reset() {
	f.Levels = make(map[logic.Actuator]bool)
	f.Writes = nil
	f.SetError = nil
	f.FailOn = nil
	f.Closed = false
}

// FakeOutput records the level of a single output.
type FakeOutput struct {
	Level   bool
	Toggles int
	Sets    int
	Closed  bool
}

// Set records the level.
func (o *FakeOutput) Set(on bool) error {
	o.Level = on
	o.Sets++
	return nil
}

// Toggle inverts the level.
func (o *FakeOutput) Toggle() error {
	o.Level = !o.Level
	o.Toggles++
	return nil
}

// Close turns the output off.
func (o *FakeOutput) Close() error {
	o.Level = false
	o.Closed = true
	return nil
}

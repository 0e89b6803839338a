// Package heartbeat blinks an indicator LED from the monotonic clock so a
// stalled poll loop is visible on the panel.
package heartbeat

import (
	"fmt"

	"github.com/sweeney/grprp/internal/gpio"
	"github.com/sweeney/grprp/internal/millis"
)

// DefaultPeriod is the time the LED spends in each level.
const DefaultPeriod millis.Millis = 500

// Blinker toggles an output every Period. Not safe for concurrent use.
type Blinker struct {
	out    gpio.Output
	period millis.Millis
	last   millis.Millis
}

// New creates a blinker that starts with the LED on at now.
func New(out gpio.Output, period millis.Millis, now millis.Millis) (*Blinker, error) {
	if period == 0 {
		period = DefaultPeriod
	}
	b := &Blinker{out: out, period: period, last: now}
	if err := out.Set(true); err != nil {
		return nil, err
	}
	return b, nil
}

// Update toggles the LED once a period has elapsed. When transitioned is
// set the phase restarts: the LED is lit and the period counts from now,
// so each state change shows as the start of a blink.
func (b *Blinker) Update(now millis.Millis, transitioned bool) error {
	if transitioned {
		b.last = now
		return b.out.Set(true)
	}
	if now.Sub(b.last) < b.period {
		return nil
	}
	b.last = now
	return b.out.Toggle()
}

// Close turns the LED off and releases it. The output is released even if
// the LED cannot be switched off.
func (b *Blinker) Close() error {
	var errs []error
	if err := b.out.Set(false); err != nil {
		errs = append(errs, fmt.Errorf("led off: %w", err))
	}
	if err := b.out.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

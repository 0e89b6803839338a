// Package millis provides a free-running millisecond counter in the style of
// the Arduino millis() function.
//
// The counter is advanced by a periodic timer callback (Tick) and read by the
// control loop (Now). It is 32 bits wide and wraps after roughly 49.7 days;
// elapsed times must always be computed with Millis.Sub.
package millis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Millis is a wrapping millisecond timestamp.
type Millis uint32

// OneSecond is 1000 ms.
const OneSecond Millis = 1000

// Sub returns the time elapsed from ref to m, modulo 2^32.
// It is valid for any two timestamps taken within one wrap period.
func (m Millis) Sub(ref Millis) Millis {
	return m - ref
}

// Add returns m advanced by d, wrapping on overflow.
func (m Millis) Add(d Millis) Millis {
	return m + d
}

// ErrInvalidTimer is returned for a timer configuration that cannot produce ticks.
var ErrInvalidTimer = errors.New("millis: invalid timer configuration")

// TimerConfig describes how the periodic timer is programmed.
//
//	PRESCALER  COUNTS  INTERVAL
//	       64     250      1 ms
//	      256     125      2 ms
//	      256     250      4 ms
//	     1024     125      8 ms
//	     1024     250     16 ms
//
// (at 16 MHz)
type TimerConfig struct {
	Prescaler uint32 `yaml:"prescaler"`
	Counts    uint8  `yaml:"counts"`
	CPUHz     uint32 `yaml:"cpu_hz"`
}

// DefaultTimerConfig fires every 8 ms on a 16 MHz core.
var DefaultTimerConfig = TimerConfig{
	Prescaler: 1024,
	Counts:    125,
	CPUHz:     16_000_000,
}

// Validate checks that the prescaler is one the timer supports and that the
// compare value and clock frequency are non-zero.
func (c TimerConfig) Validate() error {
	switch c.Prescaler {
	case 1, 8, 64, 256, 1024:
	default:
		return fmt.Errorf("%w: prescaler %d", ErrInvalidTimer, c.Prescaler)
	}
	if c.Counts == 0 {
		return fmt.Errorf("%w: zero compare value", ErrInvalidTimer)
	}
	if c.CPUHz == 0 {
		return fmt.Errorf("%w: zero cpu frequency", ErrInvalidTimer)
	}
	return nil
}

// numerator is the tick period in units of 1/CPUHz milliseconds.
func (c TimerConfig) numerator() uint64 {
	return uint64(c.Prescaler) * uint64(c.Counts) * 1000
}

// Period returns the wall-clock interval between ticks.
func (c TimerConfig) Period() time.Duration {
	return time.Duration(uint64(c.Prescaler) * uint64(c.Counts) * uint64(time.Second) / uint64(c.CPUHz))
}

// Clock is the shared counter cell. Tick is the only writer and Now the
// only reader; both hold the same lock so a read never observes a half
// applied increment.
type Clock struct {
	mu      sync.Mutex
	counter Millis
	// rem carries the sub-millisecond part of elapsed ticks, in 1/CPUHz ms.
	rem uint64

	num uint64
	den uint64
	cfg TimerConfig
}

// NewClock validates cfg and returns a clock reset to zero.
func NewClock(cfg TimerConfig) (*Clock, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Clock{
		num: cfg.numerator(),
		den: uint64(cfg.CPUHz),
		cfg: cfg,
	}, nil
}

// Config returns the timer configuration the clock was built with.
func (c *Clock) Config() TimerConfig {
	return c.cfg
}

// Tick advances the counter by one timer period. Whole milliseconds are
// added to the counter and the remainder is kept for the next tick.
func (c *Clock) Tick() {
	c.mu.Lock()
	c.rem += c.num
	c.counter += Millis(c.rem / c.den)
	c.rem %= c.den
	c.mu.Unlock()
}

// Now returns the current counter value.
func (c *Clock) Now() Millis {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counter
}

// Run calls Tick for every value received on ticks until ctx is done or
// ticks is closed.
func (c *Clock) Run(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			c.Tick()
		}
	}
}

// Start drives the clock from a ticker at the configured period. It returns
// immediately; ticking stops when ctx is cancelled.
func (c *Clock) Start(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.Period())
	go func() {
		defer ticker.Stop()
		c.Run(ctx, ticker.C)
	}()
}

package millis

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

func TestSubWrapsAround(t *testing.T) {
	tests := []struct {
		name string
		ref  Millis
		now  Millis
		want Millis
	}{
		{"same", 100, 100, 0},
		{"forward", 100, 350, 250},
		{"across wrap", math.MaxUint32 - 9, 10, 20},
		{"from max", math.MaxUint32, 0, 1},
		{"full range minus one", 1, 0, math.MaxUint32},
	}

	for _, tt := range tests {
		if got := tt.now.Sub(tt.ref); got != tt.want {
			t.Errorf("%s: %d.Sub(%d) = %d, want %d", tt.name, tt.now, tt.ref, got, tt.want)
		}
	}
}

func TestSubMatchesElapsedModulo(t *testing.T) {
	// For any start and true elapsed, start.Add(elapsed).Sub(start) recovers elapsed.
	starts := []Millis{0, 1, 1 << 31, math.MaxUint32 - 1000, math.MaxUint32}
	elapsed := []Millis{0, 1, 999, 1000, 1 << 20, math.MaxUint32}

	for _, s := range starts {
		for _, e := range elapsed {
			if got := s.Add(e).Sub(s); got != e {
				t.Errorf("start=%d elapsed=%d: got %d", s, e, got)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TimerConfig
		wantErr bool
	}{
		{"default", DefaultTimerConfig, false},
		{"1ms", TimerConfig{Prescaler: 64, Counts: 250, CPUHz: 16_000_000}, false},
		{"direct", TimerConfig{Prescaler: 1, Counts: 160, CPUHz: 16_000_000}, false},
		{"bad prescaler", TimerConfig{Prescaler: 100, Counts: 250, CPUHz: 16_000_000}, true},
		{"zero prescaler", TimerConfig{Prescaler: 0, Counts: 250, CPUHz: 16_000_000}, true},
		{"zero counts", TimerConfig{Prescaler: 64, Counts: 0, CPUHz: 16_000_000}, true},
		{"zero cpu", TimerConfig{Prescaler: 64, Counts: 250, CPUHz: 0}, true},
	}

	for _, tt := range tests {
		err := tt.cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidTimer) {
			t.Errorf("%s: expected ErrInvalidTimer, got %v", tt.name, err)
		}
	}
}

func TestNewClockRejectsInvalidConfig(t *testing.T) {
	c, err := NewClock(TimerConfig{})
	if err == nil {
		t.Fatal("expected error for zero config")
	}
	if c != nil {
		t.Error("expected nil clock on error")
	}
}

func TestNewClockStartsAtZero(t *testing.T) {
	c, err := NewClock(DefaultTimerConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Now(); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestPeriod(t *testing.T) {
	tests := []struct {
		prescaler uint32
		counts    uint8
		want      time.Duration
	}{
		{64, 250, time.Millisecond},
		{256, 125, 2 * time.Millisecond},
		{256, 250, 4 * time.Millisecond},
		{1024, 125, 8 * time.Millisecond},
		{1024, 250, 16 * time.Millisecond},
		{8, 250, 125 * time.Microsecond},
	}

	for _, tt := range tests {
		cfg := TimerConfig{Prescaler: tt.prescaler, Counts: tt.counts, CPUHz: 16_000_000}
		if got := cfg.Period(); got != tt.want {
			t.Errorf("prescaler=%d counts=%d: Period() = %v, want %v", tt.prescaler, tt.counts, got, tt.want)
		}
	}
}

func TestTickIncrementWholeMillis(t *testing.T) {
	tests := []struct {
		prescaler uint32
		counts    uint8
		perTick   Millis
	}{
		{64, 250, 1},
		{256, 125, 2},
		{256, 250, 4},
		{1024, 125, 8},
		{1024, 250, 16},
	}

	for _, tt := range tests {
		c, err := NewClock(TimerConfig{Prescaler: tt.prescaler, Counts: tt.counts, CPUHz: 16_000_000})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := 1; i <= 10; i++ {
			c.Tick()
			if got, want := c.Now(), Millis(i)*tt.perTick; got != want {
				t.Fatalf("prescaler=%d counts=%d tick %d: got %d, want %d", tt.prescaler, tt.counts, i, got, want)
			}
		}
	}
}

func TestTickAccumulatesFractions(t *testing.T) {
	// 8 * 250 / 16 MHz = 0.125 ms per tick: a whole millisecond every 8 ticks.
	c, err := NewClock(TimerConfig{Prescaler: 8, Counts: 250, CPUHz: 16_000_000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 7; i++ {
		c.Tick()
	}
	if got := c.Now(); got != 0 {
		t.Errorf("after 7 ticks: expected 0, got %d", got)
	}
	c.Tick()
	if got := c.Now(); got != 1 {
		t.Errorf("after 8 ticks: expected 1, got %d", got)
	}

	for i := 0; i < 8000-8; i++ {
		c.Tick()
	}
	if got := c.Now(); got != 1000 {
		t.Errorf("after 8000 ticks: expected 1000, got %d", got)
	}
}

func TestTickNonDivisibleFrequency(t *testing.T) {
	// 64 * 250 / 12 MHz = 4/3 ms per tick. 3000 ticks must be exactly 4000 ms.
	c, err := NewClock(TimerConfig{Prescaler: 64, Counts: 250, CPUHz: 12_000_000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 3000; i++ {
		c.Tick()
	}
	if got := c.Now(); got != 4000 {
		t.Errorf("expected 4000, got %d", got)
	}
}

func TestTickWrapsCounter(t *testing.T) {
	c, err := NewClock(TimerConfig{Prescaler: 1024, Counts: 250, CPUHz: 16_000_000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.counter = math.MaxUint32 - 5
	ref := c.Now()

	c.Tick()
	if got := c.Now(); got != 10 {
		t.Errorf("expected counter to wrap to 10, got %d", got)
	}
	if got := c.Now().Sub(ref); got != 16 {
		t.Errorf("expected elapsed 16 across wrap, got %d", got)
	}
}

func TestRunTicksUntilCancelled(t *testing.T) {
	c, err := NewClock(DefaultTimerConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan time.Time)
	done := make(chan struct{})
	go func() {
		c.Run(ctx, ticks)
		close(done)
	}()

	for i := 0; i < 5; i++ {
		ticks <- time.Time{}
	}
	cancel()
	<-done

	if got := c.Now(); got != 40 {
		t.Errorf("expected 40 ms after 5 ticks, got %d", got)
	}
}

func TestRunStopsOnClosedChannel(t *testing.T) {
	c, err := NewClock(DefaultTimerConfig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ticks := make(chan time.Time, 2)
	ticks <- time.Time{}
	ticks <- time.Time{}
	close(ticks)

	c.Run(context.Background(), ticks)

	if got := c.Now(); got != 16 {
		t.Errorf("expected 16, got %d", got)
	}
}

func TestConcurrentTickAndNow(t *testing.T) {
	c, err := NewClock(TimerConfig{Prescaler: 64, Counts: 250, CPUHz: 16_000_000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const n = 10000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			c.Tick()
		}
	}()

	var last Millis
	for i := 0; i < n; i++ {
		now := c.Now()
		if now < last {
			t.Fatalf("counter went backwards: %d after %d", now, last)
		}
		last = now
	}
	wg.Wait()

	if got := c.Now(); got != n {
		t.Errorf("expected %d, got %d", n, got)
	}
}

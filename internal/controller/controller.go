// Package controller runs the appliance cycle: it samples the buttons, asks
// the state machine for a transition and drives the actuators.
//
// A Controller is owned by a single polling goroutine and is not safe for
// concurrent use.
package controller

import (
	"errors"
	"fmt"

	"github.com/sweeney/grprp/internal/gpio"
	"github.com/sweeney/grprp/internal/logic"
	"github.com/sweeney/grprp/internal/millis"
)

// Clock is the monotonic millisecond source.
type Clock interface {
	Now() millis.Millis
}

// Context is the controller's mutable state. State and LastTransition
// always change together.
type Context struct {
	State          logic.State
	LastTransition millis.Millis
	// Stopping latches a stop press until the next idle state is reached.
	Stopping bool
}

// Transition describes a state change made by Poll.
type Transition struct {
	From logic.State
	To   logic.State
	At   millis.Millis
	// Elapsed is the time spent in From.
	Elapsed  millis.Millis
	Stopping bool
}

// Controller binds the state machine to the clock and the I/O lines.
type Controller struct {
	clock  Clock
	reader gpio.Reader
	writer gpio.Writer

	ctx  Context
	last Transition
}

// New creates a controller in the initial draining state and applies its
// entry actions. The clock must already be running.
func New(clock Clock, reader gpio.Reader, writer gpio.Writer) (*Controller, error) {
	c := &Controller{
		clock:  clock,
		reader: reader,
		writer: writer,
		ctx: Context{
			State:          logic.InitialDraining,
			LastTransition: clock.Now(),
		},
	}

	if err := c.apply(ActionsFor(c.ctx.State).Entry); err != nil {
		return c, fmt.Errorf("enter %s: %w", c.ctx.State, err)
	}
	return c, nil
}

// Poll runs one control step. It reports whether the state changed.
//
// If the buttons cannot be read nothing changes and the error is returned.
// Output failures do not hold the machine back: every command of the step
// is attempted and the failures are returned together. Only the lines that
// change between the two states are written (see Plan).
func (c *Controller) Poll() (bool, error) {
	now := c.clock.Now()
	elapsed := now.Sub(c.ctx.LastTransition)

	starting, stopPressed, err := c.reader.Read()
	if err != nil {
		return false, fmt.Errorf("read inputs: %w", err)
	}
	c.ctx.Stopping = c.ctx.Stopping || stopPressed

	next, ok := logic.Next(c.ctx.State, elapsed, starting, c.ctx.Stopping)
	if !ok {
		return false, nil
	}

	prev := c.ctx.State
	c.ctx.State = next
	c.ctx.LastTransition = now
	if next.IsIdle() {
		c.ctx.Stopping = false
	}

	if err = c.apply(Plan(prev, next)); err != nil {
		err = fmt.Errorf("%s -> %s: %w", prev, next, err)
	}

	c.last = Transition{
		From:     prev,
		To:       next,
		At:       now,
		Elapsed:  elapsed,
		Stopping: c.ctx.Stopping,
	}

	return true, err
}

// Context returns a copy of the controller state.
func (c *Controller) Context() Context {
	return c.ctx
}

// State returns the current state.
func (c *Controller) State() logic.State {
	return c.ctx.State
}

// LastTransition returns the most recent state change, or the zero value
// if there has been none.
func (c *Controller) LastTransition() Transition {
	return c.last
}

// Shutdown turns every actuator off. The controller must not be polled
// afterwards.
func (c *Controller) Shutdown() error {
	cmds := make([]Command, 0, len(logic.Actuators()))
	for _, a := range logic.Actuators() {
		cmds = append(cmds, off(a))
	}
	return c.apply(cmds)
}

func (c *Controller) apply(cmds []Command) error {
	var errs []error
	for _, cmd := range cmds {
		if err := c.writer.Set(cmd.Actuator, cmd.On); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

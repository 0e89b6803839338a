// Package mqtt drives actuators wired to MQTT relay modules, with
// abstraction for testing.
//
// Each actuator has a command topic <prefix>/<actuator>/set carrying a
// retained "ON" or "OFF", so a relay module that reboots picks up its
// last commanded level from the broker.
package mqtt

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/sweeney/grprp/internal/logic"
)

// Payloads of a relay command.
const (
	PayloadOn  = "ON"
	PayloadOff = "OFF"
)

// QoS 1 (at-least-once): a lost OFF would leave a pump running.
const commandQoS = 1

// bufferCapacity bounds the commands kept while the broker is unreachable.
const bufferCapacity = 64

// retryHold is how long Set only buffers after a failed publish, so the
// remaining commands of a step do not each wait out a timeout.
const retryHold = 5 * time.Second

// Message is one relay command on the wire.
type Message struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  string
}

// Client is the subset of an MQTT connection the relay writer needs.
type Client interface {
	// Publish sends msgs in order and waits for them to be acknowledged,
	// bounded by one timeout for the whole batch. It returns how many were
	// acknowledged before the first failure.
	Publish(msgs []Message) (int, error)

	// IsConnected reports whether the connection is up.
	IsConnected() bool

	// Close disconnects from the broker.
	Close() error
}

// CommandTopic returns the command topic of actuator a under prefix.
func CommandTopic(prefix string, a logic.Actuator) string {
	return fmt.Sprintf("%s/%s/set", strings.TrimSuffix(prefix, "/"), a)
}

// FormatCommand returns the payload for a relay level.
func FormatCommand(on bool) []byte {
	if on {
		return []byte(PayloadOn)
	}
	return []byte(PayloadOff)
}

// RelayWriter implements gpio.Writer over MQTT. Commands issued while the
// connection is down are kept in order and replayed on reconnect.
type RelayWriter struct {
	mu     sync.Mutex
	client Client
	prefix string
	levels map[logic.Actuator]bool
	buf    *ringBuffer

	now       func() time.Time
	holdUntil time.Time
}

// NewRelayWriter creates a writer publishing through client.
func NewRelayWriter(client Client, prefix string) *RelayWriter {
	return &RelayWriter{
		client: client,
		prefix: prefix,
		levels: make(map[logic.Actuator]bool),
		buf:    newRingBuffer(bufferCapacity),
		now:    time.Now,
	}
}

// Set commands actuator a to the given level. Older buffered commands are
// always published first so the relays see levels in the order issued.
// After a failed publish, commands are only buffered until retryHold has
// passed or the connection is re-established.
func (w *RelayWriter) Set(a logic.Actuator, on bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.levels[a] = on
	w.buf.push(bufferedMsg{
		topic:    CommandTopic(w.prefix, a),
		payload:  FormatCommand(on),
		qos:      commandQoS,
		retained: true,
	})

	if !w.client.IsConnected() || w.now().Before(w.holdUntil) {
		return nil
	}
	if err := w.flushLocked(); err != nil {
		w.holdUntil = w.now().Add(retryHold)
		return fmt.Errorf("%s: %w", a, err)
	}
	return nil
}

// Toggle inverts the last commanded level of a.
func (w *RelayWriter) Toggle(a logic.Actuator) error {
	w.mu.Lock()
	on := !w.levels[a]
	w.mu.Unlock()
	return w.Set(a, on)
}

// Flush publishes buffered commands, oldest first. It is called when the
// connection comes back.
func (w *RelayWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.len() == 0 {
		return
	}
	log.Printf("mqtt: replaying %d buffered commands", w.buf.len())
	if err := w.flushLocked(); err != nil {
		w.holdUntil = w.now().Add(retryHold)
		log.Printf("mqtt: replay failed: %v", err)
		return
	}
	w.holdUntil = time.Time{}
}

// flushLocked publishes the buffer in order. On failure the unsent
// commands stay buffered. If commands were dropped while disconnected the
// current level of every commanded actuator is sent after the replay.
func (w *RelayWriter) flushLocked() error {
	resync := w.buf.dropped > 0
	pending := w.buf.drainAll()
	if resync {
		for _, a := range logic.Actuators() {
			on, ok := w.levels[a]
			if !ok {
				continue
			}
			pending = append(pending, bufferedMsg{
				topic:    CommandTopic(w.prefix, a),
				payload:  FormatCommand(on),
				qos:      commandQoS,
				retained: true,
			})
		}
	}

	if len(pending) == 0 {
		return nil
	}
	msgs := make([]Message, len(pending))
	for i, msg := range pending {
		msgs[i] = Message{Topic: msg.topic, QoS: msg.qos, Retained: msg.retained, Payload: string(msg.payload)}
	}
	n, err := w.client.Publish(msgs)
	if err != nil {
		for _, rest := range pending[n:] {
			w.buf.push(rest)
		}
		return err
	}
	return nil
}

// Pending returns the number of buffered commands.
func (w *RelayWriter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.len()
}

// Close commands every actuator off and disconnects.
func (w *RelayWriter) Close() error {
	var errs []error
	for _, a := range logic.Actuators() {
		if err := w.Set(a, false); err != nil {
			errs = append(errs, err)
		}
	}
	if err := w.client.Close(); err != nil {
		errs = append(errs, fmt.Errorf("disconnect: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

package mqtt

import "sync"

// FakeClient records published messages for test assertions.
type FakeClient struct {
	mu sync.Mutex

	// Messages contains every successful publish, in order.
	Messages []Message

	// Batches counts calls to Publish.
	Batches int

	// Connected controls the return value of IsConnected.
	Connected bool

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeClient creates a connected FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{Connected: true}
}

// Publish records the messages.
func (f *FakeClient) Publish(msgs []Message) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Batches++
	if f.PublishError != nil {
		return 0, f.PublishError
	}
	f.Messages = append(f.Messages, msgs...)
	return len(msgs), nil
}

// IsConnected reports whether the fake client is "connected".
func (f *FakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// SetConnected changes the connection state.
func (f *FakeClient) SetConnected(connected bool) {
	f.mu.Lock()
	f.Connected = connected
	f.mu.Unlock()
}

// Close marks the client as closed.
func (f *FakeClient) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.Connected = false
	f.mu.Unlock()
	return nil
}

// Last returns the most recent payload published on topic.
func (f *FakeClient) Last(topic string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.Messages) - 1; i >= 0; i-- {
		if f.Messages[i].Topic == topic {
			return f.Messages[i].Payload, true
		}
	}
	return "", false
}

// Reset clears recorded messages and errors.
func (f *FakeClient) Reset() {
	f.mu.Lock()
	f.Messages = nil
	f.Batches = 0
	f.PublishError = nil
	f.Closed = false
	f.Connected = true
	f.mu.Unlock()
}

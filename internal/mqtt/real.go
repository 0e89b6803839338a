package mqtt

import (
	"errors"
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// pahoClient adapts a paho client to Client.
type pahoClient struct {
	client paho.Client
}

// publishTimeout bounds one batch of commands, however many it holds.
const publishTimeout = 5 * time.Second

// Publish hands every message to paho before waiting, so a stalled broker
// costs one timeout per batch rather than one per command.
func (p *pahoClient) Publish(msgs []Message) (int, error) {
	tokens := make([]paho.Token, len(msgs))
	for i, m := range msgs {
		tokens[i] = p.client.Publish(m.Topic, m.QoS, m.Retained, []byte(m.Payload))
	}
	return waitAll(tokens, publishTimeout)
}

// waitAll waits for tokens in order against a single deadline and returns
// how many completed before the first failure.
func waitAll(tokens []paho.Token, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	for i, token := range tokens {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		if !token.WaitTimeout(remaining) {
			return i, errors.New("publish timeout")
		}
		if err := token.Error(); err != nil {
			return i, fmt.Errorf("publish: %w", err)
		}
	}
	return len(tokens), nil
}

func (p *pahoClient) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *pahoClient) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

// NewRealRelayWriter connects to broker and returns a relay writer that
// replays buffered commands on every reconnect.
func NewRealRelayWriter(broker, clientID, prefix string) (*RelayWriter, error) {
	pc := &pahoClient{}
	w := NewRelayWriter(pc, prefix)

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			log.Printf("mqtt: connected to %s", broker)
			go w.Flush()
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	pc.client = paho.NewClient(opts)
	token := pc.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		pc.client.Disconnect(0)
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return w, nil
}

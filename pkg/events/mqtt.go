package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// ErrMQTTTimeout is returned when the broker does not acknowledge in time.
var ErrMQTTTimeout = errors.New("events: mqtt publish timed out")

// MQTTClient is the subset of a paho client used for publishing.
type MQTTClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Envelope is the JSON message written to the broker for every topic.
type Envelope struct {
	ID          string    `json:"id"`
	Topic       string    `json:"topic"`
	PublishedAt time.Time `json:"publishedAt"`
}

// MQTTOption configures an MQTTPublisher.
type MQTTOption func(*MQTTPublisher)

// WithTopicPrefix sets the broker topic prefix (default "resourceform").
func WithTopicPrefix(prefix string) MQTTOption {
	return func(p *MQTTPublisher) {
		p.prefix = strings.Trim(prefix, "/")
	}
}

// WithQoS sets the MQTT quality of service level.
func WithQoS(qos byte) MQTTOption {
	return func(p *MQTTPublisher) {
		if qos <= 2 {
			p.qos = qos
		}
	}
}

// WithPublishTimeout bounds how long Publish waits for the broker.
func WithPublishTimeout(timeout time.Duration) MQTTOption {
	return func(p *MQTTPublisher) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// MQTTPublisher forwards topics to an MQTT broker. "posts:refetch" becomes
// "<prefix>/posts/refetch" carrying an Envelope.
type MQTTPublisher struct {
	client  MQTTClient
	prefix  string
	qos     byte
	timeout time.Duration
	now     func() time.Time
}

// NewMQTTPublisher wraps a connected client.
func NewMQTTPublisher(client MQTTClient, options ...MQTTOption) *MQTTPublisher {
	p := &MQTTPublisher{
		client:  client,
		prefix:  "resourceform",
		qos:     1,
		timeout: 5 * time.Second,
		now:     time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// DialMQTT connects a paho client to broker (for example "tcp://localhost:1883").
func DialMQTT(broker, clientID string, timeout time.Duration) (mqtt.Client, error) {
	if strings.TrimSpace(broker) == "" {
		return nil, errors.New("events: mqtt broker is required")
	}
	if clientID == "" {
		clientID = "resourceform-" + uuid.NewString()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetConnectTimeout(timeout)
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("events: mqtt connect to %s: %w", broker, ErrMQTTTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("events: mqtt connect to %s: %w", broker, err)
	}
	return client, nil
}

// BrokerTopic maps a bus topic onto the broker topic tree.
func (p *MQTTPublisher) BrokerTopic(topic string) string {
	path := strings.ReplaceAll(topic, ":", "/")
	if p.prefix == "" {
		return path
	}
	return p.prefix + "/" + path
}

// Publish implements Publisher.
func (p *MQTTPublisher) Publish(ctx context.Context, topic string) error {
	if p == nil || p.client == nil {
		return nil
	}

	body, err := json.Marshal(Envelope{
		ID:          uuid.NewString(),
		Topic:       topic,
		PublishedAt: p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("events: encode envelope: %w", err)
	}

	token := p.client.Publish(p.BrokerTopic(topic), p.qos, false, body)
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("events: mqtt publish %s: %w", topic, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("events: mqtt publish %s: %w", topic, ErrMQTTTimeout)
	}
}

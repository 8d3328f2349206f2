package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(err error, complete bool) *fakeToken {
	tok := &fakeToken{done: make(chan struct{}), err: err}
	if complete {
		close(tok.done)
	}
	return tok
}

func (t *fakeToken) Wait() bool                       { <-t.done; return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}            { return t.done }
func (t *fakeToken) Error() error                     { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	calls []published
	token *fakeToken
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	body, _ := payload.([]byte)
	c.calls = append(c.calls, published{topic: topic, qos: qos, payload: body})
	return c.token
}

func TestMQTTPublisherEnvelope(t *testing.T) {
	client := &fakeClient{token: newFakeToken(nil, true)}
	fixed := time.Date(2025, 10, 31, 16, 46, 34, 0, time.UTC)
	p := NewMQTTPublisher(client, WithTopicPrefix("/admin/"), WithQoS(0))
	p.now = func() time.Time { return fixed }

	if err := p.Publish(context.Background(), "posts:refetch"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected one publish, got %d", len(client.calls))
	}
	call := client.calls[0]
	if call.topic != "admin/posts/refetch" || call.qos != 0 {
		t.Fatalf("unexpected publish %+v", call)
	}

	var env Envelope
	if err := json.Unmarshal(call.payload, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Topic != "posts:refetch" || env.ID == "" || !env.PublishedAt.Equal(fixed) {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestMQTTPublisherErrors(t *testing.T) {
	failing := &fakeClient{token: newFakeToken(errors.New("not connected"), true)}
	if err := NewMQTTPublisher(failing).Publish(context.Background(), "posts:refetch"); err == nil {
		t.Fatalf("expected broker error")
	}

	stuck := &fakeClient{token: newFakeToken(nil, false)}
	p := NewMQTTPublisher(stuck, WithPublishTimeout(10*time.Millisecond))
	if err := p.Publish(context.Background(), "posts:refetch"); !errors.Is(err, ErrMQTTTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}

	var nilPublisher *MQTTPublisher
	if err := nilPublisher.Publish(context.Background(), "posts:refetch"); err != nil {
		t.Fatalf("nil publisher should be a no-op: %v", err)
	}
}

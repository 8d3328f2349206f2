package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/goliatone/go-resourceform/pkg/logging"
)

// RefetchSuffix is appended to a resource name to build its refetch topic.
const RefetchSuffix = ":refetch"

// RefetchTopic returns "<resource>:refetch".
func RefetchTopic(resource string) string {
	return resource + RefetchSuffix
}

// Publisher emits a topic without a payload.
type Publisher interface {
	Publish(ctx context.Context, topic string) error
}

// PublisherFunc adapts a function into a Publisher.
type PublisherFunc func(ctx context.Context, topic string) error

// Publish implements Publisher.
func (fn PublisherFunc) Publish(ctx context.Context, topic string) error {
	return fn(ctx, topic)
}

// Publish sends topic through p, treating a nil publisher as a no-op.
func Publish(ctx context.Context, p Publisher, topic string) error {
	if p == nil {
		return nil
	}
	return p.Publish(ctx, topic)
}

// Handler receives published topics.
type Handler func(ctx context.Context, topic string)

// Bus is an in-process publish/subscribe hub. Handlers run synchronously on
// the publishing goroutine in subscription order. A panicking handler is
// logged and does not stop delivery to the others.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]Handler
	log    *slog.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithBusLogger sets the logger that reports handler panics.
func WithBusLogger(log *slog.Logger) BusOption {
	return func(b *Bus) {
		b.log = log
	}
}

// NewBus returns an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{subs: make(map[string]map[uint64]Handler)}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Subscribe registers handler for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic string, handler Handler) func() {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[string]map[uint64]Handler)
	}
	b.nextID++
	id := b.nextID
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]Handler)
	}
	b.subs[topic][id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[topic], id)
			if len(b.subs[topic]) == 0 {
				delete(b.subs, topic)
			}
		})
	}
}

// Publish implements Publisher. Delivery is best effort and never fails.
func (b *Bus) Publish(ctx context.Context, topic string) error {
	if b == nil {
		return nil
	}
	log := logging.OrNop(b.log)
	for _, handler := range b.handlers(topic) {
		deliver(ctx, log, handler, topic)
	}
	return nil
}

// Topics returns the topics with at least one subscriber.
func (b *Bus) Topics() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.subs))
	for topic := range b.subs {
		out = append(out, topic)
	}
	sort.Strings(out)
	return out
}

func (b *Bus) handlers(topic string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entries := b.subs[topic]
	ids := make([]uint64, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Handler, 0, len(ids))
	for _, id := range ids {
		out = append(out, entries[id])
	}
	return out
}

func deliver(ctx context.Context, log *slog.Logger, handler Handler, topic string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("event handler panicked",
				slog.String("topic", topic),
				slog.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	handler(ctx, topic)
}

// Multi publishes to every non-nil publisher and joins their errors.
func Multi(publishers ...Publisher) Publisher {
	return PublisherFunc(func(ctx context.Context, topic string) error {
		var errs []error
		for _, p := range publishers {
			if err := Publish(ctx, p, topic); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

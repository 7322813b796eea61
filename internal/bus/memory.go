package bus

import "sync"

// topicQueue is an unbounded FIFO queue with a single delivery channel.
// A pump goroutine moves enqueued events onto the channel so that Publish
// never blocks, regardless of how slow consumers are.
type topicQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []Event
	out   chan Event
}

func newTopicQueue() *topicQueue {
	q := &topicQueue{out: make(chan Event)}
	q.cond = sync.NewCond(&q.mu)
	go q.pump()
	return q
}

func (q *topicQueue) enqueue(e Event) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()
	q.cond.Signal()
}

// pump runs for the lifetime of the process, matching the reference bus
// semantics where subscriptions never terminate.
func (q *topicQueue) pump() {
	for {
		q.mu.Lock()
		for len(q.items) == 0 {
			q.cond.Wait()
		}
		e := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()
		q.out <- e
	}
}

// InMemoryBus is the in-process Bus implementation backed by one queue per
// topic. Suitable for single-process deployments and tests; swap in NATSBus
// for anything spanning processes.
type InMemoryBus struct {
	mu     sync.Mutex
	queues map[string]*topicQueue
}

// NewInMemoryBus creates an empty in-process bus.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{queues: make(map[string]*topicQueue)}
}

func (b *InMemoryBus) queueFor(topic string) *topicQueue {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[topic]
	if !ok {
		q = newTopicQueue()
		b.queues[topic] = q
	}
	return q
}

// Publish enqueues the event onto its topic queue and returns immediately.
func (b *InMemoryBus) Publish(event Event) error {
	b.queueFor(event.Type).enqueue(event)
	return nil
}

// Subscribe returns the delivery channel for the topic. All subscribers to
// one topic share the same channel, so they compete for events.
func (b *InMemoryBus) Subscribe(topic string) <-chan Event {
	return b.queueFor(topic).out
}

// Package bus provides the typed event bus used to coordinate pipeline
// workers and the orchestrator. The default implementation is an in-process
// queue-based bus; a NATS-backed implementation is provided for multi-process
// deployments.
package bus

// Event is a single message on the bus. Every event belongs to exactly one
// topic (Type); all events for one pipeline job share a CorrelationID.
type Event struct {
	// Type is the namespaced topic, e.g. "jd.requested" or "compose.completed".
	Type string `json:"type"`
	// Payload carries the event data as loosely typed JSON-compatible values.
	Payload map[string]any `json:"payload"`
	// CorrelationID identifies the pipeline job this event belongs to.
	CorrelationID string `json:"correlation_id"`
	// ReplyTo optionally names the topic a generic worker should publish its
	// result to. This is what lets one step worker serve every stage.
	ReplyTo string `json:"reply_to,omitempty"`
}

// StringField returns a string payload field, or "" if absent or not a string.
func (e Event) StringField(key string) string {
	s, _ := e.Payload[key].(string)
	return s
}

// BoolField returns a bool payload field, defaulting to def if absent.
func (e Event) BoolField(key string, def bool) bool {
	v, ok := e.Payload[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// Bus is the abstract event bus. Publish enqueues without blocking and never
// drops an event while the process is alive. Subscribe returns a channel that
// delivers events for the topic indefinitely; the subscription never
// terminates on its own. Multiple subscribers to the same topic compete for
// events (work-stealing), they are not broadcast.
type Bus interface {
	Publish(event Event) error
	Subscribe(topic string) <-chan Event
}

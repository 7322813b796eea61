package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvWithTimeout(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestInMemoryBus_PublishSubscribe(t *testing.T) {
	b := NewInMemoryBus()
	ch := b.Subscribe("jd.requested")

	err := b.Publish(Event{
		Type:          "jd.requested",
		Payload:       map[string]any{"job_description": "Senior Go engineer"},
		CorrelationID: "job-1",
	})
	require.NoError(t, err)

	got := recvWithTimeout(t, ch)
	assert.Equal(t, "jd.requested", got.Type)
	assert.Equal(t, "job-1", got.CorrelationID)
	assert.Equal(t, "Senior Go engineer", got.StringField("job_description"))
}

func TestInMemoryBus_FIFOWithinTopic(t *testing.T) {
	b := NewInMemoryBus()
	ch := b.Subscribe("compose.completed")

	for i := 0; i < 10; i++ {
		require.NoError(t, b.Publish(Event{
			Type:    "compose.completed",
			Payload: map[string]any{"seq": i},
		}))
	}

	for i := 0; i < 10; i++ {
		got := recvWithTimeout(t, ch)
		assert.Equal(t, i, got.Payload["seq"])
	}
}

func TestInMemoryBus_PublishDoesNotBlockWithoutConsumer(t *testing.T) {
	b := NewInMemoryBus()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_ = b.Publish(Event{Type: "slow.topic", Payload: map[string]any{"i": i}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked without a consumer")
	}
}

func TestInMemoryBus_CompetingConsumersSplitWork(t *testing.T) {
	b := NewInMemoryBus()
	ch1 := b.Subscribe("match.requested")
	ch2 := b.Subscribe("match.requested")

	const n = 20
	for i := 0; i < n; i++ {
		require.NoError(t, b.Publish(Event{Type: "match.requested", Payload: map[string]any{"i": i}}))
	}

	seen := make(map[int]bool)
	for i := 0; i < n; i++ {
		select {
		case e := <-ch1:
			seen[e.Payload["i"].(int)] = true
		case e := <-ch2:
			seen[e.Payload["i"].(int)] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out draining competing consumers")
		}
	}
	// Each event delivered exactly once across both consumers.
	assert.Len(t, seen, n)
}

func TestInMemoryBus_TopicsAreIndependent(t *testing.T) {
	b := NewInMemoryBus()
	jd := b.Subscribe("jd.completed")
	profile := b.Subscribe("profile.completed")

	require.NoError(t, b.Publish(Event{Type: "profile.completed", CorrelationID: "job-2"}))

	got := recvWithTimeout(t, profile)
	assert.Equal(t, "job-2", got.CorrelationID)

	select {
	case e := <-jd:
		t.Fatalf("unexpected event on jd topic: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEvent_BoolField(t *testing.T) {
	e := Event{Payload: map[string]any{"run_qa": false, "bad": "yes"}}
	assert.False(t, e.BoolField("run_qa", true))
	assert.True(t, e.BoolField("missing", true))
	assert.False(t, e.BoolField("bad", false))
}

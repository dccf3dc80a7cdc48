package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBroadcastReachesOnlyOwnRoom(t *testing.T) {
	hub := NewHub()
	a, cancelA := hub.Subscribe("org-a")
	defer cancelA()
	b, cancelB := hub.Subscribe("org-b")
	defer cancelB()

	hub.Broadcast("org-a", EventServiceUpdated, map[string]string{"id": "svc-1"})

	ev := recv(t, a)
	assert.Equal(t, EventServiceUpdated, ev.Name)
	select {
	case ev := <-b:
		t.Fatalf("unexpected event in other room: %+v", ev)
	default:
	}
}

func TestSlowConsumerDropsEvents(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("org-a")
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Broadcast("org-a", EventIncidentUpdate, i)
	}

	// The buffer holds the first events; the overflow is dropped, never
	// blocking the broadcaster.
	assert.Len(t, ch, subscriberBuffer)
	ev := recv(t, ch)
	assert.Equal(t, 0, ev.Payload)
}

func TestCancelRemovesSubscriber(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("org-a")
	require.Equal(t, 1, hub.ClientCount("org-a"))

	cancel()
	cancel() // idempotent

	assert.Equal(t, 0, hub.ClientCount("org-a"))
	_, open := <-ch
	assert.False(t, open)

	// Broadcasting into an empty room is a no-op.
	hub.Broadcast("org-a", EventServiceDeleted, nil)
}

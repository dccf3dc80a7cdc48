// Package realtime fans out entity change events to connected status-page
// clients, one room per organization.
package realtime

import (
	"sync"
	"time"

	"github.com/statustrack/statustrack/internal/pkg/metrics"
)

// Event names pushed over the stream.
const (
	EventIncidentNew     = "incident_new"
	EventIncidentUpdate  = "incident_update"
	EventIncidentDeleted = "incident_deleted"
	EventServiceCreated  = "service_created"
	EventServiceUpdated  = "service_updated"
	EventServiceDeleted  = "service_deleted"
)

// Event is a single message delivered to subscribers.
type Event struct {
	Name      string    `json:"event"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

const subscriberBuffer = 16

// Hub routes events to per-organization subscriber channels. A subscriber
// whose buffer is full misses the event; clients are expected to re-fetch
// state on reconnect.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[chan Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a listener for an organization's events. The returned
// cancel function must be called when the listener goes away; the channel is
// closed by cancel.
func (h *Hub) Subscribe(orgID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	room, ok := h.rooms[orgID]
	if !ok {
		room = make(map[chan Event]struct{})
		h.rooms[orgID] = room
	}
	room[ch] = struct{}{}
	h.mu.Unlock()

	metrics.RealtimeClients.WithLabelValues(orgID).Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if room, ok := h.rooms[orgID]; ok {
				delete(room, ch)
				if len(room) == 0 {
					delete(h.rooms, orgID)
				}
			}
			h.mu.Unlock()
			close(ch)
			metrics.RealtimeClients.WithLabelValues(orgID).Dec()
		})
	}
	return ch, cancel
}

// Broadcast delivers an event to every subscriber of the organization.
// Delivery is non-blocking; slow consumers drop the event.
func (h *Hub) Broadcast(orgID, event string, payload any) {
	msg := Event{Name: event, Payload: payload, Timestamp: time.Now().UTC()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.rooms[orgID] {
		select {
		case ch <- msg:
		default:
		}
	}
}

// ClientCount returns the number of subscribers in an organization's room.
func (h *Hub) ClientCount(orgID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[orgID])
}

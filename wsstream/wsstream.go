// Package wsstream broadcasts discovery lifecycle events to any number of
// WebSocket subscribers.
package wsstream

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/shimmeringbee/cec"
)

// EventKind names one discovery lifecycle transition.
type EventKind string

const (
	EventPollComplete     EventKind = "poll_complete"
	EventStageAdvance     EventKind = "stage_advance"
	EventDeviceDiscovered EventKind = "device_discovered"
	EventDeviceTimedOut   EventKind = "device_timed_out"
	EventRunFinished      EventKind = "run_finished"
)

// Event is the JSON payload broadcast to every subscriber.
type Event struct {
	Kind    EventKind        `json:"kind"`
	RunID   string           `json:"run_id"`
	State   string           `json:"state,omitempty"`
	Devices []cec.DeviceInfo `json:"devices,omitempty"`
	Device  *cec.DeviceInfo  `json:"device,omitempty"`
}

const subscriberBuffer = 16

// Hub fans one stream of Events out to any number of subscribers. A
// subscriber that falls behind has its oldest buffered event dropped rather
// than backing up into Publish's caller — a stalled browser tab must
// never stall the discovery run that feeds it.
type Hub struct {
	upgrader    websocket.Upgrader
	subscribe   chan chan Event
	unsubscribe chan chan Event
	broadcast   chan Event
}

// NewHub starts the Hub's internal dispatcher goroutine and returns it
// ready to accept subscribers and broadcasts.
func NewHub() *Hub {
	h := &Hub{
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		subscribe:   make(chan chan Event),
		unsubscribe: make(chan chan Event),
		broadcast:   make(chan Event, subscriberBuffer),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	subscribers := map[chan Event]bool{}

	for {
		select {
		case ch := <-h.subscribe:
			subscribers[ch] = true
		case ch := <-h.unsubscribe:
			delete(subscribers, ch)
			close(ch)
		case ev := <-h.broadcast:
			for ch := range subscribers {
				select {
				case ch <- ev:
				default:
					// Buffer is full: drop the oldest queued event to make
					// room, rather than the new one, and rather than block
					// the dispatcher.
					select {
					case <-ch:
					default:
					}
					select {
					case ch <- ev:
					default:
					}
				}
			}
		}
	}
}

// Publish enqueues ev for every current subscriber. Safe to call from the
// same goroutine that drives a DiscoveryAction, since it never blocks.
func (h *Hub) Publish(ev Event) {
	select {
	case h.broadcast <- ev:
	default:
	}
}

// Subscribe returns a channel of Events for internal consumers (such as a
// StatusServer's in-memory view) that don't need a WebSocket connection.
// The returned channel must be passed to Unsubscribe once the consumer is
// done, or it leaks in the Hub's subscriber set.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	h.subscribe <- ch
	return ch
}

// Unsubscribe stops delivery to a channel previously returned by Subscribe
// and closes it.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.unsubscribe <- ch
}

// ServeHTTP upgrades the request to a WebSocket and streams every published
// Event to it as JSON until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := make(chan Event, subscriberBuffer)
	h.subscribe <- ch
	defer func() { h.unsubscribe <- ch }()

	for ev := range ch {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

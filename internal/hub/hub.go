// Package hub implements the best-effort broadcast fan-out to every
// connected terminal.  A publish stamps the event with the server time
// and the current registry size, then writes it to each live
// connection in turn.  Delivery is at-most-once: a closed or failing
// connection is skipped (and unregistered), never retried, and a
// terminal that is offline at publish time permanently misses the
// event.  Reconnecting terminals recover by re-fetching state through
// the pull endpoints, not through replay.
package hub

import (
	"log"
	"sync"
	"time"

	"github.com/dkhalitov/pos-terminal-sync/internal/model"
	"github.com/dkhalitov/pos-terminal-sync/internal/registry"
)

// Hub fans broadcast events out over the connection registry.  The
// publish mutex is the single serialization point the ordering
// guarantee rests on: events reach every recipient in the order their
// Publish calls acquired the lock.
type Hub struct {
	reg *registry.Registry
	mu  sync.Mutex
}

// New returns a hub bound to the given registry.
func New(reg *registry.Registry) *Hub {
	return &Hub{reg: reg}
}

// Publish delivers one event to every currently connected terminal.
// Write failures are logged and swallowed; they also unregister the
// offending connection so later publishes stop attempting it.  The
// returned count is the number of successful deliveries, which callers
// only use for logging; a failed broadcast never affects the state
// change that triggered it.
func (h *Hub) Publish(eventType model.EventType, data any) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	handles := h.reg.Handles()
	env := model.Envelope{
		Type:            eventType,
		Data:            data,
		ServerTimestamp: time.Now().UTC(),
		ActiveTerminals: len(handles),
	}

	delivered := 0
	for _, handle := range handles {
		if err := handle.Conn().WriteJSON(env); err != nil {
			log.Printf("hub: dropping terminal %s after write error: %v", handle.ID(), err)
			h.reg.Unregister(handle)
			_ = handle.Conn().Close()
			continue
		}
		delivered++
	}
	return delivered
}

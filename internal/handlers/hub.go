// internal/handlers/hub.go
package handlers

import (
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/lis531/bargebo-guesser/internal/game"
)

// outChanSize bounds each connection's outbound queue. A full queue drops
// the event for that client; the next players/directory broadcast catches
// the client up, so dropping beats blocking the registry.
const outChanSize = 64

// Hub tracks live connections and implements game.Broadcaster over their
// outbound channels. Sends never block.
type Hub struct {
	mu     sync.Mutex
	conns  map[uuid.UUID]chan game.Event
	logger *log.Logger
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		conns:  make(map[uuid.UUID]chan game.Event),
		logger: logger,
	}
}

// Register adds a connection and returns its outbound channel.
func (h *Hub) Register(id uuid.UUID) chan game.Event {
	ch := make(chan game.Event, outChanSize)
	h.mu.Lock()
	h.conns[id] = ch
	h.mu.Unlock()
	return ch
}

// Unregister removes a connection and closes its channel.
func (h *Hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	if ch, ok := h.conns[id]; ok {
		delete(h.conns, id)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *Hub) send(id uuid.UUID, ch chan game.Event, ev game.Event) {
	select {
	case ch <- ev:
	default:
		h.logger.Warnf("dropping %s event for lagging connection %s", ev.Type, id)
	}
}

// Unicast implements game.Broadcaster.
func (h *Hub) Unicast(conn uuid.UUID, ev game.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.conns[conn]; ok {
		h.send(conn, ch, ev)
	}
}

// Multicast implements game.Broadcaster.
func (h *Hub) Multicast(conns []uuid.UUID, ev game.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range conns {
		if ch, ok := h.conns[id]; ok {
			h.send(id, ch, ev)
		}
	}
}

// Broadcast implements game.Broadcaster.
func (h *Hub) Broadcast(ev game.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.conns {
		h.send(id, ch, ev)
	}
}

package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"fitconnect/internal/logger"
	"fitconnect/internal/session"

	"github.com/redis/go-redis/v9"
)

const sendBuffer = 16

type client struct {
	userID    int
	sessionID string
	send      chan []byte
}

// Hub fans auth events out to every open stream of the affected user.
type Hub struct {
	mu      sync.RWMutex
	clients map[int]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int]map[*client]struct{})}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; ok {
		delete(set, c)
		close(c.send)
	}
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

// Deliver queues ev for the user's streams and returns how many took it.
// A stream whose buffer is full misses the event.
func (h *Hub) Deliver(ev session.Event) int {
	data, err := json.Marshal(ev)
	if err != nil {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients[ev.UserID] {
		select {
		case c.send <- data:
			delivered++
		default:
			logger.Warn("Auth event dropped for slow stream", "user_id", ev.UserID, "session_id", c.sessionID)
		}
	}
	return delivered
}

// Count returns the number of open streams for a user.
func (h *Hub) Count(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Consume delivers every auth event read from msgs until ctx ends or msgs
// closes.
func (h *Hub) Consume(ctx context.Context, msgs <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			ev, err := session.ParseEvent(msg.Payload)
			if err != nil {
				logger.Warn("Malformed auth event", "channel", msg.Channel, "error", err)
				continue
			}
			h.Deliver(ev)
		}
	}
}

// Run feeds the hub from a Redis subscription and closes it on return.
func (h *Hub) Run(ctx context.Context, ps *redis.PubSub) {
	defer ps.Close()

	logger.Info("Auth event hub started")
	h.Consume(ctx, ps.Channel())
	logger.Info("Auth event hub stopped")
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, userID)
	}
}

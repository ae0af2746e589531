package ws

import (
	"encoding/json"
	"sync"

	"earntube/internal/domain"
	"earntube/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connected_clients",
		Help: "Websocket clients currently connected",
	})
	droppedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_dropped_events_total",
		Help: "Events dropped because a client send buffer was full",
	})
)

// Hub fans withdrawal events out to connected clients. Owners see their own
// withdrawals, admins see every withdrawal.
type Hub struct {
	mu     sync.RWMutex
	byUser map[int64]map[*Client]struct{}
	admins map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		byUser: make(map[int64]map[*Client]struct{}),
		admins: make(map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.IsAdmin {
		h.admins[c] = struct{}{}
	} else {
		set, ok := h.byUser[c.UserID]
		if !ok {
			set = make(map[*Client]struct{})
			h.byUser[c.UserID] = set
		}
		set[c] = struct{}{}
	}
	connectedClients.Inc()
	logger.Debug("ws client registered", "user_id", c.UserID, "admin", c.IsAdmin)
}

// Unregister removes c and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.IsAdmin {
		if _, ok := h.admins[c]; !ok {
			return
		}
		delete(h.admins, c)
	} else {
		set, ok := h.byUser[c.UserID]
		if !ok {
			return
		}
		if _, ok := set[c]; !ok {
			return
		}
		delete(set, c)
		if len(set) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
	close(c.Send)
	connectedClients.Dec()
	logger.Debug("ws client unregistered", "user_id", c.UserID)
}

// Publish implements service.EventPublisher. It never blocks: a client whose
// buffer is full misses the event.
func (h *Hub) Publish(ev domain.WithdrawalEvent) {
	if ev.Withdrawal == nil {
		return
	}
	msg, err := json.Marshal(Message{Type: MsgWithdrawal, Data: payloadOf(ev)})
	if err != nil {
		logger.Error("ws encode event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.byUser[ev.Withdrawal.UserID] {
		h.deliver(c, msg)
	}
	for c := range h.admins {
		h.deliver(c, msg)
	}
}

func (h *Hub) deliver(c *Client, msg []byte) {
	select {
	case c.Send <- msg:
	default:
		droppedEvents.Inc()
		logger.Warn("ws send buffer full, event dropped", "user_id", c.UserID)
	}
}

// Connected returns the number of registered clients
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := len(h.admins)
	for _, set := range h.byUser {
		n += len(set)
	}
	return n
}

// Package realtime carries the WebSocket surface of the studio: a single
// broadcast room that every connected dashboard shares, plus an optional
// Redis bridge so several instances stay in sync.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat, in seconds.
	PingInterval = 30
	PongWait     = 60
)

// Bridge fans events out to other instances. The hub publishes every
// event it broadcasts and replays events received from elsewhere.
type Bridge interface {
	PublishEvent(event string, payload []byte) error
	Subscribe(handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains the set of connected studio clients. There is one room;
// every event goes to everyone.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	bridge  Bridge
	cancel  func()
	logger  *zap.Logger
}

// NewHub creates the studio hub. bridge may be nil for single-instance
// deployments.
func NewHub(bridge Bridge, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		clients: make(map[string]*Client),
		bridge:  bridge,
		logger:  logger,
	}
	if bridge != nil {
		cancel, err := bridge.Subscribe(func(event string, payload []byte) {
			h.broadcastLocal(event, json.RawMessage(payload))
		})
		if err != nil {
			logger.Warn("event bridge subscribe failed, running standalone", zap.Error(err))
		} else {
			h.cancel = cancel
		}
	}
	return h
}

// Close stops the bridge subscription.
func (h *Hub) Close() {
	if h.cancel != nil {
		h.cancel()
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.String("client_id", c.ID), zap.Int("clients", count))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client disconnected", zap.String("client_id", c.ID), zap.Int("clients", count))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish broadcasts an event to every connected client and forwards it
// to the bridge for other instances. This is the event bus the rest of
// the service publishes into.
func (h *Hub) Publish(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("drop unmarshalable event", zap.String("event", event), zap.Error(err))
		return
	}
	h.broadcastLocal(event, data)
	if h.bridge != nil {
		if err := h.bridge.PublishEvent(event, data); err != nil {
			h.logger.Warn("bridge publish failed", zap.String("event", event), zap.Error(err))
		}
	}
}

// broadcastLocal delivers to local clients only. Slow clients with a full
// send buffer are skipped rather than blocking the publisher.
func (h *Hub) broadcastLocal(event string, data []byte) {
	msg := WSMessage{Event: event, Data: data}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// sendTo delivers an event to one client only, for acks.
func (h *Hub) sendTo(clientID string, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	c, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case c.send <- WSMessage{Event: event, Data: data}:
	default:
	}
}

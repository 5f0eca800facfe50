package websocket

// Central hub managing all feed connections.
// Each connection runs its own read and write goroutines, and they all talk
// to the hub through channels so the client set has a single owner.

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"bookhub/internal/microservices/http-api/service"
)

const broadcastBuffer = 256

// envelope is one encoded frame; an empty userID addresses every client.
type envelope struct {
	userID string
	data   []byte
}

type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope
	done       chan struct{}
	clients    map[*Client]struct{}
	count      atomic.Int64
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, broadcastBuffer),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
	}
}

var _ service.RewardsNotifier = (*Hub)(nil)

// Run owns the client set until ctx is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			slog.Info("feed_hub_stopped")
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Add(1)
			slog.Debug("feed_client_registered", "user_id", c.UserID)
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				slog.Debug("feed_client_unregistered", "user_id", c.UserID)
			}
		case env := <-h.broadcast:
			for c := range h.clients {
				if env.userID != "" && env.userID != c.UserID {
					continue
				}
				select {
				case c.send <- env.data:
				default:
					// slow consumer
					h.drop(c)
					slog.Warn("feed_client_dropped", "user_id", c.UserID)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Add(-1)
}

// Register hands c to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues e for userID, or for every client when userID is empty.
// It never blocks; events are discarded when the queue is full.
func (h *Hub) Publish(userID string, e *Event) {
	data, err := e.ToJSON()
	if err != nil {
		slog.Error("feed_encode_failed", "type", e.Type, "error", err)
		return
	}
	select {
	case h.broadcast <- envelope{userID: userID, data: data}:
	default:
		slog.Warn("feed_queue_full", "type", e.Type)
	}
}

// RewardsChanged turns a committed award into feed events.
func (h *Hub) RewardsChanged(_ context.Context, c service.RewardsChange) {
	now := time.Now().UTC()
	h.Publish(c.UserID, &Event{
		Type:      TypePointsAwarded,
		UserID:    c.UserID,
		Amount:    c.Amount,
		Reason:    c.Reason,
		Points:    c.Rewards.Points,
		Level:     c.Rewards.Level,
		Timestamp: now,
	})
	if c.LevelUp {
		h.Publish(c.UserID, &Event{
			Type:      TypeLevelUp,
			UserID:    c.UserID,
			Points:    c.Rewards.Points,
			Level:     c.Rewards.Level,
			Timestamp: now,
		})
	}
	h.Publish("", &Event{Type: TypeLeaderboardChanged, Timestamp: now})
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

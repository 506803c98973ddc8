package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/scanreview-backend/internal/app/service"
	"github.com/ikkim/scanreview-backend/pkg/logger"
)

// ClientMessage is the only kind of frame an owner sends on the feed.
type ClientMessage struct {
	Type string `json:"type"` // ping
}

// Client is one owner session on the review feed.
type Client struct {
	Hub           *Hub
	Conn          *Conn
	OwnerID       uint
	Send          chan []byte
	MessageCount  int       // frames received in the current second
	LastResetTime time.Time // start of the current rate window
	RateMu        sync.Mutex
}

// Delivery is a frame addressed to every session of one owner.
type Delivery struct {
	OwnerID uint
	Message []byte
}

// Hub fans review events out to connected business owners. An owner may hold
// several sessions at once.
type Hub struct {
	clients    map[uint][]*Client
	register   chan *Client
	unregister chan *Client
	deliver    chan *Delivery
	done       chan struct{} // closed once Run has returned
	stopOnce   sync.Once
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		deliver:    make(chan *Delivery, 1024),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.stopOnce.Do(func() { close(h.done) })
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.OwnerID] = append(h.clients[client.OwnerID], client)
			sessions := len(h.clients[client.OwnerID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"owner_id":       client.OwnerID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliver:
			h.mu.RLock()
			for _, client := range h.clients[d.OwnerID] {
				select {
				case client.Send <- d.Message:
				default:
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"owner_id": d.OwnerID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list, ok := h.clients[client.OwnerID]
	if !ok {
		return
	}
	kept := make([]*Client, 0, len(list))
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}
	if len(kept) == 0 {
		delete(h.clients, client.OwnerID)
	} else {
		h.clients[client.OwnerID] = kept
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"owner_id":           client.OwnerID,
		"remaining_sessions": len(kept),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ownerID, list := range h.clients {
		for _, c := range list {
			close(c.Send)
		}
		delete(h.clients, ownerID)
	}
}

// NotifyOwner queues event for every session of ownerID. Events for owners
// without a session are dropped.
func (h *Hub) NotifyOwner(ownerID uint, event service.ReviewEvent) {
	if !h.IsOwnerOnline(ownerID) {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal review event", err, map[string]interface{}{
			"owner_id":  ownerID,
			"review_id": event.ReviewID,
		})
		return
	}

	select {
	case h.deliver <- &Delivery{OwnerID: ownerID, Message: data}:
	default:
		logger.Warn("Delivery channel full, event dropped", map[string]interface{}{
			"owner_id":  ownerID,
			"review_id": event.ReviewID,
		})
	}
}

// Register queues client for the feed. After the hub has stopped the
// session's Send channel is closed right away so its pumps exit.
func (h *Hub) Register(client *Client) {
	select {
	case <-h.done:
		close(client.Send)
		return
	default:
	}

	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister never blocks once the hub has stopped; closeAll has already
// released every session.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) IsOwnerOnline(ownerID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[ownerID]
	return ok
}

// HandleClientMessage accepts keep-alive pings and logs anything else.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"owner_id": client.OwnerID,
			"count":    count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"owner_id": client.OwnerID,
			"error":    err.Error(),
		})
		return
	}

	if msg.Type != "ping" {
		logger.Debug("Ignoring client message", map[string]interface{}{
			"owner_id": client.OwnerID,
			"type":     msg.Type,
		})
	}
}

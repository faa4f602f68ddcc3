package services

import (
	"context"
	"log"
	"sync"
	"time"

	"tablestakes/internal/core/domain"
)

// SSEEvent represents a server-sent event about one snapshot key
type SSEEvent struct {
	Event      string     `json:"event"`
	Key        string     `json:"key"`
	LastUpdate *time.Time `json:"lastUpdate,omitempty"`
}

// SSEClient represents a connected SSE client watching one key
type SSEClient struct {
	ID      string
	Key     string
	Channel chan SSEEvent
}

// SnapshotHub fans snapshot writes out to SSE clients
type SnapshotHub struct {
	mu      sync.RWMutex
	clients map[string]*SSEClient
	closed  bool
}

// NewSnapshotHub creates a new SSE hub
func NewSnapshotHub() *SnapshotHub {
	return &SnapshotHub{
		clients: make(map[string]*SSEClient),
	}
}

// Register adds a new SSE client. It returns false once the hub is closed.
func (h *SnapshotHub) Register(client *SSEClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[client.ID] = client
	log.Printf("📡 SSE client registered: %s (key=%s) | total=%d", client.ID, client.Key, len(h.clients))
	return true
}

// Unregister removes an SSE client
func (h *SnapshotHub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Channel)
		delete(h.clients, clientID)
		log.Printf("📡 SSE client unregistered: %s | total=%d", clientID, len(h.clients))
	}
}

// Broadcast sends an event to every client watching key
func (h *SnapshotHub) Broadcast(key string, event SSEEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.Key = key
	for _, client := range h.clients {
		if client.Key != key {
			continue
		}
		select {
		case client.Channel <- event:
		default:
			// a pending event already tells the client to re-read
		}
	}
}

// ClientCount returns the number of connected clients
func (h *SnapshotHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones
func (h *SnapshotHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, client := range h.clients {
		close(client.Channel)
		delete(h.clients, id)
	}
}

// BroadcastCatalog announces every successful Put on a hub
type BroadcastCatalog struct {
	SnapshotCatalog
	hub *SnapshotHub
}

// NewBroadcastCatalog wraps catalog so writes reach hub's clients
func NewBroadcastCatalog(catalog SnapshotCatalog, hub *SnapshotHub) *BroadcastCatalog {
	return &BroadcastCatalog{SnapshotCatalog: catalog, hub: hub}
}

// Put writes through to the wrapped catalog, then broadcasts
func (c *BroadcastCatalog) Put(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.SnapshotCatalog.Put(ctx, key, data, ttl); err != nil {
		return err
	}
	c.hub.Broadcast(key, SSEEvent{Event: "snapshot", LastUpdate: domain.PeekLastUpdate(data)})
	return nil
}

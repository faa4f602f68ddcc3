package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"tablestakes/internal/core/domain"
	"tablestakes/internal/core/services"
	"tablestakes/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DefaultSSEHeartbeat is how often an idle stream is probed
const DefaultSSEHeartbeat = 30 * time.Second

// SnapshotEventsHandler streams snapshot writes to watching clients
type SnapshotEventsHandler struct {
	hub       *services.SnapshotHub
	heartbeat time.Duration
}

// NewSnapshotEventsHandler creates a new events handler
func NewSnapshotEventsHandler(hub *services.SnapshotHub, heartbeat time.Duration) *SnapshotEventsHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultSSEHeartbeat
	}
	return &SnapshotEventsHandler{
		hub:       hub,
		heartbeat: heartbeat,
	}
}

// Stream sends an event each time the snapshot under key is written
func (h *SnapshotEventsHandler) Stream(c *fiber.Ctx) error {
	key := c.Params("key")
	if _, ok := domain.CodeFromKey(key); !ok {
		return response.BadRequest(c, "invalid session key")
	}

	client := &services.SSEClient{
		ID:      fmt.Sprintf("sse-%s-%d", key, time.Now().UnixNano()),
		Key:     key,
		Channel: make(chan services.SSEEvent, 1),
	}
	if !h.hub.Register(client) {
		return response.ServiceUnavailable(c, "server is shutting down")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer h.hub.Unregister(client.ID)

		fmt.Fprintf(w, "event: connected\ndata: {\"client_id\":%q,\"key\":%q}\n\n", client.ID, key)
		if err := w.Flush(); err != nil {
			return
		}

		heartbeat := time.NewTicker(h.heartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-client.Channel:
				if !ok {
					return
				}
				if err := writeSSEEvent(w, event); err != nil {
					log.Printf("📡 SSE client disconnected: %s", client.ID)
					return
				}

			case <-heartbeat.C:
				fmt.Fprintf(w, ": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					log.Printf("📡 SSE client disconnected: %s", client.ID)
					return
				}
			}
		}
	})

	return nil
}

// writeSSEEvent writes a formatted SSE event and flushes it
func writeSSEEvent(w *bufio.Writer, event services.SSEEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
	return w.Flush()
}

package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"tablestakes/internal/adapters/http/middleware"
	"tablestakes/internal/core/domain"
	"tablestakes/internal/core/services"
	"tablestakes/internal/pkg/pagination"
	"tablestakes/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SnapshotHandler serves the snapshot store over HTTP
type SnapshotHandler struct {
	catalog    services.SnapshotCatalog
	defaultTTL time.Duration
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(catalog services.SnapshotCatalog, defaultTTL time.Duration) *SnapshotHandler {
	if defaultTTL <= 0 {
		defaultTTL = domain.DefaultSnapshotTTL
	}
	return &SnapshotHandler{
		catalog:    catalog,
		defaultTTL: defaultTTL,
	}
}

// GetSnapshot returns the raw snapshot stored under a key
func (h *SnapshotHandler) GetSnapshot(c *fiber.Ctx) error {
	key := c.Params("key")
	if _, ok := domain.CodeFromKey(key); !ok {
		return response.BadRequest(c, "invalid session key")
	}

	data, err := h.catalog.Get(c.UserContext(), key)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			log.Printf("❌ Get snapshot %s: %v", key, err)
		}
		return response.FromError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

// PutSnapshot overwrites the snapshot under a key and refreshes its expiry
func (h *SnapshotHandler) PutSnapshot(c *fiber.Ctx) error {
	key := c.Params("key")
	if _, ok := domain.CodeFromKey(key); !ok {
		return response.BadRequest(c, "invalid session key")
	}

	body := append([]byte(nil), c.Body()...)
	if len(body) == 0 || !json.Valid(body) {
		return response.BadRequest(c, "body must be a JSON snapshot")
	}

	ttl := h.defaultTTL
	if raw := c.Get(middleware.SnapshotTTLHeader); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return response.BadRequest(c, "invalid "+middleware.SnapshotTTLHeader+" header")
		}
		ttl = time.Duration(secs) * time.Second
	}

	if err := h.catalog.Put(c.UserContext(), key, body, ttl); err != nil {
		log.Printf("❌ Put snapshot %s: %v", key, err)
		return response.FromError(c, err)
	}
	return response.NoContent(c)
}

// ListSessions lists live sessions, most recently written first
func (h *SnapshotHandler) ListSessions(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	infos, total, err := h.catalog.List(c.UserContext(), params.Offset, params.Limit)
	if err != nil {
		log.Printf("❌ List sessions: %v", err)
		return response.InternalServerError(c, "failed to list sessions")
	}

	return response.Success(c, "Sessions retrieved successfully", pagination.New(infos, params, total))
}

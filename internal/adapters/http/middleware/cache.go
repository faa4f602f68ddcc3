package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// SnapshotTTLHeader lets a writer override the store's default expiry
const SnapshotTTLHeader = "X-Snapshot-TTL"

// NoCacheHeaders sets no-cache headers. Snapshot reads must never be
// served stale by an intermediary.
func NoCacheHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		c.Set("Pragma", "no-cache")
		c.Set("Expires", "0")
		return c.Next()
	}
}

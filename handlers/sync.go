// handlers/sync.go
package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"disciplinebaby/services"
)

// Sync copies a snapshot to the authoritative backend. The snapshot is the
// request body; with an empty body the server's local store is used.
// Failures are reported in the result with status 200.
func (h *API) Sync(c *fiber.Ctx) error {
	ctx := c.UserContext()
	body := c.Body()
	if len(body) == 0 {
		return c.JSON(h.app.SyncFromLocal(ctx))
	}

	var snap services.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if snap.User.ID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "user is required")
	}
	return c.JSON(h.app.Sync.SyncLocalToAuthoritative(ctx, snap))
}

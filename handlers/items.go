// handlers/items.go
package handlers

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"disciplinebaby/models"
)

type ItemRequest struct {
	Action string          `json:"action"`
	Item   json.RawMessage `json:"item"`
	ItemID string          `json:"itemId"`
}

// itemStore is the part of a repository the reward and achievement
// endpoints use.
type itemStore[T any] interface {
	Load(ctx context.Context) []T
	Save(ctx context.Context, patch []byte, id string) (T, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

func (h *API) GetRewards(c *fiber.Ctx) error {
	return c.JSON(h.app.Rewards.Load(c.UserContext()))
}

func (h *API) PostRewards(c *fiber.Ctx) error {
	return postItems[models.Reward](c, h.app.Rewards)
}

func (h *API) GetAchievements(c *fiber.Ctx) error {
	return c.JSON(h.app.Achievements.Load(c.UserContext()))
}

func (h *API) PostAchievements(c *fiber.Ctx) error {
	return postItems[models.Achievement](c, h.app.Achievements)
}

func postItems[T any](c *fiber.Ctx, items itemStore[T]) error {
	var req ItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	ctx := c.UserContext()

	switch req.Action {
	case "add":
		if len(req.Item) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "item is required")
		}
		if _, _, err := items.Save(ctx, req.Item, ""); err != nil {
			return err
		}
	case "edit":
		if _, _, err := items.Save(ctx, req.Item, req.ItemID); err != nil {
			return err
		}
	case "delete":
		if _, err := items.Delete(ctx, req.ItemID); err != nil {
			return err
		}
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Unknown action")
	}
	return c.JSON(items.Load(ctx))
}

// handlers/user.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"disciplinebaby/models"
)

func (h *API) GetUser(c *fiber.Ctx) error {
	return c.JSON(h.app.Users.Load(c.UserContext()))
}

// SaveUser merges the request body into the profile.
func (h *API) SaveUser(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	user, err := h.app.Users.Save(c.UserContext(), body)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *API) RecordVisit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, counted, err := h.app.Profile.RecordVisit(ctx, models.DateOf(h.app.Clock()))
	if err != nil {
		return err
	}
	if counted {
		h.unlockReached(c)
	}
	return c.JSON(fiber.Map{"user": user, "counted": counted})
}

func (h *API) GetProgress(c *fiber.Ctx) error {
	return c.JSON(h.app.Profile.Progress(c.UserContext()))
}

func (h *API) GetWeeklyReport(c *fiber.Ctx) error {
	return c.JSON(h.app.Reports.Weekly(c.UserContext(), models.DateOf(h.app.Clock())))
}

// unlockReached is best effort; a failure never fails the request.
func (h *API) unlockReached(c *fiber.Ctx) {
	unlocked, err := h.app.Profile.UnlockReached(c.UserContext(), h.app.Clock())
	if err != nil {
		h.log.Warn("could not unlock achievements", "error", err)
		return
	}
	for _, a := range unlocked {
		h.log.Info("🏆 achievement unlocked", "id", a.ID, "title", a.Title)
	}
}

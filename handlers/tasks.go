// handlers/tasks.go
package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"disciplinebaby/repository"
)

type TaskRequest struct {
	Action    string          `json:"action"`
	Task      json.RawMessage `json:"task"`
	TaskID    string          `json:"taskId"`
	Completed bool            `json:"completed"`
}

func (h *API) GetTasks(c *fiber.Ctx) error {
	return c.JSON(h.app.Tasks.Load(c.UserContext()))
}

func (h *API) GetTasksToday(c *fiber.Ctx) error {
	return c.JSON(h.app.Tasks.DueOn(c.UserContext(), h.app.Clock()))
}

// PostTasks applies one action and answers with the task list and profile.
// Actions naming an unknown task change nothing.
func (h *API) PostTasks(c *fiber.Ctx) error {
	var req TaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	ctx := c.UserContext()

	switch req.Action {
	case "add":
		if len(req.Task) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "task is required")
		}
		if _, _, err := h.app.Tasks.Save(ctx, req.Task, ""); err != nil {
			return err
		}
	case "edit":
		if _, _, err := h.app.Tasks.Save(ctx, req.Task, req.TaskID); err != nil {
			return err
		}
	case "delete":
		if _, err := h.app.Tasks.Delete(ctx, req.TaskID); err != nil {
			return err
		}
	case "complete":
		res, err := h.app.Tracker.CompleteTask(ctx, req.TaskID, req.Completed)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if res.Changed && req.Completed {
			h.unlockReached(c)
		}
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Unknown action")
	}

	return c.JSON(fiber.Map{
		"tasks": h.app.Tasks.Load(ctx),
		"user":  h.app.Users.Load(ctx),
	})
}

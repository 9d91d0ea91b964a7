// handlers/api.go
package handlers

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"disciplinebaby/app"
	"disciplinebaby/middleware"
	"disciplinebaby/repository"
)

// API serves the JSON endpoints over one assembled App.
type API struct {
	app *app.App
	log *slog.Logger
}

func New(a *app.App) *API {
	return &API{app: a, log: a.Log.With("component", "http")}
}

type ServerOptions struct {
	// RateLimiter limits /api per client IP when set.
	RateLimiter *middleware.RateLimiter
	// RequestLog receives one access line per request when set.
	RequestLog io.Writer
}

// NewServer returns a configured Fiber app with every route registered.
func NewServer(a *app.App, opts ServerOptions) *fiber.App {
	api := New(a)

	server := fiber.New(fiber.Config{
		ErrorHandler: api.errorHandler,
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	server.Use(recover.New())
	if opts.RequestLog != nil {
		server.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
			Output: opts.RequestLog,
		}))
	}
	server.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	if opts.RateLimiter != nil {
		server.Use(middleware.FiberRateLimitMiddleware(opts.RateLimiter, middleware.SkipHealth))
	}

	api.Register(server)

	server.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Endpoint not found"})
	})
	return server
}

// Register mounts the routes on r.
func (h *API) Register(r fiber.Router) {
	r.Get("/health", h.Health)

	api := r.Group("/api")
	api.Get("/status", h.Status)

	api.Get("/user", h.GetUser)
	api.Post("/user", h.SaveUser)
	api.Post("/user/visit", h.RecordVisit)

	api.Get("/tasks", h.GetTasks)
	api.Post("/tasks", h.PostTasks)
	api.Get("/tasks/today", h.GetTasksToday)

	api.Get("/rewards", h.GetRewards)
	api.Post("/rewards", h.PostRewards)
	api.Get("/achievements", h.GetAchievements)
	api.Post("/achievements", h.PostAchievements)

	api.Get("/progress", h.GetProgress)
	api.Get("/reports/weekly", h.GetWeeklyReport)
	api.Post("/sync", h.Sync)

	ws := r.Group("/ws")
	ws.Use(func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/events", websocket.New(h.StreamEvents))
}

func (h *API) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
	case errors.Is(err, repository.ErrNotFound):
		code = fiber.StatusNotFound
	}

	if code >= fiber.StatusInternalServerError {
		h.log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func (h *API) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"backend":   h.app.Storage.Backend(),
	})
}

func (h *API) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"userId":     h.app.Config.UserID,
		"backend":    h.app.Storage.Status.Backend,
		"persistent": h.app.Storage.Status.Persistent,
		"reason":     h.app.Storage.Status.Reason,
	})
}

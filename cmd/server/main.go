// cmd/server/main.go
package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"disciplinebaby/app"
	"disciplinebaby/config"
	"disciplinebaby/handlers"
	"disciplinebaby/logging"
	"disciplinebaby/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	logger, logCloser := logging.New(logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
		JSON:  cfg.Production(),
	})
	defer logCloser.Close()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		MaxRequests: cfg.RateLimitMaxRequests,
		Window:      cfg.RateLimitWindow,
	})
	stopCleanup := make(chan struct{})
	go limiter.RunCleanup(10*time.Minute, 30*time.Minute, stopCleanup)

	server := handlers.NewServer(a, handlers.ServerOptions{
		RateLimiter: limiter,
		RequestLog:  os.Stdout,
	})

	go func() {
		logger.Info("🚀 HTTP server starting", "port", cfg.Port, "env", cfg.AppEnv)
		logger.Info("💾 Storage", "backend", a.Storage.Status.Backend, "persistent", a.Storage.Status.Persistent, "reason", a.Storage.Status.Reason)
		logger.Info("🌐 Event stream available", "url", "ws://localhost:"+cfg.Port+"/ws/events")
		if err := server.Listen(":" + cfg.Port); err != nil {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"http": func(ctx context.Context) error {
			logger.Info("shutting down HTTP server")
			close(stopCleanup)
			return server.ShutdownWithContext(ctx)
		},
	})

	exitCode := <-wait
	if err := a.Close(); err != nil {
		logger.Warn("error while closing storage", "error", err)
	}
	logger.Info("server exited", "code", exitCode)
	logCloser.Close()
	os.Exit(exitCode)
}

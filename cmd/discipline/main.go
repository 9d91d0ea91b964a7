// cmd/discipline/main.go - command line access to the tracker
package main

import (
	"context"
	"fmt"
	"os"

	"disciplinebaby/app"
	"disciplinebaby/config"
	"disciplinebaby/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger, logCloser := logging.New(logging.Options{Level: "warn", File: cfg.LogFile})
	defer logCloser.Close()

	open := func(ctx context.Context) (*app.App, error) {
		return app.New(ctx, cfg, logger)
	}
	if err := newRootCmd(open).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		logCloser.Close()
		os.Exit(1)
	}
}

// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

// Command hyperpost publishes content to multiple social platforms from
// the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hyperdrift-io/hyperpost/internal/cli"
	"github.com/hyperdrift-io/hyperpost/internal/config"
	"github.com/hyperdrift-io/hyperpost/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Credentials usually live in a .env file next to the working
	// directory; a missing file is the normal case on servers.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(cfg)
	defer func() {
		if err := app.Close(); err != nil {
			logging.Warn().Err(err).Msg("failed to close posting history")
		}
	}()

	if err := cli.NewRootCmd(app).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

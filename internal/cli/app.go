// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

// Package cli implements the hyperpost command surface.
//
// Commands resolve their dependencies through the App, which opens the
// history database and builds the dispatcher lazily. Preview-only paths
// like post --dry-run never touch either.
package cli

import (
	"context"
	"fmt"

	"github.com/hyperdrift-io/hyperpost/internal/config"
	"github.com/hyperdrift-io/hyperpost/internal/dispatch"
	"github.com/hyperdrift-io/hyperpost/internal/store"
)

// App carries the loaded configuration and the lazily built components
// the commands share.
type App struct {
	cfg        *config.Config
	store      *store.Store
	dispatcher *dispatch.Dispatcher
}

// NewApp wraps a loaded configuration. Nothing is opened yet.
func NewApp(cfg *config.Config) *App {
	return &App{cfg: cfg}
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Store opens the history database on first use.
func (a *App) Store() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.Open(a.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open posting history: %w", err)
	}
	a.store = s
	return s, nil
}

// Dispatcher builds the publish dispatcher on first use.
func (a *App) Dispatcher(ctx context.Context) (*dispatch.Dispatcher, error) {
	if a.dispatcher != nil {
		return a.dispatcher, nil
	}
	s, err := a.Store()
	if err != nil {
		return nil, err
	}
	d, err := dispatch.New(ctx, a.cfg, s)
	if err != nil {
		return nil, err
	}
	a.dispatcher = d
	return d, nil
}

// Close releases whatever was opened.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

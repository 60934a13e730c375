// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

// Package dispatch orchestrates multi-platform publishing.
//
// The Dispatcher is the only stateful orchestration component: it holds
// one credential-validated adapter per active platform and runs the
// publish pipeline (duplicate check, publish, record) per target. Fan-out
// is settle-all, never fail-fast; a slow or failing platform cannot block
// or cancel the others, and partial success is the expected common case.
//
// Each platform's outbound calls are guarded by a circuit breaker so a
// platform outage stops burning its rate limits after repeated failures.
//
// There is no per-fingerprint lock: two concurrent submissions of
// identical content can both pass the duplicate check and both publish.
// The duplicate window protects against repeats across invocations, not
// within one.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/hyperdrift-io/hyperpost/internal/config"
	"github.com/hyperdrift-io/hyperpost/internal/fingerprint"
	"github.com/hyperdrift-io/hyperpost/internal/logging"
	"github.com/hyperdrift-io/hyperpost/internal/models"
	"github.com/hyperdrift-io/hyperpost/internal/platform"
	"github.com/hyperdrift-io/hyperpost/internal/store"
)

// Dispatcher coordinates publishing across all active platform adapters.
type Dispatcher struct {
	adapters map[string]platform.Adapter
	store    *store.Store
	breakers map[string]*gobreaker.CircuitBreaker[*models.PostingResult]

	mu      sync.RWMutex
	window  time.Duration
	timeout time.Duration
}

// New builds a Dispatcher from the loaded configuration. Platforms with
// absent or partial credentials are simply not active. The platform
// reference rows are seeded on construction.
func New(ctx context.Context, cfg *config.Config, st *store.Store) (*Dispatcher, error) {
	if err := st.SeedPlatforms(ctx); err != nil {
		return nil, fmt.Errorf("failed to seed platforms: %w", err)
	}
	d := newDispatcher(platform.NewRegistry(cfg), st, cfg.Dispatch)

	logging.Debug().
		Strs("platforms", d.ConfiguredPlatforms()).
		Dur("duplicate_window", d.window).
		Msg("dispatcher ready")
	return d, nil
}

func newDispatcher(adapters map[string]platform.Adapter, st *store.Store, cfg config.DispatchConfig) *Dispatcher {
	window := cfg.DuplicateWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	breakers := make(map[string]*gobreaker.CircuitBreaker[*models.PostingResult], len(adapters))
	for name := range adapters {
		breakers[name] = newPlatformBreaker(name)
	}

	return &Dispatcher{
		adapters: adapters,
		store:    st,
		breakers: breakers,
		window:   window,
		timeout:  timeout,
	}
}

// newPlatformBreaker guards one platform's publish calls. Opens after 5
// consecutive failures, retries after a minute.
func newPlatformBreaker(name string) *gobreaker.CircuitBreaker[*models.PostingResult] {
	return gobreaker.NewCircuitBreaker[*models.PostingResult](gobreaker.Settings{
		Name:    name,
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("platform", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
}

// ConfiguredPlatforms returns the active platform names, sorted.
func (d *Dispatcher) ConfiguredPlatforms() []string {
	return platform.Names(d.adapters)
}

// IsConfigured reports whether a platform is active.
func (d *Dispatcher) IsConfigured(name string) bool {
	_, ok := d.adapters[name]
	return ok
}

// Adapter returns the active adapter for a platform name.
func (d *Dispatcher) Adapter(name string) (platform.Adapter, bool) {
	a, ok := d.adapters[name]
	return a, ok
}

// SetDuplicateWindow changes the window used by subsequent duplicate
// checks. The default is 24 hours.
func (d *Dispatcher) SetDuplicateWindow(window time.Duration) {
	d.mu.Lock()
	d.window = window
	d.mu.Unlock()
}

func (d *Dispatcher) duplicateWindow() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.window
}

// PublishToPlatform runs the full pipeline for one platform: active
// check, duplicate check, publish, record. The returned result is never
// nil and never accompanied by an error; failures are data.
func (d *Dispatcher) PublishToPlatform(ctx context.Context, platformName string, post models.SocialPost) *models.PostingResult {
	adapter, ok := d.adapters[platformName]
	if !ok {
		return &models.PostingResult{
			Platform: platformName,
			Error:    fmt.Sprintf("Platform %s not configured or credentials missing", platformName),
		}
	}

	window := d.duplicateWindow()
	hash := fingerprint.Hash(post)
	check := d.store.IsDuplicate(ctx, hash, platformName, window)
	if check.IsDuplicate {
		return duplicateResult(platformName, window, check)
	}

	result := d.publish(ctx, adapter, post)

	// Best-effort; never affects the returned result.
	d.store.Record(ctx, post, platformName, result)

	if result.Success {
		logging.Ctx(ctx).Info().
			Str("platform", platformName).
			Str("url", result.URL).
			Msg("published")
	} else {
		logging.Ctx(ctx).Warn().
			Str("platform", platformName).
			Str("error", result.Error).
			Msg("publish failed")
	}
	return result
}

// publish invokes the adapter under the platform's circuit breaker and
// a per-call timeout.
func (d *Dispatcher) publish(ctx context.Context, adapter platform.Adapter, post models.SocialPost) *models.PostingResult {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	breaker := d.breakers[adapter.Name()]
	result, err := breaker.Execute(func() (*models.PostingResult, error) {
		r := adapter.Publish(ctx, post)
		if r == nil {
			return nil, fmt.Errorf("adapter returned no result")
		}
		if !r.Success {
			// Feed the breaker's failure counting; the result still
			// carries the error as data.
			return r, errors.New(r.Error)
		}
		return r, nil
	})
	if result != nil {
		return result
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &models.PostingResult{
				Platform: adapter.Name(),
				Error:    fmt.Sprintf("skipped: too many recent failures on %s, retrying later", adapter.Name()),
			}
		}
		return &models.PostingResult{Platform: adapter.Name(), Error: err.Error()}
	}
	return &models.PostingResult{Platform: adapter.Name(), Error: "adapter returned no result"}
}

func duplicateResult(platformName string, window time.Duration, check models.DuplicateCheck) *models.PostingResult {
	lastPosted := ""
	if check.LastPosted != nil {
		lastPosted = fmt.Sprintf(" (last posted: %s)", check.LastPosted.Local().Format("2006-01-02 15:04"))
	}
	return &models.PostingResult{
		Platform: platformName,
		Error: fmt.Sprintf("Duplicate content: This post was already sent to %s within the last %s%s. Previously posted to: %s",
			platformName, window, lastPosted, strings.Join(check.PostedTo, ", ")),
	}
}

// PublishToAll fans out to every active platform concurrently and waits
// for all pipelines to settle. Result order is not guaranteed to match
// any particular platform ordering.
func (d *Dispatcher) PublishToAll(ctx context.Context, post models.SocialPost) *models.MultiPlatformResult {
	return d.PublishToPlatforms(ctx, d.ConfiguredPlatforms(), post)
}

// PublishToPlatforms is PublishToAll restricted to the named platforms.
// An inactive name yields a per-item failure result, not an error, and
// does not short-circuit the rest of the batch.
func (d *Dispatcher) PublishToPlatforms(ctx context.Context, names []string, post models.SocialPost) *models.MultiPlatformResult {
	// Tag every per-platform log line of this fan-out with one ID.
	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}

	started := time.Now()
	logging.Ctx(ctx).Info().
		Strs("platforms", names).
		Msg("starting multi-platform publish")

	results := make([]models.PostingResult, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i] = *d.PublishToPlatform(ctx, name, post)
		}(i, name)
	}
	wg.Wait()

	out := &models.MultiPlatformResult{Results: results}
	for _, r := range results {
		if r.Success {
			out.Successful++
		} else {
			out.Failed++
		}
	}

	logging.Ctx(ctx).Info().
		Int("successful", out.Successful).
		Int("failed", out.Failed).
		Dur("duration", time.Since(started)).
		Msg("multi-platform publish settled")
	return out
}

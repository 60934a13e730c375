// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hyperdrift-io/hyperpost/internal/fingerprint"
	"github.com/hyperdrift-io/hyperpost/internal/logging"
	"github.com/hyperdrift-io/hyperpost/internal/models"
	"github.com/hyperdrift-io/hyperpost/internal/store"
)

// RefreshEngagement fetches current engagement metrics for every
// published link whose stored metrics are older than maxAge, and writes
// them back to the store. Individual fetch failures are logged and
// skipped. Returns the number of links refreshed.
func (d *Dispatcher) RefreshEngagement(ctx context.Context, maxAge time.Duration) (int, error) {
	links, err := d.store.StaleLinks(ctx, maxAge)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale links: %w", err)
	}

	// One fetch per second keeps us under every platform's rate limits.
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)

	refreshed := 0
	for _, link := range links {
		adapter, ok := d.adapters[link.Platform]
		if !ok {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return refreshed, err
		}

		engagement, err := adapter.Engagement(ctx, link.URL)
		if err != nil {
			logging.Warn().
				Str("platform", link.Platform).
				Str("url", link.URL).
				Err(err).
				Msg("engagement fetch failed")
			continue
		}
		for metric, value := range engagement {
			if err := d.store.UpsertMetric(ctx, link.ID, metric, value); err != nil {
				logging.Warn().
					Str("metric", metric).
					Err(err).
					Msg("failed to record metric")
			}
		}
		refreshed++
	}
	return refreshed, nil
}

// Summary returns the stored analytics rollup, optionally filtered by
// platform and restricted to the last N days.
func (d *Dispatcher) Summary(ctx context.Context, platformName string, days int) (*models.AnalyticsSummary, error) {
	return d.store.Summary(ctx, platformName, days)
}

// StaleLinks exposes the links RefreshEngagement would visit.
func (d *Dispatcher) StaleLinks(ctx context.Context, maxAge time.Duration) ([]store.Link, error) {
	return d.store.StaleLinks(ctx, maxAge)
}

// DiscoverPosts lists the authenticated account's recent posts on one
// platform, newest first.
func (d *Dispatcher) DiscoverPosts(ctx context.Context, platformName string, limit int) ([]models.RecentPost, error) {
	adapter, ok := d.adapters[platformName]
	if !ok {
		return nil, fmt.Errorf("platform %s not configured or credentials missing", platformName)
	}
	return adapter.RecentPosts(ctx, limit)
}

// InferPlatform guesses which platform a post URL belongs to.
func InferPlatform(postURL string) (string, bool) {
	switch {
	case strings.Contains(postURL, "mastodon.social"):
		return "mastodon", true
	case strings.Contains(postURL, "bsky.app"):
		return "bluesky", true
	case strings.Contains(postURL, "reddit.com"):
		return "reddit", true
	case strings.Contains(postURL, "discord.com"):
		return "discord", true
	}
	return "", false
}

// ImportPost backfills one post published outside HyperPost into the
// store, so duplicate checks and history cover it. The platform is
// inferred from the URL and the post body is recovered from the
// platform's recent-posts listing.
func (d *Dispatcher) ImportPost(ctx context.Context, postURL string) (*models.RecentPost, error) {
	platformName, ok := InferPlatform(postURL)
	if !ok {
		return nil, fmt.Errorf("could not infer platform from URL: %s", postURL)
	}
	adapter, ok := d.adapters[platformName]
	if !ok {
		return nil, fmt.Errorf("platform %s not configured or credentials missing", platformName)
	}

	const lookback = 50
	recent, err := adapter.RecentPosts(ctx, lookback)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent %s posts: %w", platformName, err)
	}
	var found *models.RecentPost
	for i := range recent {
		if recent[i].URL == postURL {
			found = &recent[i]
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("post not found in the %d most recent %s posts", lookback, platformName)
	}

	post := models.SocialPost{
		Title:   importTitle(found.Content),
		Content: found.Content,
		URL:     postURL,
	}
	hash := fingerprint.ImportHash(found.Content, postURL)
	if err := d.store.ImportPost(ctx, post, hash, platformName, postURL, found.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to import post: %w", err)
	}

	logging.Info().
		Str("platform", platformName).
		Str("url", postURL).
		Msg("imported post")
	return found, nil
}

// importTitle derives a title from the first line of recovered content.
func importTitle(content string) string {
	line, _, _ := strings.Cut(content, "\n")
	if len(line) > 200 {
		line = line[:200]
	}
	return strings.TrimSpace(line)
}

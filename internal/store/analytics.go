// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperdrift-io/hyperpost/internal/models"
)

// Link identifies one published post link for analytics collection.
type Link struct {
	ID        int64
	Platform  string
	PostTitle string
	URL       string
	PostedAt  time.Time
}

// StaleLinks returns platform links that have no engagement metric recorded
// within maxAge, newest publishes first. These are the candidates for the
// next metrics refresh.
func (s *Store) StaleLinks(ctx context.Context, maxAge time.Duration) ([]Link, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	rows, err := s.db.QueryContext(ctx,
		`SELECT pp.id, pl.name, p.title, pp.post_url, pp.posted_at
		 FROM post_platforms pp
		 JOIN platforms pl ON pl.id = pp.platform_id
		 JOIN posts p ON p.id = pp.post_id
		 WHERE pp.post_url != ''
		   AND NOT EXISTS (
				SELECT 1 FROM post_analytics pa
				WHERE pa.post_platform_id = pp.id AND pa.recorded_at >= ?)
		 ORDER BY pp.posted_at DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale links: %w", err)
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ID, &l.Platform, &l.PostTitle, &l.URL, &l.PostedAt); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// UpsertMetric stores one metric value for a platform link, overwriting any
// previous reading for the same metric.
func (s *Store) UpsertMetric(ctx context.Context, linkID int64, metric string, value int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO post_analytics (post_platform_id, metric, value, recorded_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(post_platform_id, metric) DO UPDATE SET
			value = excluded.value,
			recorded_at = excluded.recorded_at`,
		linkID, metric, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert metric %s: %w", metric, err)
	}
	return nil
}

// Summary builds the cached analytics rollup from stored data only; it
// never touches the network. platform filters to one platform when
// non-empty, days bounds the window (<=0 means all time).
func (s *Store) Summary(ctx context.Context, platform string, days int) (*models.AnalyticsSummary, error) {
	cutoff := time.Time{}
	if days > 0 {
		cutoff = time.Now().UTC().AddDate(0, 0, -days)
	}

	summary := &models.AnalyticsSummary{ByPlatform: make(map[string]int)}

	rows, err := s.db.QueryContext(ctx,
		`SELECT pl.name, COUNT(*)
		 FROM post_platforms pp JOIN platforms pl ON pl.id = pp.platform_id
		 WHERE pp.posted_at >= ? AND (? = '' OR pl.name = ?)
		 GROUP BY pl.name`, cutoff, platform, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to query post counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan post count: %w", err)
		}
		summary.ByPlatform[name] = count
		summary.TotalPosts += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate post counts: %w", err)
	}

	engRows, err := s.db.QueryContext(ctx,
		`SELECT pp.id, pl.name, p.title, pp.post_url, pp.posted_at, pa.metric, pa.value
		 FROM post_platforms pp
		 JOIN platforms pl ON pl.id = pp.platform_id
		 JOIN posts p ON p.id = pp.post_id
		 JOIN post_analytics pa ON pa.post_platform_id = pp.id
		 WHERE pp.posted_at >= ? AND (? = '' OR pl.name = ?)
		 ORDER BY pp.posted_at DESC, pp.id, pa.metric`,
		cutoff, platform, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to query engagement: %w", err)
	}
	defer engRows.Close()

	var current *models.EngagementRecord
	var currentID int64
	for engRows.Next() {
		var (
			linkID      int64
			name, title string
			url         string
			postedAt    time.Time
			metric      string
			value       int
		)
		if err := engRows.Scan(&linkID, &name, &title, &url, &postedAt, &metric, &value); err != nil {
			return nil, fmt.Errorf("failed to scan engagement: %w", err)
		}
		if current == nil || linkID != currentID {
			summary.Engagement = append(summary.Engagement, models.EngagementRecord{
				Platform:  name,
				PostTitle: title,
				URL:       url,
				PostedAt:  postedAt,
				Metrics:   make(models.Engagement),
			})
			current = &summary.Engagement[len(summary.Engagement)-1]
			currentID = linkID
		}
		current.Metrics[metric] = value
	}
	if err := engRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate engagement: %w", err)
	}

	return summary, nil
}

// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hyperdrift-io/hyperpost/internal/fingerprint"
	"github.com/hyperdrift-io/hyperpost/internal/logging"
	"github.com/hyperdrift-io/hyperpost/internal/models"
)

// SupportedPlatforms is the reference data seeded at dispatcher startup.
var SupportedPlatforms = []models.Platform{
	{Name: "mastodon", DisplayName: "Mastodon"},
	{Name: "bluesky", DisplayName: "Bluesky"},
	{Name: "reddit", DisplayName: "Reddit"},
	{Name: "discord", DisplayName: "Discord"},
	{Name: "devto", DisplayName: "Dev.to"},
	{Name: "medium", DisplayName: "Medium"},
}

// SeedPlatforms upserts the platform reference rows. Idempotent; called at
// every startup.
func (s *Store) SeedPlatforms(ctx context.Context) error {
	for _, p := range SupportedPlatforms {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO platforms (name, display_name) VALUES (?, ?)
			 ON CONFLICT(name) DO UPDATE SET display_name = excluded.display_name`,
			p.Name, p.DisplayName)
		if err != nil {
			return fmt.Errorf("failed to seed platform %s: %w", p.Name, err)
		}
	}
	return nil
}

// IsDuplicate reports whether the fingerprint was published to the named
// platform within the window. PostedTo always lists every platform the post
// was ever recorded on; it feeds the error message, not the decision.
//
// Fail-open: any storage error is logged and reported as "not a duplicate".
// The dedup guard is a convenience, not a correctness guarantee, and a
// storage outage must not silently block posting.
func (s *Store) IsDuplicate(ctx context.Context, contentHash, platformName string, window time.Duration) models.DuplicateCheck {
	check, err := s.duplicateCheck(ctx, contentHash, platformName, window)
	if err != nil {
		logging.Warn().Err(err).
			Str("platform", platformName).
			Msg("duplicate check failed, allowing post through")
		return models.DuplicateCheck{}
	}
	return check
}

func (s *Store) duplicateCheck(ctx context.Context, contentHash, platformName string, window time.Duration) (models.DuplicateCheck, error) {
	var postID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM posts WHERE content_hash = ?`, contentHash).Scan(&postID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DuplicateCheck{}, nil
	}
	if err != nil {
		return models.DuplicateCheck{}, fmt.Errorf("failed to look up post: %w", err)
	}

	check := models.DuplicateCheck{}

	// Every platform this post ever went to, window-independent.
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT pl.name
		 FROM post_platforms pp JOIN platforms pl ON pl.id = pp.platform_id
		 WHERE pp.post_id = ?
		 ORDER BY pl.name`, postID)
	if err != nil {
		return models.DuplicateCheck{}, fmt.Errorf("failed to list posted platforms: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return models.DuplicateCheck{}, fmt.Errorf("failed to scan platform name: %w", err)
		}
		check.PostedTo = append(check.PostedTo, name)
	}
	if err := rows.Err(); err != nil {
		return models.DuplicateCheck{}, fmt.Errorf("failed to iterate platforms: %w", err)
	}

	// The duplicate decision looks only at this platform inside the window.
	cutoff := time.Now().UTC().Add(-window)
	var lastPosted time.Time
	err = s.db.QueryRowContext(ctx,
		`SELECT pp.posted_at
		 FROM post_platforms pp JOIN platforms pl ON pl.id = pp.platform_id
		 WHERE pp.post_id = ? AND pl.name = ? AND pp.posted_at >= ?
		 ORDER BY pp.posted_at DESC LIMIT 1`,
		postID, platformName, cutoff).Scan(&lastPosted)
	if errors.Is(err, sql.ErrNoRows) {
		return check, nil
	}
	if err != nil {
		return models.DuplicateCheck{}, fmt.Errorf("failed to check recent publishes: %w", err)
	}

	check.IsDuplicate = true
	check.LastPosted = &lastPosted
	return check, nil
}

// Record persists a successful publish: upserts the post by fingerprint
// (last-write-wins on title/content/url) and inserts a new platform link.
// No-op unless the result succeeded with a URL.
//
// Fail-silent: the external publish already happened, so a storage error
// here is logged and swallowed rather than reported as a publish failure.
func (s *Store) Record(ctx context.Context, post models.SocialPost, platformName string, result *models.PostingResult) {
	if result == nil || !result.Success || result.URL == "" {
		return
	}
	if err := s.record(ctx, post, platformName, result.URL); err != nil {
		logging.Warn().Err(err).
			Str("platform", platformName).
			Msg("failed to record publish in history")
	}
}

func (s *Store) record(ctx context.Context, post models.SocialPost, platformName, postURL string) error {
	hash := fingerprint.Hash(post)

	platformID, err := s.platformID(ctx, platformName)
	if err != nil {
		return err
	}

	var postID int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO posts (content_hash, title, content, url, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(content_hash) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			url = excluded.url
		 RETURNING id`,
		hash, post.Title, post.Content, post.URL, time.Now().UTC()).Scan(&postID)
	if err != nil {
		return fmt.Errorf("failed to upsert post: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO post_platforms (post_id, platform_id, post_url, posted_at)
		 VALUES (?, ?, ?, ?)`,
		postID, platformID, postURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert platform link: %w", err)
	}
	return nil
}

// ImportPost registers an already-published post discovered on a platform.
// Unlike Record, both the post and the platform link are upserted, so
// importing the same URL twice converges on one row per (post, platform).
func (s *Store) ImportPost(ctx context.Context, post models.SocialPost, contentHash, platformName, postURL string, postedAt time.Time) error {
	platformID, err := s.platformID(ctx, platformName)
	if err != nil {
		return err
	}

	var postID int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO posts (content_hash, title, content, url, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(content_hash) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			url = excluded.url
		 RETURNING id`,
		contentHash, post.Title, post.Content, post.URL, time.Now().UTC()).Scan(&postID)
	if err != nil {
		return fmt.Errorf("failed to upsert imported post: %w", err)
	}

	if postedAt.IsZero() {
		postedAt = time.Now()
	}
	postedAt = postedAt.UTC()

	// Application-level upsert on (post_id, platform_id): the publish path
	// is allowed to accumulate multiple links per pair, so the pair is not
	// unique at the schema level.
	res, err := s.db.ExecContext(ctx,
		`UPDATE post_platforms SET post_url = ?
		 WHERE post_id = ? AND platform_id = ?`,
		postURL, postID, platformID)
	if err != nil {
		return fmt.Errorf("failed to update platform link: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO post_platforms (post_id, platform_id, post_url, posted_at)
		 VALUES (?, ?, ?, ?)`,
		postID, platformID, postURL, postedAt)
	if err != nil {
		return fmt.Errorf("failed to insert platform link: %w", err)
	}
	return nil
}

// PostByHash returns the stored post with the given fingerprint, with its
// platform links attached.
func (s *Store) PostByHash(ctx context.Context, contentHash string) (*models.Post, error) {
	post := &models.Post{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, content_hash, title, content, url, created_at
		 FROM posts WHERE content_hash = ?`, contentHash).
		Scan(&post.ID, &post.ContentHash, &post.Title, &post.Content, &post.URL, &post.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post with hash %s not found", contentHash)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}

	if err := s.attachLinks(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// History returns stored posts newest-first with their platform links,
// capped at limit. Best-effort: storage errors yield an empty slice and a
// warning, never a failure.
func (s *Store) History(ctx context.Context, limit int) []models.Post {
	posts, err := s.history(ctx, limit)
	if err != nil {
		logging.Warn().Err(err).Msg("failed to fetch posting history")
		return nil
	}
	return posts
}

func (s *Store) history(ctx context.Context, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content_hash, title, content, url, created_at
		 FROM posts ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.ContentHash, &p.Title, &p.Content, &p.URL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	for i := range posts {
		if err := s.attachLinks(ctx, &posts[i]); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

// AllPosts returns every stored post newest-first with links attached.
// Used by the batch repost flow, which must see the full history.
func (s *Store) AllPosts(ctx context.Context) ([]models.Post, error) {
	return s.history(ctx, 1<<31-1)
}

// attachLinks populates Platforms and PostURLs for one post.
func (s *Store) attachLinks(ctx context.Context, post *models.Post) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pl.name, pp.post_url, pp.posted_at
		 FROM post_platforms pp JOIN platforms pl ON pl.id = pp.platform_id
		 WHERE pp.post_id = ?
		 ORDER BY pp.posted_at`, post.ID)
	if err != nil {
		return fmt.Errorf("failed to query platform links: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var link models.PostURL
		if err := rows.Scan(&link.Platform, &link.URL, &link.PostedAt); err != nil {
			return fmt.Errorf("failed to scan platform link: %w", err)
		}
		post.PostURLs = append(post.PostURLs, link)
		if !seen[link.Platform] {
			seen[link.Platform] = true
			post.Platforms = append(post.Platforms, link.Platform)
		}
	}
	return rows.Err()
}

// ClearHistory deletes all platform links, analytics, and posts.
// Irreversible. Best-effort: partial failure is logged, not returned.
func (s *Store) ClearHistory(ctx context.Context) {
	for _, query := range []string{
		`DELETE FROM post_analytics`,
		`DELETE FROM post_platforms`,
		`DELETE FROM posts`,
	} {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			logging.Warn().Err(err).Str("query", query).Msg("failed to clear history")
		}
	}
}

// platformID resolves a platform name to its row ID.
func (s *Store) platformID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM platforms WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("platform %s not seeded", name)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve platform %s: %w", name, err)
	}
	return id, nil
}

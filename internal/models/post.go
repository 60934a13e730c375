// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

// Package models contains the shared data types passed between the
// dispatcher, the platform adapters, and the store.
package models

import "time"

// SocialPost is one logical piece of content a user wants published.
// Only Content is required; the adapters decide how the optional fields
// are composed into platform-appropriate text.
type SocialPost struct {
	Content string   `json:"content"`
	Title   string   `json:"title,omitempty"`
	URL     string   `json:"url,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// PostingResult is the uniform outcome of one publish attempt on one
// platform. Failures are data, not errors: the adapter boundary converts
// every auth, network, validation, and rate-limit problem into a result
// with Success=false and a human-readable Error.
type PostingResult struct {
	Platform string `json:"platform"`
	Success  bool   `json:"success"`
	PostID   string `json:"postId,omitempty"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// MultiPlatformResult aggregates the per-platform outcomes of a fan-out.
// Results order is not guaranteed to match submission order.
type MultiPlatformResult struct {
	Results    []PostingResult `json:"results"`
	Successful int             `json:"successful"`
	Failed     int             `json:"failed"`
}

// Engagement maps metric names (likes, reposts, replies, views, bookmarks)
// to counts. Metrics a platform does not expose are simply absent.
type Engagement map[string]int

// RecentPost is one entry discovered from an account's own timeline.
type RecentPost struct {
	URL       string     `json:"url"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	Metrics   Engagement `json:"metrics,omitempty"`
}

// Platform is the persisted reference row for one supported platform.
type Platform struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Post is the persisted record of one distinct piece of content, keyed by
// its content fingerprint. Title/Content/URL hold the latest submitted
// values (last-write-wins on re-publish of the same fingerprint).
type Post struct {
	ID          int64     `json:"id"`
	ContentHash string    `json:"contentHash"`
	Title       string    `json:"title,omitempty"`
	Content     string    `json:"content"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`

	// Platforms and PostURLs are populated on history reads.
	Platforms []string  `json:"platforms,omitempty"`
	PostURLs  []PostURL `json:"postUrls,omitempty"`
}

// PostURL records one successful publish event of a Post to a platform.
type PostURL struct {
	Platform string    `json:"platform"`
	URL      string    `json:"url"`
	PostedAt time.Time `json:"postedAt"`
}

// DuplicateCheck is the answer to "was this fingerprint recently published
// to that platform". PostedTo lists every platform the post was ever
// recorded on, regardless of the window; it feeds the error message only.
type DuplicateCheck struct {
	IsDuplicate bool
	PostedTo    []string
	LastPosted  *time.Time
}

// EngagementRecord ties cached metrics to one published post link.
type EngagementRecord struct {
	Platform  string     `json:"platform"`
	PostTitle string     `json:"postTitle,omitempty"`
	URL       string     `json:"url"`
	PostedAt  time.Time  `json:"postedAt"`
	Metrics   Engagement `json:"metrics"`
}

// AnalyticsSummary is the cached per-platform posting/engagement rollup.
type AnalyticsSummary struct {
	TotalPosts int                `json:"totalPosts"`
	ByPlatform map[string]int     `json:"byPlatform"`
	Engagement []EngagementRecord `json:"engagement"`
}

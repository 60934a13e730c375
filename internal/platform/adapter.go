// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

// Package platform provides the per-platform publishing adapters.
//
// This package implements one adapter per supported platform:
//   - Mastodon: status posting via the instance REST API
//   - Bluesky: AT Protocol session + record creation
//   - Discord: bot message delivery via the Discord REST API
//   - Reddit: OAuth password-grant submission
//   - Dev.to: article publishing via the Forem API
//   - Medium: article publishing via the integration-token API
//
// Each adapter implements the Adapter interface for consistent behavior.
// Publish never returns an error: every auth, network, validation, and
// rate-limit failure is captured at this boundary and converted into a
// PostingResult with Success=false, so the dispatcher can aggregate
// partial failure as data.
//
// Engagement reads and recent-post discovery are best-effort; platforms
// whose API does not practically support discovery return an empty slice.
//
// Credentials are never logged.
package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/hyperdrift-io/hyperpost/internal/config"
	"github.com/hyperdrift-io/hyperpost/internal/models"
)

// Adapter defines the capability set every platform implements.
type Adapter interface {
	// Name returns the stable lowercase platform identifier.
	Name() string

	// DisplayName returns the human-readable platform name.
	DisplayName() string

	// RequiredCredentials lists the credential fields that must be
	// non-empty for the adapter to operate.
	RequiredCredentials() []string

	// Validate checks the credential bundle. Returns a
	// *MissingCredentialsError naming the absent fields.
	Validate() error

	// Publish composes platform-appropriate text from the post and
	// performs the authenticated write call. Never returns an error;
	// all failures are captured in the result.
	Publish(ctx context.Context, post models.SocialPost) *models.PostingResult

	// Engagement fetches current metrics for a previously published URL.
	Engagement(ctx context.Context, postURL string) (models.Engagement, error)

	// RecentPosts lists the account's own recent posts, newest first.
	// Platforms without practical API support return an empty slice.
	RecentPosts(ctx context.Context, limit int) ([]models.RecentPost, error)
}

// MissingCredentialsError reports which credential fields a platform needs
// before it can operate.
type MissingCredentialsError struct {
	Platform string
	Missing  []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("%s: missing credentials: %s", e.Platform, strings.Join(e.Missing, ", "))
}

// NewRegistry instantiates an adapter for every platform with complete
// credentials. Platforms with absent or partial credentials are skipped,
// not errors. The registry is closed: exactly these six platforms exist.
func NewRegistry(cfg *config.Config) map[string]Adapter {
	adapters := make(map[string]Adapter)

	if cfg.Platforms.Mastodon.Enabled() {
		adapters["mastodon"] = NewMastodon(cfg.Platforms.Mastodon)
	}
	if cfg.Platforms.Bluesky.Enabled() {
		adapters["bluesky"] = NewBluesky(cfg.Platforms.Bluesky)
	}
	if cfg.Platforms.Discord.Enabled() {
		adapters["discord"] = NewDiscord(cfg.Platforms.Discord)
	}
	if cfg.Platforms.Reddit.Enabled() {
		adapters["reddit"] = NewReddit(cfg.Platforms.Reddit)
	}
	if cfg.Platforms.Devto.Enabled() {
		adapters["devto"] = NewDevto(cfg.Platforms.Devto)
	}
	if cfg.Platforms.Medium.Enabled() {
		adapters["medium"] = NewMedium(cfg.Platforms.Medium)
	}

	return adapters
}

// KnownPlatforms lists every platform name the registry can produce,
// active or not.
var KnownPlatforms = []string{"bluesky", "devto", "discord", "mastodon", "medium", "reddit"}

// Names returns the registry's platform names in sorted order.
func Names(adapters map[string]Adapter) []string {
	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newHTTPClient builds the shared per-adapter HTTP client.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// =============================================================================
// Result Helpers
// =============================================================================

func successResult(platform, postID, url string) *models.PostingResult {
	return &models.PostingResult{
		Platform: platform,
		Success:  true,
		PostID:   postID,
		URL:      url,
	}
}

func failureResult(platform, format string, args ...any) *models.PostingResult {
	return &models.PostingResult{
		Platform: platform,
		Error:    fmt.Sprintf(format, args...),
	}
}

// validationFailure converts a Validate error into a failed result.
func validationFailure(platform string, err error) *models.PostingResult {
	return failureResult(platform, "%v", err)
}

// missingFields returns the subset of required fields whose values are
// empty, preserving declaration order.
func missingFields(fields []string, values map[string]string) []string {
	var missing []string
	for _, f := range fields {
		if values[f] == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// =============================================================================
// HTTP Helpers
// =============================================================================

// readBody reads at most 64 KiB of a response body for error reporting
// and payload parsing.
func readBody(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, 64<<10))
}

// httpFailure summarizes a non-2xx response into a short error message.
// apiMessage carries the platform's own error text when one was parsed.
func httpFailure(status int, apiMessage string) string {
	var kind string
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = "authentication failed"
	case status == http.StatusNotFound:
		kind = "not found"
	case status == http.StatusTooManyRequests:
		kind = "rate limited"
	case status >= 500:
		kind = "server error"
	default:
		kind = "request rejected"
	}
	if apiMessage != "" {
		return fmt.Sprintf("%s (HTTP %d): %s", kind, status, apiMessage)
	}
	return fmt.Sprintf("%s (HTTP %d)", kind, status)
}

// =============================================================================
// Content Helpers
// =============================================================================

// truncate shortens content to maxLen with an ellipsis.
func truncate(content string, maxLen int) string {
	if maxLen <= 0 || len(content) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return content[:maxLen]
	}
	return content[:maxLen-3] + "..."
}

// fallbackTitle derives a title from content for platforms that require
// one, matching the 50-character preview convention.
func fallbackTitle(post models.SocialPost) string {
	if post.Title != "" {
		return post.Title
	}
	return truncate(post.Content, 53)
}

// stripHTML removes tags and common entities from HTML content, for
// platforms that return rich-text bodies in discovery listings.
func stripHTML(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch r {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				b.WriteRune(r)
			}
		}
	}

	text := b.String()
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", "\"")
	text = strings.ReplaceAll(text, "&#39;", "'")
	return strings.TrimSpace(text)
}

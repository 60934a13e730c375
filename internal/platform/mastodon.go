// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package platform

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/hyperdrift-io/hyperpost/internal/config"
	"github.com/hyperdrift-io/hyperpost/internal/models"
)

// Mastodon publishes statuses through a Mastodon instance's REST API.
type Mastodon struct {
	cfg     config.MastodonConfig
	client  *http.Client
	baseURL string
}

// NewMastodon creates the Mastodon adapter. The API base is derived from
// the configured instance hostname.
func NewMastodon(cfg config.MastodonConfig) *Mastodon {
	return &Mastodon{
		cfg:     cfg,
		client:  newHTTPClient(),
		baseURL: fmt.Sprintf("https://%s", cfg.Instance),
	}
}

// Name returns the platform identifier.
func (m *Mastodon) Name() string { return "mastodon" }

// DisplayName returns the human-readable platform name.
func (m *Mastodon) DisplayName() string { return "Mastodon" }

// RequiredCredentials lists the fields Validate checks.
func (m *Mastodon) RequiredCredentials() []string {
	return []string{"instance", "access_token"}
}

// Validate checks the Mastodon credential bundle.
func (m *Mastodon) Validate() error {
	missing := missingFields(m.RequiredCredentials(), map[string]string{
		"instance":     m.cfg.Instance,
		"access_token": m.cfg.AccessToken,
	})
	if len(missing) > 0 {
		return &MissingCredentialsError{Platform: m.Name(), Missing: missing}
	}
	return nil
}

type mastodonStatusRequest struct {
	Status     string `json:"status"`
	Visibility string `json:"visibility"`
}

type mastodonStatus struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Content       string `json:"content"`
	CreatedAt     string `json:"created_at"`
	FavouritesCnt int    `json:"favourites_count"`
	ReblogsCnt    int    `json:"reblogs_count"`
	RepliesCnt    int    `json:"replies_count"`
	BookmarksCnt  int    `json:"bookmarks_count"`
}

type mastodonError struct {
	Error string `json:"error"`
}

// Publish posts a public status composed from title, content, url, and
// hashtags.
func (m *Mastodon) Publish(ctx context.Context, post models.SocialPost) *models.PostingResult {
	if err := m.Validate(); err != nil {
		return validationFailure(m.Name(), err)
	}

	payload, err := json.Marshal(mastodonStatusRequest{
		Status:     m.composeStatus(post),
		Visibility: "public",
	})
	if err != nil {
		return failureResult(m.Name(), "failed to marshal status: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.baseURL+"/api/v1/statuses", bytes.NewReader(payload))
	if err != nil {
		return failureResult(m.Name(), "failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return failureResult(m.Name(), "failed to post status: %v", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return failureResult(m.Name(), "failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr mastodonError
		_ = json.Unmarshal(body, &apiErr)
		return failureResult(m.Name(), "%s", httpFailure(resp.StatusCode, apiErr.Error))
	}

	var status mastodonStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return failureResult(m.Name(), "failed to parse response: %v", err)
	}
	return successResult(m.Name(), status.ID, status.URL)
}

// composeStatus builds the status text: title, content, url, then
// hashtags, separated by blank lines.
func (m *Mastodon) composeStatus(post models.SocialPost) string {
	status := post.Content
	if post.Title != "" {
		status = post.Title + "\n\n" + post.Content
	}
	if post.URL != "" {
		status += "\n\n" + post.URL
	}
	if len(post.Tags) > 0 {
		tags := make([]string, len(post.Tags))
		for i, t := range post.Tags {
			tags[i] = "#" + t
		}
		status += "\n\n" + strings.Join(tags, " ")
	}
	return status
}

// mastodonStatusURL extracts the status ID from a canonical status URL
// of the form https://instance/@user/<id>.
var mastodonStatusURL = regexp.MustCompile(`/@[^/]+/(\d+)`)

// Engagement reads favourite/boost/reply/bookmark counts for a status.
func (m *Mastodon) Engagement(ctx context.Context, postURL string) (models.Engagement, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	match := mastodonStatusURL.FindStringSubmatch(postURL)
	if match == nil {
		return nil, fmt.Errorf("unrecognized Mastodon status URL: %s", postURL)
	}

	var status mastodonStatus
	if err := m.getJSON(ctx, "/api/v1/statuses/"+match[1], &status); err != nil {
		return nil, err
	}

	return models.Engagement{
		"likes":     status.FavouritesCnt,
		"reposts":   status.ReblogsCnt,
		"replies":   status.RepliesCnt,
		"bookmarks": status.BookmarksCnt,
	}, nil
}

type mastodonAccount struct {
	ID string `json:"id"`
}

// RecentPosts lists the authenticated account's own recent statuses.
func (m *Mastodon) RecentPosts(ctx context.Context, limit int) ([]models.RecentPost, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	var account mastodonAccount
	if err := m.getJSON(ctx, "/api/v1/accounts/verify_credentials", &account); err != nil {
		return nil, err
	}

	var statuses []mastodonStatus
	path := fmt.Sprintf("/api/v1/accounts/%s/statuses?limit=%d", account.ID, limit)
	if err := m.getJSON(ctx, path, &statuses); err != nil {
		return nil, err
	}

	posts := make([]models.RecentPost, 0, len(statuses))
	for _, st := range statuses {
		createdAt, _ := time.Parse(time.RFC3339, st.CreatedAt)
		posts = append(posts, models.RecentPost{
			URL:       st.URL,
			Content:   stripHTML(st.Content),
			CreatedAt: createdAt,
			Metrics: models.Engagement{
				"likes":     st.FavouritesCnt,
				"reposts":   st.ReblogsCnt,
				"replies":   st.RepliesCnt,
				"bookmarks": st.BookmarksCnt,
			},
		})
	}
	return posts, nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
func (m *Mastodon) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.AccessToken)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr mastodonError
		_ = json.Unmarshal(body, &apiErr)
		return fmt.Errorf("%s", httpFailure(resp.StatusCode, apiErr.Error))
	}
	return json.Unmarshal(body, out)
}

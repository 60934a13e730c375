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
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/hyperdrift-io/hyperpost/internal/config"
	"github.com/hyperdrift-io/hyperpost/internal/models"
)

// Medium publishes markdown stories through the integration-token API.
// Every operation first resolves the author ID from /v1/me.
type Medium struct {
	cfg     config.MediumConfig
	client  *http.Client
	baseURL string
}

// NewMedium creates the Medium adapter.
func NewMedium(cfg config.MediumConfig) *Medium {
	return &Medium{
		cfg:     cfg,
		client:  newHTTPClient(),
		baseURL: "https://api.medium.com",
	}
}

// Name returns the platform identifier.
func (m *Medium) Name() string { return "medium" }

// DisplayName returns the human-readable platform name.
func (m *Medium) DisplayName() string { return "Medium" }

// RequiredCredentials lists the fields Validate checks.
func (m *Medium) RequiredCredentials() []string {
	return []string{"integration_token"}
}

// Validate checks the Medium credential bundle.
func (m *Medium) Validate() error {
	missing := missingFields(m.RequiredCredentials(), map[string]string{
		"integration_token": m.cfg.IntegrationToken,
	})
	if len(missing) > 0 {
		return &MissingCredentialsError{Platform: m.Name(), Missing: missing}
	}
	return nil
}

type mediumUser struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type mediumPostRequest struct {
	Title         string   `json:"title"`
	ContentFormat string   `json:"contentFormat"`
	Content       string   `json:"content"`
	CanonicalURL  string   `json:"canonicalUrl,omitempty"`
	Tags          []string `json:"tags"`
	PublishStatus string   `json:"publishStatus"`
}

type mediumPost struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	CreatedAt  int64  `json:"createdAt"`
	ClapCount  int    `json:"clapCount"`
	VoterCount int    `json:"voterCount"`
	Virtuals   struct {
		Subtitle string `json:"subtitle"`
	} `json:"virtuals"`
}

type mediumError struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Publish resolves the author ID and creates a public markdown story.
func (m *Medium) Publish(ctx context.Context, post models.SocialPost) *models.PostingResult {
	if err := m.Validate(); err != nil {
		return validationFailure(m.Name(), err)
	}

	var user mediumUser
	if err := m.getJSON(ctx, "/v1/me", nil, &user); err != nil {
		return failureResult(m.Name(), "failed to resolve author: %v", err)
	}

	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}
	payload, err := json.Marshal(mediumPostRequest{
		Title:         fallbackTitle(post),
		ContentFormat: "markdown",
		Content:       post.Content,
		CanonicalURL:  post.URL,
		Tags:          tags,
		PublishStatus: "public",
	})
	if err != nil {
		return failureResult(m.Name(), "failed to marshal story: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v1/users/%s/posts", m.baseURL, user.Data.ID), bytes.NewReader(payload))
	if err != nil {
		return failureResult(m.Name(), "failed to create request: %v", err)
	}
	m.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return failureResult(m.Name(), "failed to publish story: %v", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return failureResult(m.Name(), "failed to read response: %v", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return failureResult(m.Name(), "%s", httpFailure(resp.StatusCode, firstMediumError(body)))
	}

	var created struct {
		Data mediumPost `json:"data"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return failureResult(m.Name(), "failed to parse response: %v", err)
	}
	return successResult(m.Name(), created.Data.ID, created.Data.URL)
}

// mediumStoryURL extracts the final path segment of a story URL.
var mediumStoryURL = regexp.MustCompile(`/([^/?#]+)(?:[?#]|$)`)

// mediumStoryID extracts the API post ID from a story URL. Story URLs end
// in "<slug>-<hexid>"; the API wants only the hex id after the last hyphen.
func mediumStoryID(postURL string) string {
	matches := mediumStoryURL.FindAllStringSubmatch(postURL, -1)
	if len(matches) == 0 {
		return ""
	}
	segment := matches[len(matches)-1][1]
	if i := strings.LastIndex(segment, "-"); i >= 0 {
		segment = segment[i+1:]
	}
	return segment
}

// Engagement reads clap/voter counts; Medium exposes no view or comment
// counts through this API.
func (m *Medium) Engagement(ctx context.Context, postURL string) (models.Engagement, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	id := mediumStoryID(postURL)
	if id == "" {
		return nil, fmt.Errorf("unrecognized Medium story URL: %s", postURL)
	}

	var story struct {
		Data mediumPost `json:"data"`
	}
	if err := m.getJSON(ctx, "/v1/posts/"+id, nil, &story); err != nil {
		return nil, err
	}

	return models.Engagement{
		"likes":     story.Data.ClapCount,
		"bookmarks": story.Data.VoterCount,
	}, nil
}

// RecentPosts lists the author's stories, newest first.
func (m *Medium) RecentPosts(ctx context.Context, limit int) ([]models.RecentPost, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if limit > 50 {
		limit = 50 // API page-size ceiling
	}

	var user mediumUser
	if err := m.getJSON(ctx, "/v1/me", nil, &user); err != nil {
		return nil, fmt.Errorf("failed to resolve author: %w", err)
	}

	params := url.Values{"limit": {fmt.Sprint(limit)}}
	var listing struct {
		Data []mediumPost `json:"data"`
	}
	if err := m.getJSON(ctx, "/v1/users/"+user.Data.ID+"/posts", params, &listing); err != nil {
		return nil, err
	}

	posts := make([]models.RecentPost, 0, len(listing.Data))
	for _, p := range listing.Data {
		content := p.Title
		if p.Virtuals.Subtitle != "" {
			content += "\n\n" + p.Virtuals.Subtitle
		}
		posts = append(posts, models.RecentPost{
			URL:       p.URL,
			Content:   content,
			CreatedAt: time.UnixMilli(p.CreatedAt).UTC(),
			Metrics: models.Engagement{
				"likes":     p.ClapCount,
				"bookmarks": p.VoterCount,
			},
		})
	}
	return posts, nil
}

func (m *Medium) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+m.cfg.IntegrationToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Charset", "utf-8")
}

// getJSON performs an authenticated GET and decodes the JSON response.
func (m *Medium) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := m.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	m.setHeaders(req)

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
		return fmt.Errorf("%s", httpFailure(resp.StatusCode, firstMediumError(body)))
	}
	return json.Unmarshal(body, out)
}

// firstMediumError extracts the first API error message, if any.
func firstMediumError(body []byte) string {
	var apiErr mediumError
	if err := json.Unmarshal(body, &apiErr); err == nil && len(apiErr.Errors) > 0 {
		return apiErr.Errors[0].Message
	}
	return ""
}

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

// Devto publishes markdown articles through the Forem API.
type Devto struct {
	cfg     config.DevtoConfig
	client  *http.Client
	baseURL string
}

// NewDevto creates the Dev.to adapter.
func NewDevto(cfg config.DevtoConfig) *Devto {
	return &Devto{
		cfg:     cfg,
		client:  newHTTPClient(),
		baseURL: "https://dev.to",
	}
}

// Name returns the platform identifier.
func (d *Devto) Name() string { return "devto" }

// DisplayName returns the human-readable platform name.
func (d *Devto) DisplayName() string { return "Dev.to" }

// RequiredCredentials lists the fields Validate checks.
func (d *Devto) RequiredCredentials() []string {
	return []string{"api_key"}
}

// Validate checks the Dev.to credential bundle.
func (d *Devto) Validate() error {
	missing := missingFields(d.RequiredCredentials(), map[string]string{
		"api_key": d.cfg.APIKey,
	})
	if len(missing) > 0 {
		return &MissingCredentialsError{Platform: d.Name(), Missing: missing}
	}
	return nil
}

type devtoArticleRequest struct {
	Article devtoArticleBody `json:"article"`
}

type devtoArticleBody struct {
	Title        string   `json:"title"`
	BodyMarkdown string   `json:"body_markdown"`
	Published    bool     `json:"published"`
	Tags         []string `json:"tags"`
	CanonicalURL string   `json:"canonical_url,omitempty"`
}

type devtoArticle struct {
	ID             int    `json:"id"`
	URL            string `json:"url"`
	Slug           string `json:"slug"`
	BodyMarkdown   string `json:"body_markdown"`
	Description    string `json:"description"`
	Title          string `json:"title"`
	CreatedAt      string `json:"created_at"`
	PublishedAt    string `json:"published_at"`
	ReactionsCount int    `json:"positive_reactions_count"`
	CommentsCount  int    `json:"comments_count"`
	PageViewsCount int    `json:"page_views_count"`
}

type devtoError struct {
	Error string `json:"error"`
}

// Publish creates a published article; the post URL becomes the
// canonical URL and a missing title falls back to a content preview.
func (d *Devto) Publish(ctx context.Context, post models.SocialPost) *models.PostingResult {
	if err := d.Validate(); err != nil {
		return validationFailure(d.Name(), err)
	}

	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}
	payload, err := json.Marshal(devtoArticleRequest{Article: devtoArticleBody{
		Title:        fallbackTitle(post),
		BodyMarkdown: post.Content,
		Published:    true,
		Tags:         tags,
		CanonicalURL: post.URL,
	}})
	if err != nil {
		return failureResult(d.Name(), "failed to marshal article: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.baseURL+"/api/articles", bytes.NewReader(payload))
	if err != nil {
		return failureResult(d.Name(), "failed to create request: %v", err)
	}
	req.Header.Set("Api-Key", d.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return failureResult(d.Name(), "failed to publish article: %v", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return failureResult(d.Name(), "failed to read response: %v", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var apiErr devtoError
		_ = json.Unmarshal(body, &apiErr)
		return failureResult(d.Name(), "%s", httpFailure(resp.StatusCode, apiErr.Error))
	}

	var article devtoArticle
	if err := json.Unmarshal(body, &article); err != nil {
		return failureResult(d.Name(), "failed to parse response: %v", err)
	}
	return successResult(d.Name(), fmt.Sprint(article.ID), article.URL)
}

// devtoArticleURL matches /username/slug with an optional trailing
// -<id> suffix in the slug.
var devtoArticleURL = regexp.MustCompile(`/([^/]+)/([^/]+?)(?:-([a-z0-9]+))?$`)

// Engagement reads reaction/comment/view counts for an article URL.
func (d *Devto) Engagement(ctx context.Context, postURL string) (models.Engagement, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	match := devtoArticleURL.FindStringSubmatch(postURL)
	if match == nil {
		return nil, fmt.Errorf("unrecognized Dev.to article URL: %s", postURL)
	}
	slug, id := match[2], match[3]

	var article *devtoArticle
	if id != "" {
		var a devtoArticle
		if err := d.getJSON(ctx, "/api/articles/"+id, nil, &a); err != nil {
			return nil, err
		}
		article = &a
	} else {
		// No ID suffix: scan own articles for the slug.
		var mine []devtoArticle
		if err := d.getJSON(ctx, "/api/articles/me", nil, &mine); err != nil {
			return nil, err
		}
		for i := range mine {
			if mine[i].Slug == slug || strings.HasPrefix(mine[i].Slug, slug) {
				article = &mine[i]
				break
			}
		}
	}
	if article == nil {
		return nil, fmt.Errorf("article not found for URL %s", postURL)
	}

	return models.Engagement{
		"likes":   article.ReactionsCount,
		"replies": article.CommentsCount,
		"views":   article.PageViewsCount,
	}, nil
}

// RecentPosts lists the account's published articles, newest first.
func (d *Devto) RecentPosts(ctx context.Context, limit int) ([]models.RecentPost, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if limit > 100 {
		limit = 100 // API page-size ceiling
	}

	params := url.Values{"per_page": {fmt.Sprint(limit)}}
	var articles []devtoArticle
	if err := d.getJSON(ctx, "/api/articles/me/published", params, &articles); err != nil {
		return nil, err
	}

	posts := make([]models.RecentPost, 0, len(articles))
	for _, a := range articles {
		content := a.BodyMarkdown
		if content == "" {
			content = a.Description
		}
		if content == "" {
			content = a.Title
		}
		createdAt, _ := time.Parse(time.RFC3339, a.CreatedAt)
		posts = append(posts, models.RecentPost{
			URL:       a.URL,
			Content:   content,
			CreatedAt: createdAt,
			Metrics: models.Engagement{
				"likes":   a.ReactionsCount,
				"replies": a.CommentsCount,
				"views":   a.PageViewsCount,
			},
		})
	}
	return posts, nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
func (d *Devto) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := d.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Api-Key", d.cfg.APIKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr devtoError
		_ = json.Unmarshal(body, &apiErr)
		return fmt.Errorf("%s", httpFailure(resp.StatusCode, apiErr.Error))
	}
	return json.Unmarshal(body, out)
}

// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package platform

import (
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

const redditUserAgent = "HyperPost:v1.0.0 (by /u/hyperdrift)"

// Reddit submits posts via the OAuth script-app password grant. Tokens
// expire server-side; a publish that fails with 401 re-authenticates
// once and retries once before giving up.
type Reddit struct {
	cfg     config.RedditConfig
	client  *http.Client
	authURL string
	apiURL  string

	// accessToken is the cached bearer token from the last authenticate
	// call; calls to one adapter instance are serialized by the
	// dispatcher.
	accessToken string
}

// NewReddit creates the Reddit adapter.
func NewReddit(cfg config.RedditConfig) *Reddit {
	return &Reddit{
		cfg:     cfg,
		client:  newHTTPClient(),
		authURL: "https://www.reddit.com",
		apiURL:  "https://oauth.reddit.com",
	}
}

// Name returns the platform identifier.
func (r *Reddit) Name() string { return "reddit" }

// DisplayName returns the human-readable platform name.
func (r *Reddit) DisplayName() string { return "Reddit" }

// RequiredCredentials lists the fields Validate checks. Subreddit is
// optional and defaults in config.
func (r *Reddit) RequiredCredentials() []string {
	return []string{"client_id", "client_secret", "username", "password"}
}

// Validate checks the Reddit credential bundle.
func (r *Reddit) Validate() error {
	missing := missingFields(r.RequiredCredentials(), map[string]string{
		"client_id":     r.cfg.ClientID,
		"client_secret": r.cfg.ClientSecret,
		"username":      r.cfg.Username,
		"password":      r.cfg.Password,
	})
	if len(missing) > 0 {
		return &MissingCredentialsError{Platform: r.Name(), Missing: missing}
	}
	return nil
}

// Publish submits a self post, or a link post when a URL is set. On a
// 401 it refreshes the token and retries exactly once.
func (r *Reddit) Publish(ctx context.Context, post models.SocialPost) *models.PostingResult {
	if err := r.Validate(); err != nil {
		return validationFailure(r.Name(), err)
	}

	if r.accessToken == "" {
		if err := r.authenticate(ctx); err != nil {
			return failureResult(r.Name(), "authentication failed: %v", err)
		}
	}

	result, status := r.submit(ctx, post)
	if status == http.StatusUnauthorized {
		r.accessToken = ""
		if err := r.authenticate(ctx); err != nil {
			return failureResult(r.Name(), "authentication failed: %v", err)
		}
		result, _ = r.submit(ctx, post)
	}
	return result
}

type redditSubmitResponse struct {
	JSON struct {
		Errors [][]any `json:"errors"`
		Data   struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"data"`
	} `json:"json"`
}

// submit performs one /api/submit call and returns the result plus the
// HTTP status for the caller's retry decision.
func (r *Reddit) submit(ctx context.Context, post models.SocialPost) (*models.PostingResult, int) {
	title := post.Title
	if title == "" {
		title = "New Post"
	}

	form := url.Values{
		"api_type": {"json"},
		"sr":       {r.cfg.Subreddit},
		"title":    {title},
	}
	if post.URL != "" {
		form.Set("kind", "link")
		form.Set("url", post.URL)
		if post.Content != "" {
			form.Set("text", post.Content)
		}
	} else {
		form.Set("kind", "self")
		form.Set("text", post.Content)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.apiURL+"/api/submit", strings.NewReader(form.Encode()))
	if err != nil {
		return failureResult(r.Name(), "failed to create request: %v", err), 0
	}
	req.Header.Set("Authorization", "Bearer "+r.accessToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", redditUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return failureResult(r.Name(), "failed to submit post: %v", err), 0
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return failureResult(r.Name(), "failed to read response: %v", err), resp.StatusCode
	}
	if resp.StatusCode != http.StatusOK {
		return failureResult(r.Name(), "%s", httpFailure(resp.StatusCode, "")), resp.StatusCode
	}

	var submitted redditSubmitResponse
	if err := json.Unmarshal(body, &submitted); err != nil {
		return failureResult(r.Name(), "failed to parse response: %v", err), resp.StatusCode
	}
	if len(submitted.JSON.Errors) > 0 {
		return failureResult(r.Name(), "submission rejected: %s", formatRedditErrors(submitted.JSON.Errors)), resp.StatusCode
	}

	postID := submitted.JSON.Data.ID
	postURL := submitted.JSON.Data.URL
	if postURL == "" {
		postURL = fmt.Sprintf("https://reddit.com/r/%s/comments/%s", r.cfg.Subreddit, postID)
	}
	return successResult(r.Name(), postID, postURL), resp.StatusCode
}

// formatRedditErrors flattens the API's nested error tuples into one line.
func formatRedditErrors(errs [][]any) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		fields := make([]string, 0, len(e))
		for _, f := range e {
			fields = append(fields, fmt.Sprint(f))
		}
		parts = append(parts, strings.Join(fields, " "))
	}
	return strings.Join(parts, "; ")
}

type redditTokenResponse struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error"`
}

// authenticate obtains a bearer token with the password grant.
func (r *Reddit) authenticate(ctx context.Context) error {
	form := url.Values{
		"grant_type": {"password"},
		"username":   {r.cfg.Username},
		"password":   {r.cfg.Password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.authURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(r.cfg.ClientID, r.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", redditUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s", httpFailure(resp.StatusCode, ""))
	}

	var token redditTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return fmt.Errorf("failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		if token.Error != "" {
			return fmt.Errorf("no access token granted: %s", token.Error)
		}
		return fmt.Errorf("no access token granted")
	}
	r.accessToken = token.AccessToken
	return nil
}

type redditThing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Permalink     string  `json:"permalink"`
	Title         string  `json:"title"`
	Selftext      string  `json:"selftext"`
	CreatedUTC    float64 `json:"created_utc"`
	Score         int     `json:"score"`
	NumComments   int     `json:"num_comments"`
	NumCrossposts int     `json:"num_crossposts"`
	ViewCount     int     `json:"view_count"`
}

// redditCommentsURL extracts the post ID from a comments permalink.
var redditCommentsURL = regexp.MustCompile(`/r/[^/]+/comments/([^/]+)`)

// Engagement reads score/comment/crosspost counts for a post URL.
func (r *Reddit) Engagement(ctx context.Context, postURL string) (models.Engagement, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	match := redditCommentsURL.FindStringSubmatch(postURL)
	if match == nil {
		return nil, fmt.Errorf("unrecognized Reddit post URL: %s", postURL)
	}
	if r.accessToken == "" {
		if err := r.authenticate(ctx); err != nil {
			return nil, fmt.Errorf("authentication failed: %w", err)
		}
	}

	var listing redditThing
	if err := r.getJSON(ctx, "/by_id/t3_"+match[1], nil, &listing); err != nil {
		return nil, err
	}
	if len(listing.Data.Children) == 0 {
		return nil, fmt.Errorf("post %s not found", match[1])
	}

	p := listing.Data.Children[0].Data
	return models.Engagement{
		"likes":   p.Score,
		"replies": p.NumComments,
		"reposts": p.NumCrossposts,
		"views":   p.ViewCount,
	}, nil
}

// RecentPosts lists the account's own submissions, newest first.
func (r *Reddit) RecentPosts(ctx context.Context, limit int) ([]models.RecentPost, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.accessToken == "" {
		if err := r.authenticate(ctx); err != nil {
			return nil, fmt.Errorf("authentication failed: %w", err)
		}
	}

	params := url.Values{
		"limit": {fmt.Sprint(limit)},
		"sort":  {"new"},
	}
	var listing redditThing
	if err := r.getJSON(ctx, "/user/"+r.cfg.Username+"/submitted", params, &listing); err != nil {
		return nil, err
	}

	posts := make([]models.RecentPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		p := child.Data
		content := p.Selftext
		if content == "" {
			content = p.Title
		}
		posts = append(posts, models.RecentPost{
			URL:       "https://www.reddit.com" + p.Permalink,
			Content:   content,
			CreatedAt: time.Unix(int64(p.CreatedUTC), 0).UTC(),
			Metrics: models.Engagement{
				"likes":   p.Score,
				"replies": p.NumComments,
			},
		})
	}
	return posts, nil
}

// getJSON performs an authenticated GET against the OAuth API host.
func (r *Reddit) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := r.apiURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.accessToken)
	req.Header.Set("User-Agent", redditUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s", httpFailure(resp.StatusCode, ""))
	}
	return json.Unmarshal(body, out)
}

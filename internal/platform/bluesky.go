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

// Bluesky publishes posts through the AT Protocol XRPC API at
// bsky.social. Each operation authenticates with an app password to
// obtain a fresh session token.
type Bluesky struct {
	cfg     config.BlueskyConfig
	client  *http.Client
	baseURL string

	// session state from the last createSession call; calls to one
	// adapter instance are serialized by the dispatcher.
	accessJWT string
	did       string
}

// NewBluesky creates the Bluesky adapter.
func NewBluesky(cfg config.BlueskyConfig) *Bluesky {
	return &Bluesky{
		cfg:     cfg,
		client:  newHTTPClient(),
		baseURL: "https://bsky.social",
	}
}

// Name returns the platform identifier.
func (b *Bluesky) Name() string { return "bluesky" }

// DisplayName returns the human-readable platform name.
func (b *Bluesky) DisplayName() string { return "Bluesky" }

// RequiredCredentials lists the fields Validate checks.
func (b *Bluesky) RequiredCredentials() []string {
	return []string{"identifier", "password"}
}

// Validate checks the Bluesky credential bundle.
func (b *Bluesky) Validate() error {
	missing := missingFields(b.RequiredCredentials(), map[string]string{
		"identifier": b.cfg.Identifier,
		"password":   b.cfg.Password,
	})
	if len(missing) > 0 {
		return &MissingCredentialsError{Platform: b.Name(), Missing: missing}
	}
	return nil
}

type blueskySession struct {
	AccessJWT string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

type blueskyEmbedExternal struct {
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type blueskyEmbed struct {
	Type     string               `json:"$type"`
	External blueskyEmbedExternal `json:"external"`
}

type blueskyPostRecord struct {
	Type      string        `json:"$type"`
	Text      string        `json:"text"`
	CreatedAt string        `json:"createdAt"`
	Embed     *blueskyEmbed `json:"embed,omitempty"`
}

type blueskyCreateRecordRequest struct {
	Repo       string            `json:"repo"`
	Collection string            `json:"collection"`
	Record     blueskyPostRecord `json:"record"`
}

type blueskyCreateRecordResponse struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type blueskyError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Publish logs in and creates an app.bsky.feed.post record. A configured
// URL becomes an external-link embed rather than trailing text.
func (b *Bluesky) Publish(ctx context.Context, post models.SocialPost) *models.PostingResult {
	if err := b.Validate(); err != nil {
		return validationFailure(b.Name(), err)
	}
	if err := b.createSession(ctx); err != nil {
		return failureResult(b.Name(), "login failed: %v", err)
	}

	text := post.Content
	if post.Title != "" {
		text = post.Title + "\n\n" + post.Content
	}

	record := blueskyPostRecord{
		Type:      "app.bsky.feed.post",
		Text:      truncate(text, 300),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if post.URL != "" {
		title := post.Title
		if title == "" {
			title = "Link"
		}
		record.Embed = &blueskyEmbed{
			Type: "app.bsky.embed.external",
			External: blueskyEmbedExternal{
				URI:         post.URL,
				Title:       title,
				Description: truncate(post.Content, 200),
			},
		}
	}

	var created blueskyCreateRecordResponse
	err := b.xrpc(ctx, "com.atproto.repo.createRecord", blueskyCreateRecordRequest{
		Repo:       b.did,
		Collection: "app.bsky.feed.post",
		Record:     record,
	}, &created)
	if err != nil {
		return failureResult(b.Name(), "failed to create post: %v", err)
	}

	// The record URI ends in the rkey, which keys the public web URL.
	rkey := created.URI[strings.LastIndex(created.URI, "/")+1:]
	webURL := fmt.Sprintf("https://bsky.app/profile/%s/post/%s", b.cfg.Identifier, rkey)
	return successResult(b.Name(), created.URI, webURL)
}

type blueskyPostView struct {
	URI    string `json:"uri"`
	Author struct {
		Handle string `json:"handle"`
	} `json:"author"`
	Record struct {
		Text      string `json:"text"`
		CreatedAt string `json:"createdAt"`
	} `json:"record"`
	LikeCount   int `json:"likeCount"`
	RepostCount int `json:"repostCount"`
	ReplyCount  int `json:"replyCount"`
	QuoteCount  int `json:"quoteCount"`
}

// blueskyPostURL extracts handle and rkey from a bsky.app post URL.
var blueskyPostURL = regexp.MustCompile(`/profile/([^/]+)/post/([^/]+)`)

// Engagement reads like/repost/reply counts for a bsky.app post URL.
func (b *Bluesky) Engagement(ctx context.Context, postURL string) (models.Engagement, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	match := blueskyPostURL.FindStringSubmatch(postURL)
	if match == nil {
		return nil, fmt.Errorf("unrecognized Bluesky post URL: %s", postURL)
	}
	if err := b.createSession(ctx); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	atURI := fmt.Sprintf("at://%s/app.bsky.feed.post/%s", match[1], match[2])
	var thread struct {
		Thread struct {
			Post blueskyPostView `json:"post"`
		} `json:"thread"`
	}
	params := url.Values{"uri": {atURI}}
	if err := b.xrpcGet(ctx, "app.bsky.feed.getPostThread", params, &thread); err != nil {
		return nil, err
	}

	p := thread.Thread.Post
	return models.Engagement{
		"likes":   p.LikeCount,
		"reposts": p.RepostCount,
		"replies": p.ReplyCount,
	}, nil
}

// RecentPosts lists the account's own feed, newest first.
func (b *Bluesky) RecentPosts(ctx context.Context, limit int) ([]models.RecentPost, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := b.createSession(ctx); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	var feed struct {
		Feed []struct {
			Post blueskyPostView `json:"post"`
		} `json:"feed"`
	}
	params := url.Values{
		"actor": {b.cfg.Identifier},
		"limit": {fmt.Sprint(limit)},
	}
	if err := b.xrpcGet(ctx, "app.bsky.feed.getAuthorFeed", params, &feed); err != nil {
		return nil, err
	}

	posts := make([]models.RecentPost, 0, len(feed.Feed))
	for _, item := range feed.Feed {
		p := item.Post
		rkey := p.URI[strings.LastIndex(p.URI, "/")+1:]
		createdAt, _ := time.Parse(time.RFC3339, p.Record.CreatedAt)
		posts = append(posts, models.RecentPost{
			URL:       fmt.Sprintf("https://bsky.app/profile/%s/post/%s", p.Author.Handle, rkey),
			Content:   p.Record.Text,
			CreatedAt: createdAt,
			Metrics: models.Engagement{
				"likes":   p.LikeCount,
				"reposts": p.RepostCount,
				"replies": p.ReplyCount,
			},
		})
	}
	return posts, nil
}

// createSession authenticates with the identifier and app password and
// stores the session token for subsequent XRPC calls.
func (b *Bluesky) createSession(ctx context.Context) error {
	var session blueskySession
	err := b.xrpc(ctx, "com.atproto.server.createSession", map[string]string{
		"identifier": b.cfg.Identifier,
		"password":   b.cfg.Password,
	}, &session)
	if err != nil {
		return err
	}
	b.accessJWT = session.AccessJWT
	b.did = session.DID
	return nil
}

// xrpc performs an XRPC procedure call (POST with JSON body).
func (b *Bluesky) xrpc(ctx context.Context, method string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.baseURL+"/xrpc/"+method, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.accessJWT != "" {
		req.Header.Set("Authorization", "Bearer "+b.accessJWT)
	}
	return b.do(req, out)
}

// xrpcGet performs an XRPC query call (GET with query parameters).
func (b *Bluesky) xrpcGet(ctx context.Context, method string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		b.baseURL+"/xrpc/"+method+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.accessJWT)
	return b.do(req, out)
}

func (b *Bluesky) do(req *http.Request, out any) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr blueskyError
		_ = json.Unmarshal(body, &apiErr)
		return fmt.Errorf("%s", httpFailure(resp.StatusCode, apiErr.Message))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

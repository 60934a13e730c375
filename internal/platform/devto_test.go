// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/hyperdrift-io/hyperpost/internal/config"
	"github.com/hyperdrift-io/hyperpost/internal/models"
)

func newTestDevto(serverURL string) *Devto {
	d := NewDevto(config.DevtoConfig{APIKey: "key"})
	d.baseURL = serverURL
	return d
}

func TestDevtoPublish(t *testing.T) {
	var gotArticle devtoArticleRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/articles" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if key := r.Header.Get("Api-Key"); key != "key" {
			t.Errorf("Api-Key = %q", key)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotArticle); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(devtoArticle{ID: 42, URL: "https://dev.to/u/launch-day-42"})
	}))
	defer server.Close()

	result := newTestDevto(server.URL).Publish(context.Background(), models.SocialPost{
		Title:   "Launch Day",
		Content: "we shipped",
		URL:     "https://example.com/launch",
		Tags:    []string{"go"},
	})

	if !result.Success {
		t.Fatalf("Publish failed: %s", result.Error)
	}
	if result.PostID != "42" || result.URL != "https://dev.to/u/launch-day-42" {
		t.Errorf("result = %+v", result)
	}
	if !gotArticle.Article.Published || gotArticle.Article.CanonicalURL != "https://example.com/launch" {
		t.Errorf("article = %+v", gotArticle.Article)
	}
}

func TestDevtoPublishDerivesTitle(t *testing.T) {
	var gotArticle devtoArticleRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotArticle)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(devtoArticle{ID: 1, URL: "https://dev.to/u/x"})
	}))
	defer server.Close()

	long := strings.Repeat("word ", 30)
	newTestDevto(server.URL).Publish(context.Background(), models.SocialPost{Content: long})

	if gotArticle.Article.Title == "" {
		t.Fatal("no title derived from content")
	}
	if !strings.HasSuffix(gotArticle.Article.Title, "...") {
		t.Errorf("derived title %q not truncated", gotArticle.Article.Title)
	}
}

func TestDevtoPublishAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(devtoError{Error: "Body markdown has already been taken"})
	}))
	defer server.Close()

	result := newTestDevto(server.URL).Publish(context.Background(), models.SocialPost{Content: "x"})
	if result.Success {
		t.Fatal("Publish succeeded against 422")
	}
	if !strings.Contains(result.Error, "already been taken") {
		t.Errorf("error = %q", result.Error)
	}
}

func TestDevtoEngagementByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/articles/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(devtoArticle{
			ID:             42,
			ReactionsCount: 10,
			CommentsCount:  2,
			PageViewsCount: 300,
		})
	}))
	defer server.Close()

	metrics, err := newTestDevto(server.URL).Engagement(context.Background(), "https://dev.to/u/launch-day-42")
	if err != nil {
		t.Fatalf("Engagement() error = %v", err)
	}
	if metrics["likes"] != 10 || metrics["replies"] != 2 || metrics["views"] != 300 {
		t.Errorf("metrics = %v", metrics)
	}
}

func TestDevtoRecentPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/articles/me/published" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]devtoArticle{
			{URL: "https://dev.to/u/a", BodyMarkdown: "first", CreatedAt: "2026-08-01T10:00:00Z", ReactionsCount: 1},
			{URL: "https://dev.to/u/b", Description: "second", CreatedAt: "2026-07-01T10:00:00Z"},
		})
	}))
	defer server.Close()

	posts, err := newTestDevto(server.URL).RecentPosts(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentPosts() error = %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("RecentPosts() returned %d posts", len(posts))
	}
	if posts[0].Content != "first" || posts[1].Content != "second" {
		t.Errorf("posts = %+v", posts)
	}
	if posts[0].Metrics["likes"] != 1 {
		t.Errorf("metrics = %v", posts[0].Metrics)
	}
}

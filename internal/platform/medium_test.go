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

func newTestMedium(serverURL string) *Medium {
	m := NewMedium(config.MediumConfig{IntegrationToken: "tok"})
	m.baseURL = serverURL
	return m
}

func TestMediumPublish(t *testing.T) {
	var gotStory mediumPostRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/me":
			w.Write([]byte(`{"data":{"id":"author-1"}}`))
		case "/v1/users/author-1/posts":
			if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
				t.Errorf("Authorization = %q", auth)
			}
			if err := json.NewDecoder(r.Body).Decode(&gotStory); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"data":{"id":"p1","url":"https://medium.com/@u/launch-p1"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	result := newTestMedium(server.URL).Publish(context.Background(), models.SocialPost{
		Title:   "Launch",
		Content: "the story",
		URL:     "https://example.com/launch",
	})

	if !result.Success {
		t.Fatalf("Publish failed: %s", result.Error)
	}
	if result.PostID != "p1" || result.URL != "https://medium.com/@u/launch-p1" {
		t.Errorf("result = %+v", result)
	}
	if gotStory.ContentFormat != "markdown" || gotStory.PublishStatus != "public" {
		t.Errorf("story = %+v", gotStory)
	}
	if gotStory.CanonicalURL != "https://example.com/launch" {
		t.Errorf("canonical URL = %s", gotStory.CanonicalURL)
	}
}

func TestMediumPublishAuthorLookupFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"message":"Token was invalid"}]}`))
	}))
	defer server.Close()

	result := newTestMedium(server.URL).Publish(context.Background(), models.SocialPost{Content: "x"})
	if result.Success {
		t.Fatal("Publish succeeded against 401")
	}
	if !strings.Contains(result.Error, "Token was invalid") {
		t.Errorf("error = %q", result.Error)
	}
}

func TestMediumEngagement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/posts/de1f4a0ab61e" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":{"id":"de1f4a0ab61e","clapCount":12,"voterCount":4}}`))
	}))
	defer server.Close()

	metrics, err := newTestMedium(server.URL).Engagement(context.Background(),
		"https://medium.com/@u/launch-day-de1f4a0ab61e")
	if err != nil {
		t.Fatalf("Engagement() error = %v", err)
	}
	if metrics["likes"] != 12 || metrics["bookmarks"] != 4 {
		t.Errorf("metrics = %v", metrics)
	}
}

func TestMediumStoryID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://medium.com/@u/launch-day-de1f4a0ab61e", "de1f4a0ab61e"},
		{"https://medium.com/@u/launch-day-de1f4a0ab61e?source=rss", "de1f4a0ab61e"},
		{"https://medium.com/@u/de1f4a0ab61e", "de1f4a0ab61e"},
		{"no-slash-at-all", ""},
	}
	for _, tt := range tests {
		if got := mediumStoryID(tt.url); got != tt.want {
			t.Errorf("mediumStoryID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

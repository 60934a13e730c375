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

func newTestBluesky(serverURL string) *Bluesky {
	b := NewBluesky(config.BlueskyConfig{Identifier: "user.bsky.social", Password: "app-pw"})
	b.baseURL = serverURL
	return b
}

func TestBlueskyPublish(t *testing.T) {
	var createReq blueskyCreateRecordRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/xrpc/com.atproto.server.createSession":
			json.NewEncoder(w).Encode(blueskySession{
				AccessJWT: "jwt",
				DID:       "did:plc:abc",
				Handle:    "user.bsky.social",
			})
		case "/xrpc/com.atproto.repo.createRecord":
			if auth := r.Header.Get("Authorization"); auth != "Bearer jwt" {
				t.Errorf("Authorization = %q", auth)
			}
			if err := json.NewDecoder(r.Body).Decode(&createReq); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			json.NewEncoder(w).Encode(blueskyCreateRecordResponse{
				URI: "at://did:plc:abc/app.bsky.feed.post/3k44",
				CID: "bafy",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	result := newTestBluesky(server.URL).Publish(context.Background(), models.SocialPost{
		Title:   "Launch",
		Content: "it ships today",
		URL:     "https://example.com/launch",
	})

	if !result.Success {
		t.Fatalf("Publish failed: %s", result.Error)
	}
	if result.URL != "https://bsky.app/profile/user.bsky.social/post/3k44" {
		t.Errorf("web URL = %s", result.URL)
	}
	if createReq.Repo != "did:plc:abc" || createReq.Collection != "app.bsky.feed.post" {
		t.Errorf("createRecord request = %+v", createReq)
	}
	if createReq.Record.Text != "Launch\n\nit ships today" {
		t.Errorf("record text = %q", createReq.Record.Text)
	}
	if createReq.Record.Embed == nil || createReq.Record.Embed.External.URI != "https://example.com/launch" {
		t.Errorf("embed = %+v", createReq.Record.Embed)
	}
}

func TestBlueskyPublishLoginFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(blueskyError{Error: "AuthenticationRequired", Message: "Invalid identifier or password"})
	}))
	defer server.Close()

	result := newTestBluesky(server.URL).Publish(context.Background(), models.SocialPost{Content: "x"})
	if result.Success {
		t.Fatal("Publish succeeded against failed login")
	}
	if !strings.Contains(result.Error, "login failed") {
		t.Errorf("error = %q", result.Error)
	}
}

func TestBlueskyEngagement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/xrpc/com.atproto.server.createSession":
			json.NewEncoder(w).Encode(blueskySession{AccessJWT: "jwt", DID: "did:plc:abc"})
		case "/xrpc/app.bsky.feed.getPostThread":
			if uri := r.URL.Query().Get("uri"); uri != "at://user.bsky.social/app.bsky.feed.post/3k44" {
				t.Errorf("uri = %q", uri)
			}
			w.Write([]byte(`{"thread":{"post":{"likeCount":9,"repostCount":2,"replyCount":1}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	metrics, err := newTestBluesky(server.URL).Engagement(context.Background(),
		"https://bsky.app/profile/user.bsky.social/post/3k44")
	if err != nil {
		t.Fatalf("Engagement() error = %v", err)
	}
	if metrics["likes"] != 9 || metrics["reposts"] != 2 || metrics["replies"] != 1 {
		t.Errorf("metrics = %v", metrics)
	}
}

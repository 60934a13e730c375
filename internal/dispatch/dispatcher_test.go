// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package dispatch

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperdrift-io/hyperpost/internal/config"
	"github.com/hyperdrift-io/hyperpost/internal/fingerprint"
	"github.com/hyperdrift-io/hyperpost/internal/models"
	"github.com/hyperdrift-io/hyperpost/internal/platform"
	"github.com/hyperdrift-io/hyperpost/internal/store"
)

// fakeAdapter is a scriptable Adapter for pipeline tests.
type fakeAdapter struct {
	name    string
	publish func(ctx context.Context, post models.SocialPost) *models.PostingResult
	recent  []models.RecentPost
}

func (f *fakeAdapter) Name() string                  { return f.name }
func (f *fakeAdapter) DisplayName() string           { return f.name }
func (f *fakeAdapter) RequiredCredentials() []string { return nil }
func (f *fakeAdapter) Validate() error               { return nil }

func (f *fakeAdapter) Publish(ctx context.Context, post models.SocialPost) *models.PostingResult {
	if f.publish != nil {
		return f.publish(ctx, post)
	}
	return &models.PostingResult{
		Platform: f.name,
		Success:  true,
		PostID:   "1",
		URL:      "https://" + f.name + ".example/1",
	}
}

func (f *fakeAdapter) Engagement(ctx context.Context, postURL string) (models.Engagement, error) {
	return models.Engagement{"likes": 3}, nil
}

func (f *fakeAdapter) RecentPosts(ctx context.Context, limit int) ([]models.RecentPost, error) {
	if limit > 0 && limit < len(f.recent) {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func failing(name, message string) *fakeAdapter {
	return &fakeAdapter{
		name: name,
		publish: func(context.Context, models.SocialPost) *models.PostingResult {
			return &models.PostingResult{Platform: name, Error: message}
		},
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "hyperpost.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.SeedPlatforms(context.Background()); err != nil {
		t.Fatalf("SeedPlatforms() error = %v", err)
	}
	return s
}

func newTestDispatcher(t *testing.T, adapters ...platform.Adapter) *Dispatcher {
	t.Helper()
	m := make(map[string]platform.Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return newDispatcher(m, newTestStore(t), config.DispatchConfig{
		DuplicateWindow: 24 * time.Hour,
		PublishTimeout:  5 * time.Second,
	})
}

func testPost() models.SocialPost {
	return models.SocialPost{
		Title:   "Release",
		Content: "v1 is out",
		URL:     "https://example.com",
		Tags:    []string{"golang"},
	}
}

func TestPublishToAllSettlesEveryPlatform(t *testing.T) {
	d := newTestDispatcher(t,
		&fakeAdapter{name: "mastodon"},
		failing("bluesky", "authentication failed (HTTP 401)"),
	)

	result := d.PublishToAll(context.Background(), testPost())

	if result.Successful != 1 || result.Failed != 1 {
		t.Fatalf("got successful=%d failed=%d, want 1/1", result.Successful, result.Failed)
	}
	if len(result.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(result.Results))
	}
	byPlatform := make(map[string]models.PostingResult)
	for _, r := range result.Results {
		byPlatform[r.Platform] = r
	}
	if !byPlatform["mastodon"].Success {
		t.Errorf("mastodon result = %+v, want success", byPlatform["mastodon"])
	}
	if byPlatform["bluesky"].Success || byPlatform["bluesky"].Error == "" {
		t.Errorf("bluesky result = %+v, want failure with error", byPlatform["bluesky"])
	}
}

func TestPublishToPlatformNotConfigured(t *testing.T) {
	d := newTestDispatcher(t, &fakeAdapter{name: "mastodon"})

	result := d.PublishToPlatform(context.Background(), "medium", testPost())

	if result.Success {
		t.Fatal("expected failure for unconfigured platform")
	}
	want := "Platform medium not configured or credentials missing"
	if result.Error != want {
		t.Errorf("Error = %q, want %q", result.Error, want)
	}
}

func TestPublishToPlatformsMixedConfigured(t *testing.T) {
	d := newTestDispatcher(t, &fakeAdapter{name: "discord"})

	result := d.PublishToPlatforms(context.Background(), []string{"discord", "reddit"}, testPost())

	if result.Successful != 1 || result.Failed != 1 {
		t.Fatalf("got successful=%d failed=%d, want 1/1", result.Successful, result.Failed)
	}
}

func TestDuplicateSuppression(t *testing.T) {
	d := newTestDispatcher(t, &fakeAdapter{name: "mastodon"}, &fakeAdapter{name: "devto"})
	post := testPost()
	ctx := context.Background()

	first := d.PublishToPlatform(ctx, "mastodon", post)
	if !first.Success {
		t.Fatalf("first publish failed: %s", first.Error)
	}

	second := d.PublishToPlatform(ctx, "mastodon", post)
	if second.Success {
		t.Fatal("expected duplicate to be suppressed")
	}
	if !strings.HasPrefix(second.Error, "Duplicate content:") {
		t.Errorf("Error = %q, want Duplicate content prefix", second.Error)
	}
	if !strings.Contains(second.Error, "Previously posted to: mastodon") {
		t.Errorf("Error = %q, want previously-posted list", second.Error)
	}

	// The same content to a different platform is not a duplicate.
	other := d.PublishToPlatform(ctx, "devto", post)
	if !other.Success {
		t.Fatalf("cross-platform publish failed: %s", other.Error)
	}
}

func TestDuplicateWindowShrink(t *testing.T) {
	d := newTestDispatcher(t, &fakeAdapter{name: "mastodon"})
	post := testPost()
	ctx := context.Background()

	if r := d.PublishToPlatform(ctx, "mastodon", post); !r.Success {
		t.Fatalf("first publish failed: %s", r.Error)
	}

	// A nanosecond window means nothing counts as recent.
	d.SetDuplicateWindow(time.Nanosecond)
	time.Sleep(10 * time.Millisecond)

	if r := d.PublishToPlatform(ctx, "mastodon", post); !r.Success {
		t.Fatalf("publish after window shrink failed: %s", r.Error)
	}
}

func TestHangingAdapterDoesNotBlockOthers(t *testing.T) {
	hang := &fakeAdapter{
		name: "reddit",
		publish: func(ctx context.Context, _ models.SocialPost) *models.PostingResult {
			<-ctx.Done()
			return &models.PostingResult{Platform: "reddit", Error: ctx.Err().Error()}
		},
	}
	m := map[string]platform.Adapter{
		"reddit":   hang,
		"mastodon": &fakeAdapter{name: "mastodon"},
	}
	d := newDispatcher(m, newTestStore(t), config.DispatchConfig{
		DuplicateWindow: 24 * time.Hour,
		PublishTimeout:  50 * time.Millisecond,
	})

	done := make(chan *models.MultiPlatformResult, 1)
	go func() { done <- d.PublishToAll(context.Background(), testPost()) }()

	select {
	case result := <-done:
		if result.Successful != 1 || result.Failed != 1 {
			t.Fatalf("got successful=%d failed=%d, want 1/1", result.Successful, result.Failed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("fan-out did not settle")
	}
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	flaky := &fakeAdapter{
		name: "medium",
		publish: func(context.Context, models.SocialPost) *models.PostingResult {
			calls++
			return &models.PostingResult{Platform: "medium", Error: "server error (HTTP 500)"}
		},
	}
	d := newTestDispatcher(t, flaky)
	ctx := context.Background()

	// Distinct content each time so the duplicate check never triggers.
	for i := 0; i < 5; i++ {
		post := testPost()
		post.Content = post.Content + strings.Repeat("!", i+1)
		if r := d.PublishToPlatform(ctx, "medium", post); r.Success {
			t.Fatalf("publish %d unexpectedly succeeded", i)
		}
	}
	if calls != 5 {
		t.Fatalf("adapter called %d times, want 5", calls)
	}

	post := testPost()
	post.Content = "something new entirely"
	r := d.PublishToPlatform(ctx, "medium", post)
	if r.Success {
		t.Fatal("expected breaker to reject the call")
	}
	if calls != 5 {
		t.Errorf("adapter called %d times after breaker opened, want 5", calls)
	}
	if !strings.Contains(r.Error, "too many recent failures") {
		t.Errorf("Error = %q, want breaker-open message", r.Error)
	}
}

func TestSuccessfulPublishIsRecorded(t *testing.T) {
	st := newTestStore(t)
	d := newDispatcher(map[string]platform.Adapter{"mastodon": &fakeAdapter{name: "mastodon"}}, st,
		config.DispatchConfig{DuplicateWindow: 24 * time.Hour, PublishTimeout: 5 * time.Second})
	post := testPost()
	ctx := context.Background()

	if r := d.PublishToPlatform(ctx, "mastodon", post); !r.Success {
		t.Fatalf("publish failed: %s", r.Error)
	}

	stored, err := st.PostByHash(ctx, fingerprint.Hash(post))
	if err != nil {
		t.Fatalf("PostByHash() error = %v", err)
	}
	if stored == nil {
		t.Fatal("published post not recorded")
	}
	if len(stored.PostURLs) != 1 || stored.PostURLs[0].Platform != "mastodon" {
		t.Errorf("PostURLs = %+v, want one mastodon link", stored.PostURLs)
	}
}

func TestInferPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://mastodon.social/@dev/12345", "mastodon", true},
		{"https://bsky.app/profile/dev.bsky.social/post/abc", "bluesky", true},
		{"https://www.reddit.com/r/golang/comments/abc/title", "reddit", true},
		{"https://discord.com/channels/1/2/3", "discord", true},
		{"https://dev.to/dev/a-post-1abc", "", false},
	}
	for _, tt := range tests {
		got, ok := InferPlatform(tt.url)
		if got != tt.want || ok != tt.ok {
			t.Errorf("InferPlatform(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.ok)
		}
	}
}

func TestImportPost(t *testing.T) {
	postedAt := time.Now().UTC().Add(-time.Hour)
	adapter := &fakeAdapter{
		name: "mastodon",
		recent: []models.RecentPost{
			{URL: "https://mastodon.social/@dev/1", Content: "older post", CreatedAt: postedAt},
			{URL: "https://mastodon.social/@dev/2", Content: "Announcing v2\nwith details", CreatedAt: postedAt},
		},
	}
	st := newTestStore(t)
	d := newDispatcher(map[string]platform.Adapter{"mastodon": adapter}, st,
		config.DispatchConfig{DuplicateWindow: 24 * time.Hour, PublishTimeout: 5 * time.Second})
	ctx := context.Background()

	found, err := d.ImportPost(ctx, "https://mastodon.social/@dev/2")
	if err != nil {
		t.Fatalf("ImportPost() error = %v", err)
	}
	if found.Content != "Announcing v2\nwith details" {
		t.Errorf("Content = %q", found.Content)
	}

	hash := fingerprint.ImportHash(found.Content, "https://mastodon.social/@dev/2")
	stored, err := st.PostByHash(ctx, hash)
	if err != nil {
		t.Fatalf("PostByHash() error = %v", err)
	}
	if stored == nil {
		t.Fatal("imported post not stored")
	}
	if stored.Title != "Announcing v2" {
		t.Errorf("Title = %q, want first content line", stored.Title)
	}
}

func TestImportPostUnknownHost(t *testing.T) {
	d := newTestDispatcher(t, &fakeAdapter{name: "mastodon"})

	if _, err := d.ImportPost(context.Background(), "https://dev.to/dev/a-post"); err == nil {
		t.Fatal("expected error for uninferable URL")
	}
}

func TestRefreshEngagement(t *testing.T) {
	st := newTestStore(t)
	d := newDispatcher(map[string]platform.Adapter{"mastodon": &fakeAdapter{name: "mastodon"}}, st,
		config.DispatchConfig{DuplicateWindow: 24 * time.Hour, PublishTimeout: 5 * time.Second})
	ctx := context.Background()

	if r := d.PublishToPlatform(ctx, "mastodon", testPost()); !r.Success {
		t.Fatalf("publish failed: %s", r.Error)
	}

	refreshed, err := d.RefreshEngagement(ctx, time.Hour)
	if err != nil {
		t.Fatalf("RefreshEngagement() error = %v", err)
	}
	if refreshed != 1 {
		t.Fatalf("refreshed = %d, want 1", refreshed)
	}

	summary, err := d.Summary(ctx, "", 0)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if len(summary.Engagement) != 1 || summary.Engagement[0].Metrics["likes"] != 3 {
		t.Errorf("Engagement = %+v, want one record with likes=3", summary.Engagement)
	}
}

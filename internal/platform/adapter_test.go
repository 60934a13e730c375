// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package platform

import (
	"strings"
	"testing"

	"github.com/hyperdrift-io/hyperpost/internal/config"
)

func fullConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Platforms.Mastodon = config.MastodonConfig{Instance: "mastodon.social", AccessToken: "tok"}
	cfg.Platforms.Bluesky = config.BlueskyConfig{Identifier: "user.bsky.social", Password: "pw"}
	cfg.Platforms.Discord = config.DiscordConfig{Token: "tok", ChannelID: "123"}
	cfg.Platforms.Reddit = config.RedditConfig{
		ClientID: "id", ClientSecret: "secret", Username: "u", Password: "pw", Subreddit: "hyperdrift",
	}
	cfg.Platforms.Devto = config.DevtoConfig{APIKey: "key"}
	cfg.Platforms.Medium = config.MediumConfig{IntegrationToken: "tok"}
	return cfg
}

func TestNewRegistry(t *testing.T) {
	adapters := NewRegistry(fullConfig())

	expected := []string{"mastodon", "bluesky", "discord", "reddit", "devto", "medium"}
	if len(adapters) != len(expected) {
		t.Fatalf("registry size = %d, want %d", len(adapters), len(expected))
	}
	for _, name := range expected {
		adapter, ok := adapters[name]
		if !ok {
			t.Errorf("adapter %s not in registry", name)
			continue
		}
		if adapter.Name() != name {
			t.Errorf("adapter %s reports Name() = %s", name, adapter.Name())
		}
	}
}

func TestNewRegistrySkipsPartialCredentials(t *testing.T) {
	cfg := fullConfig()
	cfg.Platforms.Mastodon.AccessToken = ""
	cfg.Platforms.Bluesky = config.BlueskyConfig{}
	cfg.Platforms.Discord.Disabled = true

	adapters := NewRegistry(cfg)

	for _, name := range []string{"mastodon", "bluesky", "discord"} {
		if _, ok := adapters[name]; ok {
			t.Errorf("adapter %s should not be in registry", name)
		}
	}
	if len(adapters) != 3 {
		t.Errorf("registry size = %d, want 3", len(adapters))
	}
}

func TestNames(t *testing.T) {
	adapters := NewRegistry(fullConfig())
	names := Names(adapters)
	want := []string{"bluesky", "devto", "discord", "mastodon", "medium", "reddit"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestMissingCredentialsError(t *testing.T) {
	err := &MissingCredentialsError{Platform: "reddit", Missing: []string{"client_id", "password"}}
	msg := err.Error()
	for _, want := range []string{"reddit", "client_id", "password"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{"no limit", "hello", 0, "hello"},
		{"under limit", "hello", 10, "hello"},
		{"over limit", "hello world", 8, "hello..."},
		{"tiny limit", "hello", 2, "he"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.content, tt.maxLen); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.content, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestStripHTML(t *testing.T) {
	got := stripHTML("<p>hello &amp; <b>world</b></p>")
	if got != "hello & world" {
		t.Errorf("stripHTML = %q, want %q", got, "hello & world")
	}
}

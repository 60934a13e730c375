// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package platform

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/hyperdrift-io/hyperpost/internal/config"
	"github.com/hyperdrift-io/hyperpost/internal/models"
)

type fakeDiscordSession struct {
	sentContent string
	sendErr     error
	guildID     string
	message     *discordgo.Message
}

func (f *fakeDiscordSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sentContent = content
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &discordgo.Message{ID: "9001", ChannelID: channelID}, nil
}

func (f *fakeDiscordSession) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: channelID, GuildID: f.guildID}, nil
}

func (f *fakeDiscordSession) ChannelMessage(_, _ string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return f.message, nil
}

func newTestDiscord(fake *fakeDiscordSession) *Discord {
	d := NewDiscord(config.DiscordConfig{Token: "tok", ChannelID: "123"})
	d.newSession = func(string) (discordSession, error) { return fake, nil }
	return d
}

func TestDiscordPublish(t *testing.T) {
	fake := &fakeDiscordSession{guildID: "555"}
	result := newTestDiscord(fake).Publish(context.Background(), models.SocialPost{
		Title:   "Update",
		Content: "shipping",
		URL:     "https://example.com",
	})

	if !result.Success {
		t.Fatalf("Publish failed: %s", result.Error)
	}
	if result.URL != "https://discord.com/channels/555/123/9001" {
		t.Errorf("message URL = %s", result.URL)
	}
	want := "**Update**\n\nshipping\n\nhttps://example.com"
	if fake.sentContent != want {
		t.Errorf("sent = %q, want %q", fake.sentContent, want)
	}
}

func TestDiscordPublishSendFailure(t *testing.T) {
	fake := &fakeDiscordSession{sendErr: fmt.Errorf("HTTP 403 Forbidden")}
	result := newTestDiscord(fake).Publish(context.Background(), models.SocialPost{Content: "x"})
	if result.Success {
		t.Fatal("Publish succeeded despite send error")
	}
	if !strings.Contains(result.Error, "403") {
		t.Errorf("error = %q", result.Error)
	}
}

func TestDiscordPublishTruncatesLongMessages(t *testing.T) {
	fake := &fakeDiscordSession{guildID: "555"}
	long := strings.Repeat("a", 3000)
	result := newTestDiscord(fake).Publish(context.Background(), models.SocialPost{Content: long})
	if !result.Success {
		t.Fatalf("Publish failed: %s", result.Error)
	}
	if len(fake.sentContent) != 2000 {
		t.Errorf("sent length = %d, want 2000", len(fake.sentContent))
	}
}

func TestDiscordEngagement(t *testing.T) {
	fake := &fakeDiscordSession{message: &discordgo.Message{
		Reactions: []*discordgo.MessageReactions{{Count: 3}, {Count: 2}},
	}}
	metrics, err := newTestDiscord(fake).Engagement(context.Background(),
		"https://discord.com/channels/555/123/9001")
	if err != nil {
		t.Fatalf("Engagement() error = %v", err)
	}
	if metrics["likes"] != 5 {
		t.Errorf("likes = %d, want 5", metrics["likes"])
	}
}

func TestDiscordEngagementBadURL(t *testing.T) {
	fake := &fakeDiscordSession{}
	if _, err := newTestDiscord(fake).Engagement(context.Background(), "https://discord.com/developers"); err == nil {
		t.Error("Engagement accepted a non-message URL")
	}
}

func TestDiscordRecentPostsUnsupported(t *testing.T) {
	posts, err := newTestDiscord(&fakeDiscordSession{}).RecentPosts(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentPosts() error = %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("RecentPosts() = %v, want empty", posts)
	}
}

// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package platform

import (
	"context"
	"fmt"
	"regexp"

	"github.com/bwmarrin/discordgo"

	"github.com/hyperdrift-io/hyperpost/internal/config"
	"github.com/hyperdrift-io/hyperpost/internal/models"
)

// Discord delivers posts as bot messages to a fixed channel. Only the
// REST API is used; no gateway connection is opened.
type Discord struct {
	cfg config.DiscordConfig

	// newSession is swapped out in tests.
	newSession func(token string) (discordSession, error)
}

// discordSession is the subset of discordgo.Session the adapter uses.
type discordSession interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// NewDiscord creates the Discord adapter.
func NewDiscord(cfg config.DiscordConfig) *Discord {
	return &Discord{
		cfg: cfg,
		newSession: func(token string) (discordSession, error) {
			return discordgo.New("Bot " + token)
		},
	}
}

// Name returns the platform identifier.
func (d *Discord) Name() string { return "discord" }

// DisplayName returns the human-readable platform name.
func (d *Discord) DisplayName() string { return "Discord" }

// RequiredCredentials lists the fields Validate checks.
func (d *Discord) RequiredCredentials() []string {
	return []string{"token", "channel_id"}
}

// Validate checks the Discord credential bundle.
func (d *Discord) Validate() error {
	missing := missingFields(d.RequiredCredentials(), map[string]string{
		"token":      d.cfg.Token,
		"channel_id": d.cfg.ChannelID,
	})
	if len(missing) > 0 {
		return &MissingCredentialsError{Platform: d.Name(), Missing: missing}
	}
	return nil
}

// Publish sends the composed message to the configured channel and
// builds the jump URL from the channel's guild.
func (d *Discord) Publish(ctx context.Context, post models.SocialPost) *models.PostingResult {
	if err := d.Validate(); err != nil {
		return validationFailure(d.Name(), err)
	}

	session, err := d.newSession(d.cfg.Token)
	if err != nil {
		return failureResult(d.Name(), "failed to create session: %v", err)
	}

	msg, err := session.ChannelMessageSend(d.cfg.ChannelID, d.composeMessage(post),
		discordgo.WithContext(ctx))
	if err != nil {
		return failureResult(d.Name(), "failed to send message: %v", err)
	}

	guildID := "@me"
	if ch, err := session.Channel(d.cfg.ChannelID, discordgo.WithContext(ctx)); err == nil && ch.GuildID != "" {
		guildID = ch.GuildID
	}
	msgURL := fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, d.cfg.ChannelID, msg.ID)
	return successResult(d.Name(), msg.ID, msgURL)
}

// composeMessage builds the message text with a bold title line.
func (d *Discord) composeMessage(post models.SocialPost) string {
	message := post.Content
	if post.Title != "" {
		message = fmt.Sprintf("**%s**\n\n%s", post.Title, post.Content)
	}
	if post.URL != "" {
		message += "\n\n" + post.URL
	}
	// Discord rejects messages over 2000 characters.
	return truncate(message, 2000)
}

// discordMessageURL extracts guild, channel, and message IDs from a jump URL.
var discordMessageURL = regexp.MustCompile(`/channels/([^/]+)/([^/]+)/([^/]+)`)

// Engagement counts the reactions on a message; Discord has no richer
// per-message metrics.
func (d *Discord) Engagement(ctx context.Context, postURL string) (models.Engagement, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	match := discordMessageURL.FindStringSubmatch(postURL)
	if match == nil {
		return nil, fmt.Errorf("unrecognized Discord message URL: %s", postURL)
	}
	channelID, messageID := match[2], match[3]

	session, err := d.newSession(d.cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	msg, err := session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}

	likes := 0
	for _, reaction := range msg.Reactions {
		likes += reaction.Count
	}
	return models.Engagement{"likes": likes}, nil
}

// RecentPosts is unsupported: the Discord API has no practical way to
// enumerate a bot's own messages across channels.
func (d *Discord) RecentPosts(_ context.Context, _ int) ([]models.RecentPost, error) {
	return nil, nil
}

// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

// Package config loads the layered HyperPost configuration: built-in
// defaults, an optional YAML config file, and environment variables (which
// win). Platform credentials come almost always from the environment via a
// .env file; a platform is active exactly when all of its required
// credential fields are present.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"hyperpost.yaml",
	"hyperpost.yml",
	"/etc/hyperpost/config.yaml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "HYPERPOST_CONFIG"

// Config is the full application configuration.
type Config struct {
	Logging   LoggingConfig   `koanf:"logging"`
	Database  DatabaseConfig  `koanf:"database"`
	Dispatch  DispatchConfig  `koanf:"dispatch"`
	Platforms PlatformsConfig `koanf:"platforms"`
}

// LoggingConfig mirrors logging.Config for the loader.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig locates the SQLite posting-history database.
type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// DispatchConfig tunes the publish pipeline.
type DispatchConfig struct {
	// DuplicateWindow is how long an identical post to the same platform
	// counts as a duplicate. Default 24h.
	DuplicateWindow time.Duration `koanf:"duplicate_window" validate:"min=0"`

	// PublishTimeout bounds a single adapter publish call so one hanging
	// platform cannot stall the settle-all join forever.
	PublishTimeout time.Duration `koanf:"publish_timeout" validate:"min=0"`

	// BatchDelay is the courtesy pause between sequential posts in batch
	// repost mode.
	BatchDelay time.Duration `koanf:"batch_delay" validate:"min=0"`
}

// PlatformsConfig groups per-platform credential bundles. A zero-valued
// section means the platform is not configured.
type PlatformsConfig struct {
	Mastodon MastodonConfig `koanf:"mastodon"`
	Bluesky  BlueskyConfig  `koanf:"bluesky"`
	Discord  DiscordConfig  `koanf:"discord"`
	Reddit   RedditConfig   `koanf:"reddit"`
	Devto    DevtoConfig    `koanf:"devto"`
	Medium   MediumConfig   `koanf:"medium"`
}

// MastodonConfig holds Mastodon API credentials.
type MastodonConfig struct {
	Instance    string `koanf:"instance"`
	AccessToken string `koanf:"access_token"`
}

// Enabled reports whether every required field is present.
func (c MastodonConfig) Enabled() bool {
	return c.Instance != "" && c.AccessToken != ""
}

// BlueskyConfig holds Bluesky (AT Protocol) credentials. Password should be
// an app password, not the account password.
type BlueskyConfig struct {
	Identifier string `koanf:"identifier"`
	Password   string `koanf:"password"`
}

// Enabled reports whether every required field is present.
func (c BlueskyConfig) Enabled() bool {
	return c.Identifier != "" && c.Password != ""
}

// DiscordConfig holds Discord bot credentials.
type DiscordConfig struct {
	Token     string `koanf:"token"`
	ChannelID string `koanf:"channel_id"`
	Disabled  bool   `koanf:"disabled"`
}

// Enabled reports whether the platform is configured and not killed off
// via DISCORD_DISABLED.
func (c DiscordConfig) Enabled() bool {
	return !c.Disabled && c.Token != "" && c.ChannelID != ""
}

// RedditConfig holds Reddit script-app credentials.
type RedditConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	Username     string `koanf:"username"`
	Password     string `koanf:"password"`
	Subreddit    string `koanf:"subreddit"`
	Disabled     bool   `koanf:"disabled"`
}

// Enabled reports whether the platform is configured and not killed off
// via REDDIT_DISABLED.
func (c RedditConfig) Enabled() bool {
	return !c.Disabled && c.ClientID != "" && c.ClientSecret != "" &&
		c.Username != "" && c.Password != ""
}

// DevtoConfig holds the Dev.to API key.
type DevtoConfig struct {
	APIKey string `koanf:"api_key"`
}

// Enabled reports whether every required field is present.
func (c DevtoConfig) Enabled() bool {
	return c.APIKey != ""
}

// MediumConfig holds the Medium integration token.
type MediumConfig struct {
	IntegrationToken string `koanf:"integration_token"`
}

// Enabled reports whether every required field is present.
func (c MediumConfig) Enabled() bool {
	return c.IntegrationToken != ""
}

// ActivePlatforms returns the names of every configured platform, in the
// canonical registration order.
func (c *Config) ActivePlatforms() []string {
	var names []string
	if c.Platforms.Mastodon.Enabled() {
		names = append(names, "mastodon")
	}
	if c.Platforms.Bluesky.Enabled() {
		names = append(names, "bluesky")
	}
	if c.Platforms.Discord.Enabled() {
		names = append(names, "discord")
	}
	if c.Platforms.Reddit.Enabled() {
		names = append(names, "reddit")
	}
	if c.Platforms.Devto.Enabled() {
		names = append(names, "devto")
	}
	if c.Platforms.Medium.Enabled() {
		names = append(names, "medium")
	}
	return names
}

// defaultConfig returns a Config with all defaults applied. Defaults load
// first, then the config file, then environment variables.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Caller: false,
		},
		Database: DatabaseConfig{
			Path: defaultDatabasePath(),
		},
		Dispatch: DispatchConfig{
			DuplicateWindow: 24 * time.Hour,
			PublishTimeout:  2 * time.Minute,
			BatchDelay:      5 * time.Minute,
		},
		Platforms: PlatformsConfig{
			Reddit: RedditConfig{
				Subreddit: "hyperdrift",
			},
		},
	}
}

// defaultDatabasePath keeps the history database under the user config
// directory so the tool works from any working directory.
func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "hyperpost.db"
	}
	return dir + "/hyperpost/hyperpost.db"
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, in ascending priority.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches HYPERPOST_CONFIG and the default paths.
// Returns empty string when no config file exists, which is normal.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings ties the flat environment variable names users already have
// in their .env files to nested config paths.
var envMappings = map[string]string{
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"database_path": "database.path",

	"duplicate_window": "dispatch.duplicate_window",
	"publish_timeout":  "dispatch.publish_timeout",
	"batch_delay":      "dispatch.batch_delay",

	"mastodon_instance":     "platforms.mastodon.instance",
	"mastodon_access_token": "platforms.mastodon.access_token",

	"bluesky_identifier": "platforms.bluesky.identifier",
	"bluesky_password":   "platforms.bluesky.password",

	"discord_token":      "platforms.discord.token",
	"discord_channel_id": "platforms.discord.channel_id",
	"discord_disabled":   "platforms.discord.disabled",

	"reddit_clientid":     "platforms.reddit.client_id",
	"reddit_clientsecret": "platforms.reddit.client_secret",
	"reddit_username":     "platforms.reddit.username",
	"reddit_password":     "platforms.reddit.password",
	"reddit_subreddit":    "platforms.reddit.subreddit",
	"reddit_disabled":     "platforms.reddit.disabled",

	"devto_api_key": "platforms.devto.api_key",

	"medium_token": "platforms.medium.integration_token",
}

// envTransformFunc maps recognized environment variable names to koanf
// paths. Unrecognized variables map to "" and are skipped, so the process
// environment cannot leak arbitrary keys into the config tree.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hyperdrift-io/hyperpost/internal/models"
	"github.com/hyperdrift-io/hyperpost/internal/platform"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// NewRootCmd returns the root command for the hyperpost CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hyperpost",
		Short:         "Publish once, post everywhere",
		Long:          "HyperPost publishes one piece of content to Mastodon, Bluesky, Discord, Reddit, Dev.to, and Medium, with duplicate suppression backed by a local posting history.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newPostCmd(app))
	rootCmd.AddCommand(newPlatformsCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newRepostCmd(app))
	rootCmd.AddCommand(newAnalyticsCmd(app))
	rootCmd.AddCommand(newGatherAnalyticsCmd(app))
	rootCmd.AddCommand(newDiscoverPostsCmd(app))
	rootCmd.AddCommand(newImportPostCmd(app))

	return rootCmd
}

// printResult writes one per-platform outcome line.
func printResult(cmd *cobra.Command, r models.PostingResult, indent string) {
	if r.Success {
		url := r.URL
		if url == "" {
			url = "Posted successfully"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s %s: %s\n", indent, color.GreenString("✅"), r.Platform, url)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s %s: %s\n", indent, color.RedString("❌"), r.Platform, r.Error)
	}
}

func printResultSummary(cmd *cobra.Command, result *models.MultiPlatformResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "📤 Posting results:")
	fmt.Fprintf(out, "%s Successful: %d\n", color.GreenString("✅"), result.Successful)
	fmt.Fprintf(out, "%s Failed: %d\n", color.RedString("❌"), result.Failed)
	fmt.Fprintln(out)
	for _, r := range result.Results {
		printResult(cmd, r, "")
	}
}

// splitList parses a comma-separated flag value into trimmed items.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// validateTargets checks requested platform names against the configured
// set and reports the invalid ones in one error.
func validateTargets(targets, configured []string) error {
	active := make(map[string]bool, len(configured))
	for _, name := range configured {
		active[name] = true
	}
	var invalid []string
	for _, name := range targets {
		if !active[name] {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid platforms: %s (configured platforms: %s)",
			strings.Join(invalid, ", "), strings.Join(configured, ", "))
	}
	return nil
}

// validateKnown rejects platform names that do not exist at all. Known
// but unconfigured names pass; the dispatcher turns those into per-item
// failure results instead of aborting the whole batch.
func validateKnown(targets []string) error {
	var unknown []string
	for _, name := range targets {
		if !slices.Contains(platform.KnownPlatforms, name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown platforms: %s (supported platforms: %s)",
			strings.Join(unknown, ", "), strings.Join(platform.KnownPlatforms, ", "))
	}
	return nil
}

func truncateLine(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

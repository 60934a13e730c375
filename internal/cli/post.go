// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperdrift-io/hyperpost/internal/models"
)

func newPostCmd(app *App) *cobra.Command {
	var (
		content   string
		title     string
		url       string
		tags      string
		platforms string
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post content to social media platforms",
		RunE: func(cmd *cobra.Command, args []string) error {
			post := models.SocialPost{
				Content: content,
				Title:   title,
				URL:     url,
				Tags:    splitList(tags),
			}

			configured := app.Config().ActivePlatforms()
			targets := configured
			if platforms != "" {
				targets = splitList(platforms)
				// A typo aborts; a known-but-unconfigured name goes
				// through and comes back as a per-item failure result.
				if err := validateKnown(targets); err != nil {
					return err
				}
			}

			if dryRun {
				if platforms != "" {
					if err := validateTargets(targets, configured); err != nil {
						return err
					}
				}
				return runPostDryRun(cmd, post, targets)
			}

			d, err := app.Dispatcher(cmd.Context())
			if err != nil {
				return err
			}

			var result *models.MultiPlatformResult
			if platforms != "" {
				result = d.PublishToPlatforms(cmd.Context(), targets, post)
			} else {
				result = d.PublishToAll(cmd.Context(), post)
			}

			printResultSummary(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&content, "content", "c", "", "post content")
	cmd.Flags().StringVarP(&title, "title", "t", "", "post title")
	cmd.Flags().StringVarP(&url, "url", "u", "", "URL to include")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")
	cmd.Flags().StringVarP(&platforms, "platforms", "p", "", "comma-separated list of platforms (defaults to all configured)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview the post without actually posting")
	_ = cmd.MarkFlagRequired("content")

	return cmd
}

// runPostDryRun previews the post without touching the database or any
// platform API.
func runPostDryRun(cmd *cobra.Command, post models.SocialPost, targets []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "🔍 Dry run mode - previewing post:")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintf(out, "Content: %s\n", post.Content)
	if post.Title != "" {
		fmt.Fprintf(out, "Title: %s\n", post.Title)
	}
	if post.URL != "" {
		fmt.Fprintf(out, "URL: %s\n", post.URL)
	}
	if len(post.Tags) > 0 {
		fmt.Fprintf(out, "Tags: %s\n", strings.Join(post.Tags, ", "))
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Will post to: %s\n", strings.Join(targets, ", "))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "💡 Remove --dry-run to actually post")
	return nil
}

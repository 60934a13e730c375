// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hyperdrift-io/hyperpost/internal/models"
)

func newDiscoverPostsCmd(app *App) *cobra.Command {
	var (
		platform string
		limit    int
	)

	cmd := &cobra.Command{
		Use:     "discover-posts",
		Aliases: []string{"discover"},
		Short:   "Discover existing posts on platforms with their analytics",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.Dispatcher(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "🔍 Discovering posts on platforms...")
			fmt.Fprintln(out)

			type discovered struct {
				platform string
				post     models.RecentPost
			}
			var found []discovered

			for _, name := range d.ConfiguredPlatforms() {
				if platform != "" && platform != name {
					continue
				}
				fmt.Fprintf(out, "📡 Checking %s...\n", name)
				posts, err := d.DiscoverPosts(cmd.Context(), name, limit)
				if err != nil {
					fmt.Fprintf(out, "%s %s: failed to discover posts - %v\n", color.RedString("❌"), name, err)
					continue
				}
				if len(posts) == 0 {
					fmt.Fprintf(out, "📭 No posts found on %s\n", name)
					continue
				}
				fmt.Fprintf(out, "%s Found %d posts on %s\n", color.GreenString("✅"), len(posts), name)
				for _, post := range posts {
					found = append(found, discovered{platform: name, post: post})
				}
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "📊 Discovery Complete:")
			fmt.Fprintln(out, strings.Repeat("=", 50))
			fmt.Fprintf(out, "Total Posts Found: %d\n", len(found))
			fmt.Fprintln(out)

			if len(found) == 0 {
				fmt.Fprintln(out, "No posts found on any platforms.")
				return nil
			}

			for i, item := range found {
				metrics := "No engagement yet"
				if len(item.post.Metrics) > 0 {
					metrics = formatMetrics(item.post.Metrics)
				}
				fmt.Fprintf(out, "%d. [%s] %s\n", i+1, item.post.CreatedAt.Local().Format("2006-01-02 15:04:05"), strings.ToUpper(item.platform))
				fmt.Fprintf(out, "   URL: %s\n", item.post.URL)
				fmt.Fprintf(out, "   Content: %s\n", truncateLine(item.post.Content, 100))
				fmt.Fprintf(out, "   Analytics: %s\n", metrics)
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, "💡 Tip: Use \"hyperpost import-post <url>\" to add these posts to analytics tracking!")
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "limit discovery to specific platform")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of posts to discover per platform")

	return cmd
}

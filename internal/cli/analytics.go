// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hyperdrift-io/hyperpost/internal/models"
)

func newAnalyticsCmd(app *App) *cobra.Command {
	var (
		platform string
		days     int
	)

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show posting analytics (cached data from database)",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.Store()
			if err != nil {
				return err
			}
			summary, err := st.Summary(cmd.Context(), platform, days)
			if err != nil {
				return fmt.Errorf("failed to load analytics: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "📊 Posting Analytics (%d days - cached data):\n", days)
			fmt.Fprintln(out, strings.Repeat("=", 60))
			fmt.Fprintf(out, "Total Posts: %d\n", summary.TotalPosts)
			fmt.Fprintln(out)

			if len(summary.ByPlatform) > 0 {
				fmt.Fprintln(out, "Posts by Platform:")
				names := make([]string, 0, len(summary.ByPlatform))
				for name := range summary.ByPlatform {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(out, "  %s: %d\n", name, summary.ByPlatform[name])
				}
				fmt.Fprintln(out)
			}

			if len(summary.Engagement) > 0 {
				fmt.Fprintln(out, "Engagement Data (likes, reposts, etc.):")
				top := summary.Engagement
				if len(top) > 5 {
					top = top[:5]
				}
				for i, record := range top {
					title := record.PostTitle
					if title == "" {
						title = "Untitled"
					}
					fmt.Fprintf(out, "%d. %s: %s - %s\n", i+1, record.Platform, formatMetrics(record.Metrics), title)
				}
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "💡 Tip: Use \"hyperpost gather-analytics\" to fetch fresh engagement data from platforms!")
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "filter analytics by platform")
	cmd.Flags().IntVar(&days, "days", 30, "number of days to analyze")

	return cmd
}

// formatMetrics renders an engagement map as "likes: 3, replies: 1" in
// stable key order.
func formatMetrics(metrics models.Engagement) string {
	if len(metrics) == 0 {
		return "No engagement data"
	}
	keys := make([]string, 0, len(metrics))
	for key := range metrics {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", key, metrics[key]))
	}
	return strings.Join(parts, ", ")
}

func newGatherAnalyticsCmd(app *App) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "gather-analytics",
		Short: "Fetch fresh engagement metrics (likes/faves/reposts) from all platforms",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.Dispatcher(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "🔍 Gathering fresh analytics from platforms...")
			fmt.Fprintln(out, "This may take a while depending on the number of posts.")
			fmt.Fprintln(out)

			refreshed, err := d.RefreshEngagement(cmd.Context(), maxAge)
			if err != nil {
				return fmt.Errorf("analytics gathering failed: %w", err)
			}

			fmt.Fprintln(out, "📊 Analytics Gathering Complete:")
			fmt.Fprintln(out, strings.Repeat("=", 50))
			fmt.Fprintf(out, "%s Posts Updated: %d\n", color.GreenString("✅"), refreshed)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "💡 Tip: Run \"hyperpost analytics\" to see updated engagement data!")
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "only refresh links whose metrics are older than this (0 refreshes everything)")

	return cmd
}

// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperdrift-io/hyperpost/internal/models"
)

func newHistoryCmd(app *App) *cobra.Command {
	var (
		clear    bool
		platform string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show posting history and check for duplicates",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.Store()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if clear {
				st.ClearHistory(cmd.Context())
				fmt.Fprintln(out, "Posting history cleared.")
				return nil
			}

			var history []models.Post
			if platform != "" {
				// Filter before capping, so --limit counts matching
				// posts rather than newest posts overall.
				all, err := st.AllPosts(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to load posting history: %w", err)
				}
				history = slices.DeleteFunc(all, func(p models.Post) bool {
					return !slices.Contains(p.Platforms, platform)
				})
				if limit > 0 && len(history) > limit {
					history = history[:limit]
				}
			} else {
				history = st.History(cmd.Context(), limit)
			}
			if len(history) == 0 {
				fmt.Fprintln(out, "No posting history found.")
				return nil
			}

			fmt.Fprintf(out, "📚 Posting History (%d entries):\n", len(history))
			fmt.Fprintln(out, strings.Repeat("=", 60))
			for i, item := range history {
				fmt.Fprintf(out, "%d. [%s]\n", i+1, item.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "   Platforms: %s\n", strings.Join(item.Platforms, ", "))
				if item.Title != "" {
					fmt.Fprintf(out, "   Title: %s\n", item.Title)
				}
				fmt.Fprintf(out, "   Content: %s\n", truncateLine(item.Content, 100))
				if len(item.PostURLs) > 0 {
					fmt.Fprintln(out, "   URLs:")
					for _, link := range item.PostURLs {
						fmt.Fprintf(out, "     %s: %s\n", link.Platform, link.URL)
					}
				}
				fmt.Fprintf(out, "   Hash: %s...\n", hashPrefix(item.ContentHash))
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "clear the posting history")
	cmd.Flags().StringVar(&platform, "platform", "", "filter history by platform")
	cmd.Flags().IntVar(&limit, "limit", 50, "limit number of results")

	return cmd
}

func hashPrefix(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}

// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperdrift-io/hyperpost/internal/models"
)

func newRepostCmd(app *App) *cobra.Command {
	var (
		platforms string
		all       bool
		batch     bool
		hash      string
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "repost",
		Short: "Repost existing content to additional platforms",
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := splitList(platforms)
			if len(targets) == 0 {
				return fmt.Errorf("no platforms specified, use --platforms")
			}
			if err := validateTargets(targets, app.Config().ActivePlatforms()); err != nil {
				return err
			}

			st, err := app.Store()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var candidates []models.Post
			switch {
			case all:
				if !batch {
					return fmt.Errorf("--all requires --batch for safety; use --hash to repost a single post")
				}
				candidates, err = st.AllPosts(ctx)
				if err != nil {
					return fmt.Errorf("failed to load posting history: %w", err)
				}
			case hash != "":
				post, err := st.PostByHash(ctx, hash)
				if err != nil {
					return fmt.Errorf("failed to load post: %w", err)
				}
				if post == nil {
					return fmt.Errorf("post with hash %s not found", hash)
				}
				candidates = []models.Post{*post}
			default:
				return fmt.Errorf("specify --all (with --batch) or --hash <hash>")
			}

			// Skip posts that already reached every target platform.
			pending := slices.DeleteFunc(candidates, func(p models.Post) bool {
				for _, target := range targets {
					if !slices.Contains(p.Platforms, target) {
						return false
					}
				}
				return true
			})

			out := cmd.OutOrStdout()
			if len(pending) == 0 {
				fmt.Fprintln(out, "ℹ️ No posts need reposting to the specified platforms")
				return nil
			}

			fmt.Fprintf(out, "🔄 Found %d post(s) to repost to: %s\n", len(pending), strings.Join(targets, ", "))
			delay := app.Config().Dispatch.BatchDelay
			if batch && len(pending) > 1 {
				fmt.Fprintf(out, "⏰ Batch mode: %s delays between posts\n", delay)
			}
			fmt.Fprintln(out)

			for i, post := range pending {
				if batch && len(pending) > 1 {
					fmt.Fprintf(out, "📦 Batch Progress: %d/%d\n", i+1, len(pending))
				}
				label := post.Title
				if label == "" {
					label = truncateLine(post.Content, 50)
				}
				fmt.Fprintf(out, "📝 Reposting: %s\n", label)
				fmt.Fprintf(out, "   Hash: %s\n", post.ContentHash)
				fmt.Fprintf(out, "   Created: %s\n", post.CreatedAt.Local().Format("2006-01-02 15:04:05"))

				if dryRun {
					fmt.Fprintf(out, "   🔍 Would post to: %s\n", strings.Join(targets, ", "))
				} else {
					d, err := app.Dispatcher(ctx)
					if err != nil {
						return err
					}
					result := d.PublishToPlatforms(ctx, targets, models.SocialPost{
						Content: post.Content,
						Title:   post.Title,
						URL:     post.URL,
					})
					fmt.Fprintf(out, "   ✅ Results: %d successful, %d failed\n", result.Successful, result.Failed)
					for _, r := range result.Results {
						printResult(cmd, r, "     ")
					}
				}
				fmt.Fprintln(out)

				// Courtesy pause between batch posts, skipped after the last.
				if batch && !dryRun && i < len(pending)-1 {
					fmt.Fprintf(out, "⏳ Waiting %s before next post...\n", delay)
					if err := sleepCtx(ctx, delay); err != nil {
						return err
					}
					fmt.Fprintln(out, "🚀 Continuing with next post...")
					fmt.Fprintln(out)
				}
			}

			if dryRun {
				fmt.Fprintln(out, "💡 Remove --dry-run to actually repost")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&platforms, "platforms", "p", "", "comma-separated list of platforms to repost to")
	cmd.Flags().BoolVar(&all, "all", false, "repost all existing posts to specified platforms (requires --batch)")
	cmd.Flags().BoolVar(&batch, "batch", false, "enable batch mode with delays between posts")
	cmd.Flags().StringVar(&hash, "hash", "", "repost specific post by content hash")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview reposts without actually posting")
	_ = cmd.MarkFlagRequired("platforms")

	return cmd
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

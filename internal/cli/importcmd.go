// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newImportPostCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import-post <url>",
		Short: "Import an existing post by URL for analytics tracking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "📥 Importing post: %s\n", url)
			fmt.Fprintln(out)

			d, err := app.Dispatcher(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := d.ImportPost(cmd.Context(), url); err != nil {
				return err
			}

			fmt.Fprintf(out, "%s Post imported successfully!\n", color.GreenString("✅"))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "💡 Tip: Run \"hyperpost gather-analytics\" periodically to update analytics!")
			return nil
		},
	}
}

// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlatformsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List configured platforms",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			platforms := app.Config().ActivePlatforms()
			if len(platforms) == 0 {
				fmt.Fprintln(out, "No platforms configured. Check your .env file.")
				return nil
			}
			fmt.Fprintln(out, "Configured platforms:")
			for _, name := range platforms {
				fmt.Fprintf(out, "- %s\n", name)
			}
			return nil
		},
	}
}

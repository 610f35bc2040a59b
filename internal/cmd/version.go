// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func VersionCommand() *cobra.Command {

	return &cobra.Command{
		Use:   "version",
		Short: "Print the charm version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package root

import (
	"github.com/spf13/cobra"

	"charmhub.io/foxglove-studio-k8s/internal/cmd"
)

func GetRootCommand() *cobra.Command {

	c := &cobra.Command{
		Use:   "foxglove-studio-k8s",
		Short: "Foxglove Studio K8s Charm",
		Long:  "A Kubernetes charm for Foxglove Studio",
	}

	c.AddCommand(cmd.VersionCommand())
	c.AddCommand(cmd.DispatchCommand())

	return c
}

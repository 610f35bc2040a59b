// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package main

import (
	"os"

	"charmhub.io/foxglove-studio-k8s/cmd/root"
)

func main() {

	if err := root.GetRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

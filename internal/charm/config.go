// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package charm

import (
	"strconv"

	"github.com/pkg/errors"

	"charmhub.io/foxglove-studio-k8s/internal/constants"
)

// Config is the charm configuration as set by the operator.
type Config struct {
	ServerPort int
}

// loadConfig reads and defaults the charm configuration. config-get returns
// loosely typed JSON, so numbers arrive as float64 and may arrive as strings.
func loadConfig(tool HookTool) (Config, error) {
	raw, err := tool.ConfigGet()
	if err != nil {
		return Config{}, errors.Wrap(err, "reading charm config")
	}

	cfg := Config{ServerPort: constants.WorkloadPort}
	if v, ok := raw[constants.ServerPortConfigKey]; ok {
		switch n := v.(type) {
		case float64:
			cfg.ServerPort = int(n)
		case int:
			cfg.ServerPort = n
		case string:
			port, err := strconv.Atoi(n)
			if err != nil {
				return Config{}, errors.Wrapf(err, "invalid %s %q", constants.ServerPortConfigKey, n)
			}
			cfg.ServerPort = port
		}
	}
	return cfg, nil
}

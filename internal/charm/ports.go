// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package charm

import (
	"fmt"

	"charmhub.io/foxglove-studio-k8s/internal/constants"
)

// syncPorts opens the workload port on the leader and closes everything no
// longer planned. Ports may change across an upgrade, so actual and planned
// sets are reconciled rather than blindly opened.
func (c *Charm) syncPorts() error {
	leader, err := c.tool.IsLeader()
	if err != nil {
		return err
	}

	planned := map[string]bool{}
	if leader {
		planned[fmt.Sprintf("%d/tcp", constants.WorkloadPort)] = true
	}

	actual, err := c.tool.OpenedPorts()
	if err != nil {
		return err
	}

	for _, port := range actual {
		if !planned[port] {
			if err := c.tool.ClosePort(port); err != nil {
				return err
			}
		}
	}
	for port := range planned {
		opened := false
		for _, p := range actual {
			if p == port {
				opened = true
				break
			}
		}
		if !opened {
			if err := c.tool.OpenPort(port); err != nil {
				return err
			}
		}
	}
	return nil
}

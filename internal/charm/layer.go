// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package charm

import (
	"fmt"
	"strings"

	"charmhub.io/foxglove-studio-k8s/pkg/pebble"
	"charmhub.io/foxglove-studio-k8s/pkg/status"
)

// layer computes the declarative service layer for the file server. Log and
// trace endpoints discovered over relations are injected into the service
// environment when present.
func (c *Charm) layer() (pebble.Layer, error) {
	cfg, err := loadConfig(c.tool)
	if err != nil {
		return pebble.Layer{}, err
	}

	command := fmt.Sprintf("caddy file-server --listen :%d", cfg.ServerPort)

	env := map[string]string{}
	if endpoints, err := c.logfwd.Endpoints(); err == nil && len(endpoints) > 0 {
		env["LOG_FORWARDING_ENDPOINTS"] = strings.Join(endpoints, ",")
	}
	if endpoint, err := c.tracing.Endpoint("otlp_http"); err == nil && endpoint != "" {
		env["OTLP_HTTP_ENDPOINT"] = endpoint
	}
	if len(env) == 0 {
		env = nil
	}

	return pebble.Layer{
		Summary:     "Foxglove-studio k8s layer",
		Description: "Foxglove-studio k8s layer",
		Services: map[string]pebble.Service{
			c.name: {
				Override:    "replace",
				Summary:     "foxglove-studio-k8s service",
				Command:     command,
				Startup:     "enabled",
				Environment: env,
			},
		},
	}, nil
}

// updateLayerAndRestart pushes the computed layer to the supervisor and
// restarts the service, but only when the computed services differ from the
// live plan: an unchanged recomputation is a no-op.
func (c *Charm) updateLayerAndRestart() error {
	c.setStatus(status.Maintenance("assembling pod spec"))

	if !c.pbl.CanConnect() {
		c.setStatus(status.Waiting("waiting for supervisor in workload container"))
		return nil
	}

	desired, err := c.layer()
	if err != nil {
		return err
	}

	plan, err := c.pbl.Plan()
	if err != nil {
		return err
	}

	if !pebble.ServicesEqual(plan.Services, desired.Services) {
		if err := c.pbl.AddLayer(c.name, desired); err != nil {
			return err
		}
		if err := c.pbl.Restart(c.name); err != nil {
			return err
		}
		c.log.Info("applied updated layer and restarted service", "service", c.name)
	}

	c.setStatus(c.computeStatus())
	return nil
}

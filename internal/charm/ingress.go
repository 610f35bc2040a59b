// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package charm

import (
	"fmt"
	"strings"

	"charmhub.io/foxglove-studio-k8s/internal/constants"
	"charmhub.io/foxglove-studio-k8s/pkg/traefikroute"
)

// defaultClusterDomain is assumed when the pod FQDN cannot be parsed.
const defaultClusterDomain = "svc.cluster.local"

// ingressConfig builds the raw routing rule handed to the reverse proxy:
// path-prefix routing on "/<model>-<application>" to the unit's headless
// service address.
func (c *Charm) ingressConfig() traefikroute.Config {
	unitName := strings.ReplaceAll(c.top.Unit, "/", "-")
	externalPath := fmt.Sprintf("/%s-%s", c.top.Model, c.top.Application)

	routerName := fmt.Sprintf("juju-%s-%s-router", c.top.Model, c.top.Application)
	serviceName := fmt.Sprintf("juju-%s-%s-service", c.top.Model, c.top.Application)

	serverURL := fmt.Sprintf("http://%s.%s-endpoints.%s.%s:%d/",
		unitName, c.top.Application, c.top.Model, c.clusterDomain(), constants.WorkloadPort)

	return traefikroute.Config{
		HTTP: traefikroute.HTTPConfig{
			Routers: map[string]traefikroute.Router{
				routerName: {
					EntryPoints: []string{"web"},
					Rule:        fmt.Sprintf("PathPrefix(`%s`)", externalPath),
					Service:     serviceName,
				},
			},
			Services: map[string]traefikroute.Service{
				serviceName: {
					LoadBalancer: traefikroute.LoadBalancer{
						Servers: []traefikroute.Server{{URL: serverURL}},
					},
				},
			},
		},
	}
}

// clusterDomain extracts the cluster domain suffix from the pod FQDN
// ("<unit>.<app>-endpoints.<model>.<domain>").
func (c *Charm) clusterDomain() string {
	marker := fmt.Sprintf(".%s.", c.top.Model)
	if i := strings.Index(c.fqdn, marker); i >= 0 {
		if domain := c.fqdn[i+len(marker):]; domain != "" {
			return domain
		}
	}
	return defaultClusterDomain
}

// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package constants

const (
	// CharmName is the name of the charmed application and of its sole
	// workload container and pebble service.
	CharmName = "foxglove-studio"

	// WorkloadPort is the port the file server listens on inside the pod.
	WorkloadPort = 8080

	// ServerPortConfigKey is the charm config option holding the listen port.
	ServerPortConfigKey = "server-port"

	// Relation endpoint names.
	IngressRelationName   = "ingress"
	CatalogueRelationName = "catalogue"
	ProbesRelationName    = "probes"
	LoggingRelationName   = "logging"
	TracingRelationName   = "tracing"
)

// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

// Package pebble holds the declarative service-layer model pushed to the
// container supervisor, and a client for its API.
package pebble

import (
	"github.com/google/go-cmp/cmp"
)

// Layer is a declarative description of the services the supervisor should
// run. Layers are YAML on the wire.
type Layer struct {
	Summary     string             `yaml:"summary,omitempty"`
	Description string             `yaml:"description,omitempty"`
	Services    map[string]Service `yaml:"services,omitempty"`
}

// Service is one supervised process.
type Service struct {
	Override    string            `yaml:"override,omitempty"`
	Summary     string            `yaml:"summary,omitempty"`
	Command     string            `yaml:"command,omitempty"`
	Startup     string            `yaml:"startup,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
}

// Plan is the effective configuration currently applied by the supervisor.
type Plan struct {
	Services map[string]Service `yaml:"services,omitempty"`
}

// ServicesEqual reports whether two service sections describe the same
// processes. The caller restarts only on a difference.
func ServicesEqual(a, b map[string]Service) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return cmp.Equal(a, b)
}

// Client is the charm's access to the container supervisor.
type Client interface {
	// CanConnect reports whether the supervisor is up and reachable.
	CanConnect() bool

	// Plan returns the currently applied configuration.
	Plan() (Plan, error)

	// AddLayer merges a layer into the plan under the given label.
	AddLayer(label string, layer Layer) error

	// Restart restarts the named services.
	Restart(services ...string) error
}

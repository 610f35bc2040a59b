// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

// Package topology identifies the deployed workload within its model. The
// identifier it derives is used as a namespace prefix by data published to
// shared monitoring backends.
package topology

import (
	"fmt"
	"strings"

	env "github.com/Netflix/go-env"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Topology is the identifying metadata of the running workload.
type Topology struct {
	Model       string `env:"JUJU_MODEL_NAME"`
	ModelUUID   string `env:"JUJU_MODEL_UUID"`
	Application string
	Unit        string `env:"JUJU_UNIT_NAME"`
}

// FromEnvironment builds the topology from the environment Juju sets for
// every hook invocation. The application name is derived from the unit name.
func FromEnvironment() (Topology, error) {
	var top Topology
	if _, err := env.UnmarshalFromEnviron(&top); err != nil {
		return Topology{}, errors.Wrap(err, "reading topology from environment")
	}
	top.Application = applicationFromUnit(top.Unit)
	return top, top.Validate()
}

func applicationFromUnit(unit string) string {
	if i := strings.IndexByte(unit, '/'); i >= 0 {
		return unit[:i]
	}
	return unit
}

// Validate checks that all four topology fields are usable.
func (t Topology) Validate() error {
	if t.Model == "" || t.ModelUUID == "" || t.Application == "" || t.Unit == "" {
		return errors.Errorf("incomplete topology: model=%q model-uuid=%q application=%q unit=%q",
			t.Model, t.ModelUUID, t.Application, t.Unit)
	}
	if _, err := uuid.Parse(t.ModelUUID); err != nil {
		return errors.Wrapf(err, "invalid model uuid %q", t.ModelUUID)
	}
	return nil
}

// Identifier returns a deterministic string unique to this application in
// this model. The full model UUID is not needed for uniqueness in practice
// and would blow up job names, so only its first group is kept.
func (t Topology) Identifier() string {
	shortUUID := t.ModelUUID
	if i := strings.IndexByte(shortUUID, '-'); i >= 0 {
		shortUUID = shortUUID[:i]
	}
	return fmt.Sprintf("%s_%s_%s", t.Model, shortUUID, t.Application)
}

func (t Topology) String() string {
	return fmt.Sprintf("%s/%s", t.Model, t.Unit)
}

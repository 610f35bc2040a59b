// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvironment(t *testing.T) {
	t.Setenv("JUJU_MODEL_NAME", "mymodel")
	t.Setenv("JUJU_MODEL_UUID", "12345678-1234-5678-1234-567812345678")
	t.Setenv("JUJU_UNIT_NAME", "foxglove-studio/2")

	top, err := FromEnvironment()
	require.NoError(t, err)

	assert.Equal(t, "mymodel", top.Model)
	assert.Equal(t, "foxglove-studio", top.Application)
	assert.Equal(t, "foxglove-studio/2", top.Unit)
}

func TestFromEnvironmentIncomplete(t *testing.T) {
	t.Setenv("JUJU_MODEL_NAME", "mymodel")
	t.Setenv("JUJU_MODEL_UUID", "")
	t.Setenv("JUJU_UNIT_NAME", "foxglove-studio/0")

	_, err := FromEnvironment()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete topology")
}

func TestValidateRejectsBadUUID(t *testing.T) {
	top := Topology{
		Model:       "mymodel",
		ModelUUID:   "not-a-uuid",
		Application: "foxglove-studio",
		Unit:        "foxglove-studio/0",
	}

	err := top.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model uuid")
}

func TestIdentifier(t *testing.T) {
	top := Topology{
		Model:       "mymodel",
		ModelUUID:   "12345678-1234-5678-1234-567812345678",
		Application: "foxglove-studio",
		Unit:        "foxglove-studio/0",
	}

	assert.Equal(t, "mymodel_12345678_foxglove-studio", top.Identifier())
}

func TestString(t *testing.T) {
	top := Topology{Model: "mymodel", Unit: "foxglove-studio/0"}

	assert.Equal(t, "mymodel/foxglove-studio/0", top.String())
}

// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package logforward

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loggertypes "charmhub.io/foxglove-studio-k8s/internal/types/logger"
	"charmhub.io/foxglove-studio-k8s/internal/util/logger"
	"charmhub.io/foxglove-studio-k8s/pkg/relation"
)

func testLogger() logger.Logger {
	return logger.NewLogger(io.Discard, loggertypes.DefaultCharmLogging())
}

func TestEndpoints(t *testing.T) {
	backend := relation.NewMemBackend(true)
	backend.AddRelation("logging", 0)
	backend.AddRelation("logging", 1)
	backend.SetRemoteAppData(0, relation.Databag{
		"endpoints": `[{"url": "http://loki-0:3100/loki/api/v1/push"}, {"url": "http://loki-1:3100/loki/api/v1/push"}]`,
	})
	// relation 1 has not published yet

	c := NewConsumer(backend, testLogger(), "logging")
	urls, err := c.Endpoints()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"http://loki-0:3100/loki/api/v1/push",
		"http://loki-1:3100/loki/api/v1/push",
	}, urls)
	assert.Empty(t, c.Errors())
}

func TestEndpointsMalformedIsSoftError(t *testing.T) {
	backend := relation.NewMemBackend(true)
	backend.AddRelation("logging", 0)
	backend.AddRelation("logging", 1)
	backend.SetRemoteAppData(0, relation.Databag{"endpoints": "{not json"})
	backend.SetRemoteAppData(1, relation.Databag{"endpoints": `[{"url": "http://loki:3100/push"}]`})

	c := NewConsumer(backend, testLogger(), "logging")
	urls, err := c.Endpoints()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://loki:3100/push"}, urls)
	require.Len(t, c.Errors(), 1)
	assert.Contains(t, c.Errors()[0], "invalid log endpoints in relation 0")
}

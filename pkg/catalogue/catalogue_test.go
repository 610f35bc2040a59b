// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package catalogue

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

func TestPublish(t *testing.T) {
	backend := relation.NewMemBackend(true)
	backend.AddRelation("catalogue", 0)
	backend.AddRelation("catalogue", 1)

	c := NewConsumer(backend, testLogger(), "catalogue")
	err := c.Publish(Item{
		Name:        "Foxglove-studio",
		Icon:        "bar-chart",
		URL:         "http://traefik.example.com/mymodel-foxglove-studio",
		Description: "Foxglove Studio allows you to visualize robotics data",
	})
	require.NoError(t, err)

	for _, id := range []int{0, 1} {
		bag := backend.LocalAppData(id)
		assert.Equal(t, "Foxglove-studio", bag["name"])
		assert.Equal(t, "bar-chart", bag["icon"])
		assert.Equal(t, "http://traefik.example.com/mymodel-foxglove-studio", bag["url"])
	}
}

func TestPublishNonLeaderIsNoop(t *testing.T) {
	backend := relation.NewMemBackend(false)
	backend.AddRelation("catalogue", 0)

	c := NewConsumer(backend, testLogger(), "catalogue")
	require.NoError(t, c.Publish(Item{Name: "Foxglove-studio"}))
	assert.Empty(t, backend.LocalAppData(0))
}

func TestPublishWithoutRelations(t *testing.T) {
	c := NewConsumer(relation.NewMemBackend(true), testLogger(), "catalogue")

	assert.NoError(t, c.Publish(Item{Name: "Foxglove-studio"}))
}

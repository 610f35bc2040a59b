// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

// Package catalogue publishes this application's entry in the platform
// service catalogue. The publication is fire and forget: nothing is read
// back from the catalogue side.
package catalogue

import (
	"github.com/pkg/errors"

	"charmhub.io/foxglove-studio-k8s/internal/util/logger"
	"charmhub.io/foxglove-studio-k8s/pkg/relation"
)

// Item is one catalogue entry.
type Item struct {
	Name        string
	Icon        string
	URL         string
	Description string
}

// Consumer publishes a catalogue item on every catalogue relation.
type Consumer struct {
	backend      relation.Backend
	log          logger.Logger
	relationName string
}

func NewConsumer(backend relation.Backend, log logger.Logger, relationName string) *Consumer {
	return &Consumer{backend: backend, log: log, relationName: relationName}
}

// Publish writes the item to all catalogue relations. Only the leader
// writes; a missing relation is not an error.
func (c *Consumer) Publish(item Item) error {
	leader, err := c.backend.IsLeader()
	if err != nil {
		return errors.Wrap(err, "checking leadership")
	}
	if !leader {
		return nil
	}

	ids, err := c.backend.RelationIDs(c.relationName)
	if err != nil {
		return errors.Wrapf(err, "listing %q relations", c.relationName)
	}

	bag := relation.Databag{
		"name":        item.Name,
		"icon":        item.Icon,
		"url":         item.URL,
		"description": item.Description,
	}
	for _, id := range ids {
		if err := c.backend.WriteLocalAppData(c.relationName, id, bag); err != nil {
			return errors.Wrapf(err, "publishing catalogue item to relation %d", id)
		}
	}
	return nil
}

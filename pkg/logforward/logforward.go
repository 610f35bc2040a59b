// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

// Package logforward discovers log push endpoints from the logging relation.
// The charm only forwards them into the workload environment; shipping the
// logs is the collaborator's business.
package logforward

import (
	"encoding/json"
	"fmt"

	"charmhub.io/foxglove-studio-k8s/internal/util/logger"
	"charmhub.io/foxglove-studio-k8s/pkg/relation"
)

const keyEndpoints = "endpoints"

type endpoint struct {
	URL string `json:"url"`
}

// Consumer reads the log endpoints offered by related aggregators.
type Consumer struct {
	backend      relation.Backend
	log          logger.Logger
	relationName string
	errs         []string
}

func NewConsumer(backend relation.Backend, log logger.Logger, relationName string) *Consumer {
	return &Consumer{backend: backend, log: log, relationName: relationName}
}

// Endpoints returns the push URLs of every related log aggregator. A
// malformed databag on one relation is recorded as a soft error and that
// relation contributes nothing.
func (c *Consumer) Endpoints() ([]string, error) {
	ids, err := c.backend.RelationIDs(c.relationName)
	if err != nil {
		return nil, err
	}

	var urls []string
	var errs []string
	for _, id := range ids {
		bag, err := c.backend.RemoteAppData(c.relationName, id)
		if err != nil {
			errs = append(errs, fmt.Sprintf("cannot read relation %d: %v", id, err))
			continue
		}
		raw, ok := bag[keyEndpoints]
		if !ok {
			continue
		}

		var endpoints []endpoint
		if err := json.Unmarshal([]byte(raw), &endpoints); err != nil {
			c.log.Info("ignoring unusable log endpoints", "relation", id, "error", err.Error())
			errs = append(errs, fmt.Sprintf("invalid log endpoints in relation %d: %v", id, err))
			continue
		}
		for _, e := range endpoints {
			if e.URL != "" {
				urls = append(urls, e.URL)
			}
		}
	}

	c.errs = errs
	return urls, nil
}

// Errors returns the soft errors recorded by the last read.
func (c *Consumer) Errors() []string {
	return append([]string{}, c.errs...)
}

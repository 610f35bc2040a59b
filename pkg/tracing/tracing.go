// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

// Package tracing discovers trace ingestion endpoints from the tracing
// relation.
package tracing

import (
	"encoding/json"
	"fmt"

	"charmhub.io/foxglove-studio-k8s/internal/util/logger"
	"charmhub.io/foxglove-studio-k8s/pkg/relation"
)

const keyReceivers = "receivers"

// Receiver is one trace ingestion endpoint offered by a tracing backend.
type Receiver struct {
	Protocol string `json:"protocol"`
	URL      string `json:"url"`
}

// Consumer reads the receivers offered by the related tracing backend.
type Consumer struct {
	backend      relation.Backend
	log          logger.Logger
	relationName string
	errs         []string
}

func NewConsumer(backend relation.Backend, log logger.Logger, relationName string) *Consumer {
	return &Consumer{backend: backend, log: log, relationName: relationName}
}

// Endpoint returns the receiver URL for the given protocol, or "" when no
// related backend offers it.
func (c *Consumer) Endpoint(protocol string) (string, error) {
	receivers, err := c.receivers()
	if err != nil {
		return "", err
	}
	for _, r := range receivers {
		if r.Protocol == protocol {
			return r.URL, nil
		}
	}
	return "", nil
}

func (c *Consumer) receivers() ([]Receiver, error) {
	ids, err := c.backend.RelationIDs(c.relationName)
	if err != nil {
		return nil, err
	}

	var all []Receiver
	var errs []string
	for _, id := range ids {
		bag, err := c.backend.RemoteAppData(c.relationName, id)
		if err != nil {
			errs = append(errs, fmt.Sprintf("cannot read relation %d: %v", id, err))
			continue
		}
		raw, ok := bag[keyReceivers]
		if !ok {
			continue
		}

		var receivers []Receiver
		if err := json.Unmarshal([]byte(raw), &receivers); err != nil {
			c.log.Info("ignoring unusable trace receivers", "relation", id, "error", err.Error())
			errs = append(errs, fmt.Sprintf("invalid trace receivers in relation %d: %v", id, err))
			continue
		}
		all = append(all, receivers...)
	}

	c.errs = errs
	return all, nil
}

// Errors returns the soft errors recorded by the last read.
func (c *Consumer) Errors() []string {
	return append([]string{}, c.errs...)
}

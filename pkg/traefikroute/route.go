// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

// Package traefikroute is the requirer side of the raw reverse-proxy routing
// interface: the charm submits routing rules and learns its external host
// from the proxy.
package traefikroute

import (
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"charmhub.io/foxglove-studio-k8s/internal/util/logger"
	"charmhub.io/foxglove-studio-k8s/pkg/relation"
)

// Databag keys of the traefik-route interface.
const (
	keyConfig       = "config"
	keyExternalHost = "external_host"
	keyScheme       = "scheme"
)

// Config is the raw routing configuration handed to the proxy.
type Config struct {
	HTTP HTTPConfig `yaml:"http"`
}

type HTTPConfig struct {
	Routers  map[string]Router  `yaml:"routers"`
	Services map[string]Service `yaml:"services"`
}

type Router struct {
	EntryPoints []string `yaml:"entryPoints"`
	Rule        string   `yaml:"rule"`
	Service     string   `yaml:"service"`
}

type Service struct {
	LoadBalancer LoadBalancer `yaml:"loadBalancer"`
}

type LoadBalancer struct {
	Servers []Server `yaml:"servers"`
}

type Server struct {
	URL string `yaml:"url"`
}

// Requirer submits routing rules over a single route relation.
type Requirer struct {
	backend      relation.Backend
	log          logger.Logger
	relationName string
}

func NewRequirer(backend relation.Backend, log logger.Logger, relationName string) *Requirer {
	return &Requirer{backend: backend, log: log, relationName: relationName}
}

func (r *Requirer) relationID() (int, bool, error) {
	ids, err := r.backend.RelationIDs(r.relationName)
	if err != nil {
		return 0, false, errors.Wrapf(err, "listing %q relations", r.relationName)
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

// IsReady reports whether a route relation exists.
func (r *Requirer) IsReady() bool {
	_, ok, err := r.relationID()
	return err == nil && ok
}

// ExternalHost returns the externally reachable host the proxy advertises,
// or "" when the proxy has not published one yet.
func (r *Requirer) ExternalHost() string {
	id, ok, err := r.relationID()
	if err != nil || !ok {
		return ""
	}
	bag, err := r.backend.RemoteAppData(r.relationName, id)
	if err != nil {
		r.log.Info("cannot read route relation data", "error", err.Error())
		return ""
	}
	return bag[keyExternalHost]
}

// Scheme returns the scheme the proxy serves on, defaulting to http.
func (r *Requirer) Scheme() string {
	id, ok, err := r.relationID()
	if err != nil || !ok {
		return "http"
	}
	bag, err := r.backend.RemoteAppData(r.relationName, id)
	if err != nil || bag[keyScheme] == "" {
		return "http"
	}
	return bag[keyScheme]
}

// Submit publishes the routing configuration to the proxy. Only the leader
// writes. The configuration is YAML on the wire.
func (r *Requirer) Submit(cfg Config) error {
	leader, err := r.backend.IsLeader()
	if err != nil {
		return errors.Wrap(err, "checking leadership")
	}
	if !leader {
		return nil
	}

	id, ok, err := r.relationID()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no %q relation to submit to", r.relationName)
	}

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encoding route config")
	}

	err = r.backend.WriteLocalAppData(r.relationName, id, relation.Databag{keyConfig: string(raw)})
	if err != nil {
		return errors.Wrapf(err, "submitting route config to relation %d", id)
	}
	r.log.Info("submitted route config", "relation", id)
	return nil
}

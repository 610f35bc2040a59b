// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

// Package charm is the Foxglove Studio charm: reactive glue that recomputes
// declarative configuration on every lifecycle event and pushes it to the
// container supervisor, the ingress proxy, the catalogue and the monitoring
// backend.
package charm

import (
	"fmt"
	"net"
	"os"
	"strings"

	"charmhub.io/foxglove-studio-k8s/internal/constants"
	"charmhub.io/foxglove-studio-k8s/internal/hook"
	"charmhub.io/foxglove-studio-k8s/internal/util/logger"
	"charmhub.io/foxglove-studio-k8s/pkg/catalogue"
	"charmhub.io/foxglove-studio-k8s/pkg/logforward"
	"charmhub.io/foxglove-studio-k8s/pkg/pebble"
	"charmhub.io/foxglove-studio-k8s/pkg/probes"
	"charmhub.io/foxglove-studio-k8s/pkg/relation"
	"charmhub.io/foxglove-studio-k8s/pkg/status"
	"charmhub.io/foxglove-studio-k8s/pkg/topology"
	"charmhub.io/foxglove-studio-k8s/pkg/traefikroute"
	"charmhub.io/foxglove-studio-k8s/pkg/tracing"
)

// HookTool is the slice of the runtime the charm needs.
type HookTool interface {
	relation.Backend
	ConfigGet() (map[string]interface{}, error)
	StatusSet(st status.Status) error
	OpenedPorts() ([]string, error)
	OpenPort(port string) error
	ClosePort(port string) error
}

// Charm wires the Foxglove Studio workload to its collaborators.
type Charm struct {
	name string
	tool HookTool
	pbl  pebble.Client
	top  topology.Topology
	log  logger.Logger
	fqdn string

	dispatcher *hook.Dispatcher
	ingress    *traefikroute.Requirer
	catalogue  *catalogue.Consumer
	provider   *probes.Provider
	logfwd     *logforward.Consumer
	tracing    *tracing.Consumer

	configError string
}

type Option func(*Charm)

// WithFQDN overrides the pod FQDN discovery, for tests.
func WithFQDN(fqdn string) Option {
	return func(c *Charm) { c.fqdn = fqdn }
}

// New assembles the charm and registers its event handlers.
func New(tool HookTool, pbl pebble.Client, top topology.Topology, log logger.Logger, opts ...Option) (*Charm, error) {
	c := &Charm{
		name:       constants.CharmName,
		tool:       tool,
		pbl:        pbl,
		top:        top,
		log:        log.WithName("charm"),
		dispatcher: hook.NewDispatcher(log),
		ingress:    traefikroute.NewRequirer(tool, log, constants.IngressRelationName),
		catalogue:  catalogue.NewConsumer(tool, log, constants.CatalogueRelationName),
		logfwd:     logforward.NewConsumer(tool, log, constants.LoggingRelationName),
		tracing:    tracing.NewConsumer(tool, log, constants.TracingRelationName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fqdn == "" {
		c.fqdn = defaultFQDN()
	}

	provider, err := probes.NewProvider(tool, log, top, c.selfProbes(), nil,
		probes.WithContainers(c.name))
	if err != nil {
		return nil, err
	}
	c.provider = provider

	c.registerHandlers()
	return c, nil
}

func (c *Charm) registerHandlers() {
	d := c.dispatcher

	d.Register("install", c.onInstall)
	d.Register("upgrade-charm", c.onUpgrade)
	d.Register("config-changed", c.onConfigChanged)
	d.Register("leader-elected", c.onLeaderElected)
	d.Register(fmt.Sprintf("%s-pebble-ready", c.name), c.onPebbleReady)

	for _, event := range []string{
		constants.IngressRelationName + "-relation-joined",
		constants.IngressRelationName + "-relation-changed",
	} {
		d.Register(event, c.onIngressRelation)
	}
	d.Register(constants.IngressRelationName+"-relation-broken", c.onIngressBroken)

	for _, event := range []string{
		constants.ProbesRelationName + "-relation-joined",
		constants.ProbesRelationName + "-relation-changed",
	} {
		d.Register(event, c.onProbesRelation)
	}
	d.RegisterAll(c.provider.RefreshEvents(), c.onProbesRelation)
	// configuration changes can alter the published probes
	d.Register("config-changed", c.onProbesRelation)

	for _, event := range []string{
		constants.CatalogueRelationName + "-relation-joined",
		constants.CatalogueRelationName + "-relation-changed",
	} {
		d.Register(event, c.onCatalogueRelation)
	}

	for _, endpoint := range []string{constants.LoggingRelationName, constants.TracingRelationName} {
		for _, suffix := range []string{"-relation-changed", "-relation-broken"} {
			d.Register(endpoint+suffix, c.onTelemetryRelation)
		}
	}
}

// Run handles a single lifecycle event to completion.
func (c *Charm) Run(ev hook.Event) error {
	return c.dispatcher.Dispatch(ev)
}

func (c *Charm) onInstall(hook.Event) error {
	return c.syncPorts()
}

func (c *Charm) onUpgrade(hook.Event) error {
	if err := c.syncPorts(); err != nil {
		return err
	}
	return c.updateLayerAndRestart()
}

func (c *Charm) onConfigChanged(hook.Event) error {
	cfg, err := loadConfig(c.tool)
	if err != nil {
		return err
	}

	if cfg.ServerPort == 22 {
		c.configError = "invalid port number, 22 is reserved for SSH"
		c.setStatus(status.Blocked(c.configError))
		return nil
	}
	c.configError = ""
	c.log.V(1).Info("new application port requested", "port", cfg.ServerPort)

	if err := c.updateLayerAndRestart(); err != nil {
		return err
	}
	if err := c.configureIngress(); err != nil {
		return err
	}
	return c.publishCatalogue()
}

func (c *Charm) onLeaderElected(hook.Event) error {
	if err := c.syncPorts(); err != nil {
		return err
	}
	return c.configureIngress()
}

func (c *Charm) onPebbleReady(hook.Event) error {
	return c.updateLayerAndRestart()
}

func (c *Charm) onIngressRelation(hook.Event) error {
	if err := c.configureIngress(); err != nil {
		return err
	}
	// the external URL may have changed with the route
	return c.publishCatalogue()
}

func (c *Charm) onIngressBroken(hook.Event) error {
	return c.publishCatalogue()
}

func (c *Charm) onProbesRelation(hook.Event) error {
	if err := c.provider.Publish(); err != nil {
		return err
	}
	c.setStatus(c.computeStatus())
	return nil
}

func (c *Charm) onCatalogueRelation(hook.Event) error {
	return c.publishCatalogue()
}

func (c *Charm) onTelemetryRelation(hook.Event) error {
	return c.updateLayerAndRestart()
}

// configureIngress submits the routing rules whenever a route relation is
// up; leadership is checked by the requirer.
func (c *Charm) configureIngress() error {
	if !c.ingress.IsReady() {
		return nil
	}
	if err := c.updateLayerAndRestart(); err != nil {
		return err
	}
	return c.ingress.Submit(c.ingressConfig())
}

func (c *Charm) publishCatalogue() error {
	return c.catalogue.Publish(catalogue.Item{
		Name:        "Foxglove-studio",
		Icon:        "bar-chart",
		URL:         c.externalURL(),
		Description: "Foxglove Studio allows you to visualize robotics data",
	})
}

// selfProbes is the probe set this charm publishes about itself: a plain
// HTTP 2xx check against the workload.
func (c *Charm) selfProbes() []probes.ProbeJob {
	return []probes.ProbeJob{{
		Params: map[string][]string{"module": {"http_2xx"}},
		StaticConfigs: []probes.StaticConfig{{
			Targets: []string{c.internalURL()},
		}},
	}}
}

func (c *Charm) scheme() string {
	return "http"
}

// internalURL is the workload's in-cluster URL, used for ingress and
// self-probing.
func (c *Charm) internalURL() string {
	return fmt.Sprintf("%s://%s:%d", c.scheme(), c.fqdn, constants.WorkloadPort)
}

// externalURL is the externally reachable URL when routed, else the internal
// one.
func (c *Charm) externalURL() string {
	if host := c.ingress.ExternalHost(); host != "" {
		return fmt.Sprintf("%s://%s/%s-%s", c.scheme(), host, c.top.Model, c.top.Application)
	}
	return c.internalURL()
}

func (c *Charm) setStatus(st status.Status) {
	if err := c.tool.StatusSet(st); err != nil {
		c.log.Error(err, "cannot set unit status", "status", st.String())
	}
}

func (c *Charm) computeStatus() status.Status {
	if c.configError != "" {
		return status.Blocked(c.configError)
	}
	if !c.pbl.CanConnect() {
		return status.Waiting("waiting for supervisor in workload container")
	}
	if st := c.provider.Status(); st.Kind != status.KindActive {
		return st
	}
	return status.Active("")
}

// defaultFQDN resolves the pod's fully qualified domain name, falling back
// to the bare hostname when reverse resolution is unavailable.
func defaultFQDN() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	addrs, err := net.LookupHost(hostname)
	if err != nil || len(addrs) == 0 {
		return hostname
	}
	names, err := net.LookupAddr(addrs[0])
	if err != nil || len(names) == 0 {
		return hostname
	}
	return strings.TrimSuffix(names[0], ".")
}

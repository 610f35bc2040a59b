// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package probes

import (
	"fmt"
	"strings"

	"github.com/mitchellh/copystructure"
	"github.com/pkg/errors"

	"charmhub.io/foxglove-studio-k8s/internal/metrics"
	"charmhub.io/foxglove-studio-k8s/internal/util/logger"
	"charmhub.io/foxglove-studio-k8s/pkg/relation"
	"charmhub.io/foxglove-studio-k8s/pkg/status"
	"charmhub.io/foxglove-studio-k8s/pkg/topology"
)

// DefaultRelationName is the recommended endpoint name for the probes
// interface on both sides.
const DefaultRelationName = "probes"

const namespacePrefix = "juju"

// Provider publishes this application's probes and custom modules to every
// related monitoring backend. Job and module names are namespaced with the
// topology identifier at construction time, so that applications sharing one
// backend can never collide.
type Provider struct {
	backend      relation.Backend
	log          logger.Logger
	topology     topology.Topology
	relationName string
	containers   []string
	extraEvents  []string

	probes  []ProbeJob
	modules map[string]Module
	errs    []string
}

type ProviderOption func(*Provider)

// WithRelationName overrides the endpoint the probes are published on. It is
// recommended to keep the default for consistency across applications.
func WithRelationName(name string) ProviderOption {
	return func(p *Provider) { p.relationName = name }
}

// WithContainers names the workload containers the charm manages; with
// exactly one, its readiness event becomes a default refresh trigger.
func WithContainers(names ...string) ProviderOption {
	return func(p *Provider) { p.containers = names }
}

// WithRefreshEvents adds extra events on which the caller will republish.
func WithRefreshEvents(events ...string) ProviderOption {
	return func(p *Provider) { p.extraEvents = events }
}

// NewProvider builds a provider for the given probes and custom modules.
// Inputs are deep-copied: repeated refreshes must not observe each other's
// rewrites, and publishing the same logical input twice must produce
// byte-identical exchange content.
func NewProvider(backend relation.Backend, log logger.Logger, top topology.Topology,
	probes []ProbeJob, modules map[string]Module, opts ...ProviderOption) (*Provider, error) {

	copied, err := copystructure.Copy(probes)
	if err != nil {
		return nil, errors.Wrap(err, "copying probes")
	}
	probes, _ = copied.([]ProbeJob)

	copiedModules := map[string]Module{}
	if modules != nil {
		copied, err = copystructure.Copy(modules)
		if err != nil {
			return nil, errors.Wrap(err, "copying modules")
		}
		copiedModules, _ = copied.(map[string]Module)
	}

	p := &Provider{
		backend:      backend,
		log:          log,
		topology:     top,
		relationName: DefaultRelationName,
		probes:       probes,
		modules:      copiedModules,
	}
	for _, opt := range opts {
		opt(p)
	}

	prefix := fmt.Sprintf("%s_%s", namespacePrefix, top.Identifier())
	p.prefixProbes(prefix)
	p.prefixModules(prefix)

	return p, nil
}

// prefixProbes namespaces every job name and rewrites module references that
// point at this provider's own custom modules. References to modules the
// provider does not define are assumed to name modules the backend already
// knows (the exporter's built-ins) and are left verbatim.
func (p *Provider) prefixProbes(prefix string) {
	for i := range p.probes {
		job := &p.probes[i]
		job.JobName = joinNonEmpty(prefix, job.JobName)

		for j, name := range job.Params[moduleParam] {
			if _, ours := p.modules[name]; ours {
				job.Params[moduleParam][j] = fmt.Sprintf("%s_%s", prefix, name)
			}
		}
	}
}

func (p *Provider) prefixModules(prefix string) {
	prefixed := make(map[string]Module, len(p.modules))
	for name, module := range p.modules {
		prefixed[fmt.Sprintf("%s_%s", prefix, name)] = module
	}
	p.modules = prefixed
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "_")
}

// RefreshEvents returns the events on which the probes should be
// republished: any caller-supplied extras, the readiness event of the sole
// workload container if there is exactly one, and always the
// leadership-change event so new leaders publish promptly.
func (p *Provider) RefreshEvents() []string {
	events := append([]string{}, p.extraEvents...)
	if len(p.extraEvents) == 0 && len(p.containers) == 1 {
		events = append(events, fmt.Sprintf("%s-pebble-ready", p.containers[0]))
	}
	return append(events, "leader-elected")
}

// Publish writes the namespaced probes to every relation on the endpoint.
// Only the elected leader writes; non-leaders return immediately. A write
// refused because the relation is concurrently going away, or a record that
// fails schema validation, is recorded as a soft error for that relation and
// skipped. Any other failure aborts the event.
func (p *Provider) Publish() error {
	leader, err := p.backend.IsLeader()
	if err != nil {
		return errors.Wrap(err, "checking leadership")
	}
	if !leader {
		return nil
	}

	ids, err := p.backend.RelationIDs(p.relationName)
	if err != nil {
		return errors.Wrapf(err, "listing %q relations", p.relationName)
	}

	record := &ExchangeRecord{
		Metadata: MetadataFromTopology(p.topology),
		Probes:   p.probes,
		Modules:  p.modules,
	}

	var errs []string
	for _, id := range ids {
		if err := record.Validate(); err != nil {
			msg := fmt.Sprintf("invalid probes provided in relation %d: %v", id, err)
			p.log.Info("skipping publication of invalid probes", "relation", id, "error", err.Error())
			errs = append(errs, msg)
			metrics.ProbePublishTotal.WithLabelValues(metrics.ResultInvalid).Inc()
			continue
		}

		bag, err := record.EncodeDatabag()
		if err != nil {
			return errors.Wrapf(err, "encoding probes for relation %d", id)
		}

		if err := p.backend.WriteLocalAppData(p.relationName, id, bag); err != nil {
			if errors.Is(err, relation.ErrPermissionDenied) {
				msg := fmt.Sprintf("cannot write probes to relation %d: %v; the relation must be gone", id, err)
				p.log.Info("relation went away during publish", "relation", id)
				errs = append(errs, msg)
				metrics.ProbePublishTotal.WithLabelValues(metrics.ResultDenied).Inc()
				continue
			}
			return errors.Wrapf(err, "writing probes to relation %d", id)
		}
		metrics.ProbePublishTotal.WithLabelValues(metrics.ResultOK).Inc()
	}

	p.errs = errs
	return nil
}

// Errors returns the soft errors recorded by the last publish attempt.
func (p *Provider) Errors() []string {
	return append([]string{}, p.errs...)
}

// Status reflects the last publish attempt.
func (p *Provider) Status() status.Status {
	if len(p.errs) > 0 {
		return status.Blocked(fmt.Sprintf("errors occurred in probe configuration: %s", strings.Join(p.errs, "; ")))
	}
	return status.Active("")
}

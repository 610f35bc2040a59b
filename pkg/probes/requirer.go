// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package probes

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"charmhub.io/foxglove-studio-k8s/internal/metrics"
	"charmhub.io/foxglove-studio-k8s/internal/util/logger"
	"charmhub.io/foxglove-studio-k8s/pkg/relation"
	"charmhub.io/foxglove-studio-k8s/pkg/status"
)

// TargetsChangedFunc is notified when the set of related providers changes.
// It receives the triggering relation ID and no payload: callers are expected
// to pull fresh data through Probes and Modules.
type TargetsChangedFunc func(relationID int)

// Requirer aggregates the probes and modules published by every related
// provider. The merged result is cached and lazily recomputed: relation
// membership changes only flip invalidation flags, the next read does the
// work.
type Requirer struct {
	backend      relation.Backend
	log          logger.Logger
	relationName string

	probes        []ProbeJob
	modules       *orderedmap.OrderedMap[string, Module]
	probeErrs     []string
	moduleErrs    []string
	probesStale   bool
	modulesStale  bool
	onTargetsFunc []TargetsChangedFunc
}

type RequirerOption func(*Requirer)

// WithRequirerRelationName overrides the endpoint the requirer watches.
func WithRequirerRelationName(name string) RequirerOption {
	return func(r *Requirer) { r.relationName = name }
}

// NewRequirer builds a requirer on the default "probes" endpoint. The cache
// starts invalidated so the first read always hits the relations.
func NewRequirer(backend relation.Backend, log logger.Logger, opts ...RequirerOption) *Requirer {
	r := &Requirer{
		backend:      backend,
		log:          log,
		relationName: DefaultRelationName,
		modules:      orderedmap.New[string, Module](),
		probesStale:  true,
		modulesStale: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RelationName returns the endpoint this requirer watches.
func (r *Requirer) RelationName() string {
	return r.relationName
}

// OnTargetsChanged registers a callback fired on every membership change.
func (r *Requirer) OnTargetsChanged(fn TargetsChangedFunc) {
	r.onTargetsFunc = append(r.onTargetsFunc, fn)
}

// HandleRelationChanged invalidates the caches and notifies the owner. It is
// wired to the endpoint's relation-joined and relation-changed events.
func (r *Requirer) HandleRelationChanged(relationID int) {
	r.invalidate(relationID)
}

// HandleRelationDeparted invalidates the caches and notifies the owner, so
// that a departed provider's probes drop out of the merged view.
func (r *Requirer) HandleRelationDeparted(relationID int) {
	r.invalidate(relationID)
}

func (r *Requirer) invalidate(relationID int) {
	r.probesStale = true
	r.modulesStale = true
	for _, fn := range r.onTargetsFunc {
		fn(relationID)
	}
}

// Probes returns the merged probes of all related providers, recomputing
// only when invalidated. Every returned job carries a job_name suffixed with
// the content hash of its full serialized form, which makes names globally
// unique and turns an unchanged republication into a no-op.
func (r *Requirer) Probes() ([]ProbeJob, error) {
	if r.probesStale {
		if err := r.updateProbes(); err != nil {
			return nil, err
		}
	}
	return append([]ProbeJob{}, r.probes...), nil
}

func (r *Requirer) updateProbes() error {
	ids, err := r.backend.RelationIDs(r.relationName)
	if err != nil {
		return err
	}

	var merged []ProbeJob
	var errs []string
	seen := make(map[string]bool)

	for _, id := range ids {
		record, ok := r.decodeRelation(id, &errs)
		if !ok {
			continue
		}
		for _, job := range record.Probes {
			hash, err := hashJob(job)
			if err != nil {
				errs = append(errs, fmt.Sprintf("invalid probes provided in relation %d: %v", id, err))
				continue
			}
			if seen[hash] {
				continue
			}
			seen[hash] = true
			job.JobName = fmt.Sprintf("%s_%s", job.JobName, hash)
			merged = append(merged, job)
		}
	}

	r.probes = merged
	r.probeErrs = errs
	r.probesStale = false
	metrics.ProbeMergeTotal.Inc()
	return nil
}

// Modules returns the union of all related providers' custom modules. With
// per-provider namespacing two providers can only collide when one of them
// misbehaves, so a collision is kept as a soft error and the first
// definition wins rather than silently repointing probes at foreign prober
// settings.
func (r *Requirer) Modules() (map[string]Module, error) {
	if r.modulesStale {
		if err := r.updateModules(); err != nil {
			return nil, err
		}
	}

	out := make(map[string]Module, r.modules.Len())
	for pair := r.modules.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out, nil
}

func (r *Requirer) updateModules() error {
	ids, err := r.backend.RelationIDs(r.relationName)
	if err != nil {
		return err
	}

	merged := orderedmap.New[string, Module]()
	var errs []string

	for _, id := range ids {
		record, ok := r.decodeRelation(id, &errs)
		if !ok {
			continue
		}
		for _, name := range sortedModuleNames(record.Modules) {
			if _, exists := merged.Get(name); exists {
				errs = append(errs, fmt.Sprintf("duplicate module %q provided in relation %d", name, id))
				metrics.SoftErrorTotal.WithLabelValues("modules").Inc()
				continue
			}
			merged.Set(name, record.Modules[name])
		}
	}

	r.modules = merged
	r.moduleErrs = errs
	r.modulesStale = false
	return nil
}

// decodeRelation reads and decodes one relation's databag. Failures are
// recorded as soft errors on errs and never abort the other relations; an
// empty databag simply contributes nothing.
func (r *Requirer) decodeRelation(id int, errs *[]string) (*ExchangeRecord, bool) {
	bag, err := r.backend.RemoteAppData(r.relationName, id)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("cannot read relation %d: %v", id, err))
		metrics.SoftErrorTotal.WithLabelValues("probes").Inc()
		return nil, false
	}
	if len(bag) == 0 {
		return nil, false
	}

	record, err := DecodeDatabag(bag)
	if err != nil {
		r.log.Info("ignoring unusable probes data", "relation", id, "error", err.Error())
		*errs = append(*errs, fmt.Sprintf("invalid probes provided in relation %d: %v", id, err))
		metrics.SoftErrorTotal.WithLabelValues("probes").Inc()
		return nil, false
	}
	return record, true
}

// Errors returns the soft errors recorded by the last recomputations.
func (r *Requirer) Errors() []string {
	errs := append([]string{}, r.probeErrs...)
	return append(errs, r.moduleErrs...)
}

// Status reflects the aggregator state: errors win over pending updates.
func (r *Requirer) Status() status.Status {
	if errs := r.Errors(); len(errs) > 0 {
		return status.Blocked(fmt.Sprintf("errors occurred in probe configuration: %s", strings.Join(errs, "; ")))
	}
	if r.probesStale || r.modulesStale {
		return status.Waiting("probes are being updated")
	}
	return status.Active("")
}

// hashJob computes the content hash of a job's canonical JSON encoding.
// Encoding sorts object keys, so byte-identical content means identical
// probes regardless of the order providers assembled them in.
func hashJob(job ProbeJob) (string, error) {
	raw, err := json.Marshal(job)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func sortedModuleNames(modules map[string]Module) []string {
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

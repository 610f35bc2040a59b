// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package probes

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"charmhub.io/foxglove-studio-k8s/pkg/topology"
)

// probe exchange schema. A probe is a prometheus-style scrape job pointing at
// a blackbox exporter module; the supported subset of the upstream
// scrape-config format is job_name, metrics_path, params and static_configs.
// Unknown fields are carried through unchanged so that older requirers keep
// working against newer providers and vice versa.

// StaticConfig is one scrape target group.
type StaticConfig struct {
	Targets []string          `json:"targets" validate:"required,min=1,dive,required"`
	Labels  map[string]string `json:"labels,omitempty"`

	// Extra holds fields this schema version does not know about.
	Extra map[string]json.RawMessage `json:"-"`
}

// ProbeJob is one scrape job.
type ProbeJob struct {
	JobName       string              `json:"job_name,omitempty"`
	MetricsPath   string              `json:"metrics_path,omitempty"`
	Params        map[string][]string `json:"params" validate:"required"`
	StaticConfigs []StaticConfig      `json:"static_configs" validate:"required,min=1,dive"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Modules returns the module names the job's params reference.
func (j ProbeJob) Modules() []string {
	return j.Params[moduleParam]
}

// Module is a custom blackbox probing module definition. Everything beyond
// the prober is prober-specific and opaque to this schema.
type Module struct {
	Prober string `json:"prober" validate:"required"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Metadata is the topology of the publishing application as transmitted on
// the wire.
type Metadata struct {
	Model       string `json:"model" validate:"required"`
	ModelUUID   string `json:"model_uuid" validate:"required"`
	Application string `json:"application" validate:"required"`
	Unit        string `json:"unit" validate:"required"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (m Metadata) isZero() bool {
	return m.Model == "" && m.ModelUUID == "" && m.Application == "" && m.Unit == "" && len(m.Extra) == 0
}

// MetadataFromTopology converts the local topology to its wire form.
func MetadataFromTopology(t topology.Topology) Metadata {
	return Metadata{
		Model:       t.Model,
		ModelUUID:   t.ModelUUID,
		Application: t.Application,
		Unit:        t.Unit,
	}
}

// ExchangeRecord is the full payload one provider publishes on a relation.
type ExchangeRecord struct {
	Metadata Metadata          `json:"scrape_metadata"`
	Probes   []ProbeJob        `json:"scrape_probes" validate:"dive"`
	Modules  map[string]Module `json:"scrape_modules,omitempty" validate:"dive"`
}

const moduleParam = "module"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateProbeJob, ProbeJob{})
	return v
}

// validateProbeJob enforces the rules struct tags cannot express: params must
// carry a non-empty module list.
func validateProbeJob(sl validator.StructLevel) {
	job := sl.Current().Interface().(ProbeJob)

	modules := job.Params[moduleParam]
	if len(modules) == 0 {
		sl.ReportError(job.Params, "Params", "params", "module", "")
		return
	}
	for _, name := range modules {
		if name == "" {
			sl.ReportError(job.Params, "Params", "params", "module", "")
			return
		}
	}
}

// Validate checks the record against the schema. Job names must be unique
// within the record: one provider publishing two jobs under the same name
// would make the merged scrape config ambiguous.
func (r *ExchangeRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		return &DataValidationError{cause: err}
	}

	seen := make(map[string]bool, len(r.Probes))
	for _, job := range r.Probes {
		if job.JobName == "" {
			continue
		}
		if seen[job.JobName] {
			return &DataValidationError{cause: fmt.Errorf("duplicate job_name %q", job.JobName)}
		}
		seen[job.JobName] = true
	}
	return nil
}

// DataValidationError reports malformed or schema-invalid exchange data.
type DataValidationError struct {
	cause error
}

func (e *DataValidationError) Error() string {
	return fmt.Sprintf("invalid probes data: %v", e.cause)
}

func (e *DataValidationError) Unwrap() error {
	return e.cause
}

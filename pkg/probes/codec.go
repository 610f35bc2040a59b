// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package probes

import (
	"encoding/json"

	"charmhub.io/foxglove-studio-k8s/pkg/relation"
)

// Databag keys recognized by this schema version. Anything else found in the
// exchange medium is left alone.
const (
	keyScrapeMetadata = "scrape_metadata"
	keyScrapeProbes   = "scrape_probes"
	keyScrapeModules  = "scrape_modules"
)

// EncodeDatabag serializes the record into a fresh databag. Each top-level
// field is JSON-encoded under its own key; fields holding their default value
// are omitted so that older readers never see keys they cannot handle and the
// payload stays minimal. Map keys are emitted in sorted order, so encoding
// the same logical record always yields byte-identical content.
func (r *ExchangeRecord) EncodeDatabag() (relation.Databag, error) {
	bag := relation.Databag{}

	if !r.Metadata.isZero() {
		raw, err := json.Marshal(r.Metadata)
		if err != nil {
			return nil, err
		}
		bag[keyScrapeMetadata] = string(raw)
	}

	if len(r.Probes) > 0 {
		raw, err := json.Marshal(r.Probes)
		if err != nil {
			return nil, err
		}
		bag[keyScrapeProbes] = string(raw)
	}

	if len(r.Modules) > 0 {
		raw, err := json.Marshal(r.Modules)
		if err != nil {
			return nil, err
		}
		bag[keyScrapeModules] = string(raw)
	}

	return bag, nil
}

// DecodeDatabag parses and validates a databag published by a provider. Only
// recognized keys are parsed; unknown keys are ignored. On any parse or
// validation failure the whole record is rejected: a relation either offers a
// usable record or nothing at all.
func DecodeDatabag(bag relation.Databag) (*ExchangeRecord, error) {
	rec := &ExchangeRecord{}

	if raw, ok := bag[keyScrapeMetadata]; ok {
		if err := json.Unmarshal([]byte(raw), &rec.Metadata); err != nil {
			return nil, &DataValidationError{cause: err}
		}
	}
	if raw, ok := bag[keyScrapeProbes]; ok {
		if err := json.Unmarshal([]byte(raw), &rec.Probes); err != nil {
			return nil, &DataValidationError{cause: err}
		}
	}
	if raw, ok := bag[keyScrapeModules]; ok {
		if err := json.Unmarshal([]byte(raw), &rec.Modules); err != nil {
			return nil, &DataValidationError{cause: err}
		}
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// The four wire types tolerate and round-trip unknown fields. Marshalling
// folds the Extra bag back in; known fields win on a key clash.

func (s StaticConfig) MarshalJSON() ([]byte, error) {
	type plain StaticConfig
	return marshalWithExtra(plain(s), s.Extra)
}

func (s *StaticConfig) UnmarshalJSON(data []byte) error {
	type plain StaticConfig
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, "targets", "labels")
	if err != nil {
		return err
	}
	*s = StaticConfig(p)
	s.Extra = extra
	return nil
}

func (j ProbeJob) MarshalJSON() ([]byte, error) {
	type plain ProbeJob
	return marshalWithExtra(plain(j), j.Extra)
}

func (j *ProbeJob) UnmarshalJSON(data []byte) error {
	type plain ProbeJob
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, "job_name", "metrics_path", "params", "static_configs")
	if err != nil {
		return err
	}
	*j = ProbeJob(p)
	j.Extra = extra
	return nil
}

func (m Module) MarshalJSON() ([]byte, error) {
	type plain Module
	return marshalWithExtra(plain(m), m.Extra)
}

func (m *Module) UnmarshalJSON(data []byte) error {
	type plain Module
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, "prober")
	if err != nil {
		return err
	}
	*m = Module(p)
	m.Extra = extra
	return nil
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	type plain Metadata
	return marshalWithExtra(plain(m), m.Extra)
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	type plain Metadata
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, "model", "model_uuid", "application", "unit")
	if err != nil {
		return err
	}
	*m = Metadata(p)
	m.Extra = extra
	return nil
}

func marshalWithExtra(known interface{}, extra map[string]json.RawMessage) ([]byte, error) {
	raw, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return raw, nil
	}

	merged := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		merged[k] = v
	}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	return json.Marshal(merged)
}

func extraFields(data []byte, knownKeys ...string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range knownKeys {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

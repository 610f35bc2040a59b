// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package metrics

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "foxglove"
	Subsystem = "charm"
)

// Label values shared by the counters below.
const (
	ResultOK      = "ok"
	ResultDenied  = "permission_denied"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

var (
	// EventDispatchTotal counts handled lifecycle events by outcome.
	EventDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "event_dispatch_total",
			Help:      "Total number of lifecycle events dispatched",
		},
		[]string{"event", "result"},
	)

	// ProbePublishTotal counts per-relation probe publications by result.
	ProbePublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "probe_publish_total",
			Help:      "Total number of per-relation probe publications",
		},
		[]string{"result"},
	)

	// ProbeMergeTotal counts requirer-side merge recomputations.
	ProbeMergeTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "probe_merge_total",
			Help:      "Total number of probe cache recomputations",
		},
	)

	// SoftErrorTotal counts recoverable per-relation errors by component.
	SoftErrorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "soft_error_total",
			Help:      "Total number of recorded per-relation soft errors",
		},
		[]string{"component"},
	)
)

func init() {
	// Register metrics with the global prometheus registry
	prometheus.MustRegister(EventDispatchTotal)
	prometheus.MustRegister(ProbePublishTotal)
	prometheus.MustRegister(ProbeMergeTotal)
	prometheus.MustRegister(SoftErrorTotal)
}

// Snapshot returns the current values of this package's counters, keyed by
// metric name plus labels. The hook process is short lived and never serves a
// scrape endpoint, so the counters are flushed to the log at dispatch exit.
func Snapshot() map[string]float64 {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return nil
	}

	out := map[string]float64{}
	for _, family := range families {
		if !strings.HasPrefix(family.GetName(), Namespace+"_") {
			continue
		}
		for _, m := range family.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			name := family.GetName()
			if labels := m.GetLabel(); len(labels) > 0 {
				parts := make([]string, 0, len(labels))
				for _, l := range labels {
					parts = append(parts, fmt.Sprintf("%s=%s", l.GetName(), l.GetValue()))
				}
				name = fmt.Sprintf("%s{%s}", name, strings.Join(parts, ","))
			}
			out[name] = m.GetCounter().GetValue()
		}
	}
	return out
}

// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(ProbePublishTotal.WithLabelValues(ResultOK))
	ProbePublishTotal.WithLabelValues(ResultOK).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ProbePublishTotal.WithLabelValues(ResultOK)))

	before = testutil.ToFloat64(SoftErrorTotal.WithLabelValues("probes"))
	SoftErrorTotal.WithLabelValues("probes").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(SoftErrorTotal.WithLabelValues("probes")))
}

func TestSnapshot(t *testing.T) {
	ProbePublishTotal.WithLabelValues(ResultOK).Inc()
	ProbeMergeTotal.Inc()

	snap := Snapshot()

	assert.GreaterOrEqual(t, snap["foxglove_charm_probe_publish_total{result=ok}"], float64(1))
	assert.GreaterOrEqual(t, snap["foxglove_charm_probe_merge_total"], float64(1))
}

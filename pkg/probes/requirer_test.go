// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package probes

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charmhub.io/foxglove-studio-k8s/pkg/relation"
	"charmhub.io/foxglove-studio-k8s/pkg/status"
	"charmhub.io/foxglove-studio-k8s/pkg/topology"
)

// publishAs writes a provider's namespaced record onto the shared backend, as
// a remote application would.
func publishAs(t *testing.T, backend *relation.MemBackend, id int, top topology.Topology,
	jobs []ProbeJob, modules map[string]Module) {

	t.Helper()

	remote := relation.NewMemBackend(true)
	remote.AddRelation(DefaultRelationName, id)

	p, err := NewProvider(remote, testLogger(), top, jobs, modules)
	require.NoError(t, err)
	require.NoError(t, p.Publish())

	backend.SetRemoteAppData(id, remote.LocalAppData(id))
}

func otherTopology() topology.Topology {
	return topology.Topology{
		Model:       "othermodel",
		ModelUUID:   "87654321-4321-8765-4321-876543218765",
		Application: "gateway-watcher",
		Unit:        "gateway-watcher/0",
	}
}

func TestRequirerMergesProbesAcrossRelations(t *testing.T) {
	backend := relation.NewMemBackend(true)
	backend.AddRelation(DefaultRelationName, 0)
	backend.AddRelation(DefaultRelationName, 1)
	publishAs(t, backend, 0, testTopology(), []ProbeJob{icmpProbe()}, nil)

	other := icmpProbe()
	other.StaticConfigs[0].Targets = []string{"192.168.5.2"}
	publishAs(t, backend, 1, otherTopology(), []ProbeJob{other}, nil)

	r := NewRequirer(backend, testLogger())
	probes, err := r.Probes()
	require.NoError(t, err)
	require.Len(t, probes, 2)

	hash0, err := hashJob(ProbeJob{
		JobName:       "juju_mymodel_12345678_foxglove-studio",
		Params:        map[string][]string{"module": {"icmp"}},
		StaticConfigs: []StaticConfig{{Targets: []string{"10.1.238.1"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("juju_mymodel_12345678_foxglove-studio_%s", hash0), probes[0].JobName)
	assert.Regexp(t, `^juju_othermodel_87654321_gateway-watcher_[0-9a-f]{64}$`, probes[1].JobName)

	assert.Empty(t, r.Errors())
	assert.Equal(t, status.KindActive, r.Status().Kind)
}

func TestRequirerDeduplicatesIdenticalProbes(t *testing.T) {
	backend := relation.NewMemBackend(true)
	backend.AddRelation(DefaultRelationName, 0)
	backend.AddRelation(DefaultRelationName, 1)

	// two relations to the same application publish identical content
	publishAs(t, backend, 0, testTopology(), []ProbeJob{icmpProbe()}, nil)
	publishAs(t, backend, 1, testTopology(), []ProbeJob{icmpProbe()}, nil)

	r := NewRequirer(backend, testLogger())
	probes, err := r.Probes()
	require.NoError(t, err)
	assert.Len(t, probes, 1)
}

func TestRequirerCachesUntilInvalidated(t *testing.T) {
	backend := relation.NewMemBackend(true)
	backend.AddRelation(DefaultRelationName, 0)
	publishAs(t, backend, 0, testTopology(), []ProbeJob{icmpProbe()}, nil)

	r := NewRequirer(backend, testLogger())
	probes, err := r.Probes()
	require.NoError(t, err)
	require.Len(t, probes, 1)

	// new data lands but no event invalidated the cache yet
	backend.AddRelation(DefaultRelationName, 1)
	publishAs(t, backend, 1, otherTopology(), []ProbeJob{icmpProbe()}, nil)

	probes, err = r.Probes()
	require.NoError(t, err)
	assert.Len(t, probes, 1)

	r.HandleRelationChanged(1)
	probes, err = r.Probes()
	require.NoError(t, err)
	assert.Len(t, probes, 2)
}

func TestRequirerDropsDepartedProviders(t *testing.T) {
	backend := relation.NewMemBackend(true)
	backend.AddRelation(DefaultRelationName, 0)
	publishAs(t, backend, 0, testTopology(), []ProbeJob{icmpProbe()},
		map[string]Module{"http_2xx_longer_timeout": {Prober: "http"}})

	r := NewRequirer(backend, testLogger())
	probes, err := r.Probes()
	require.NoError(t, err)
	require.Len(t, probes, 1)

	backend.RemoveRelation(DefaultRelationName, 0)
	r.HandleRelationDeparted(0)

	probes, err = r.Probes()
	require.NoError(t, err)
	assert.Empty(t, probes)

	modules, err := r.Modules()
	require.NoError(t, err)
	assert.Empty(t, modules)
}

func TestRequirerNotifiesOnMembershipChange(t *testing.T) {
	r := NewRequirer(relation.NewMemBackend(true), testLogger())

	var fired []int
	r.OnTargetsChanged(func(relationID int) { fired = append(fired, relationID) })
	r.OnTargetsChanged(func(relationID int) { fired = append(fired, relationID) })

	r.HandleRelationChanged(7)
	r.HandleRelationDeparted(3)

	assert.Equal(t, []int{7, 7, 3, 3}, fired)
}

func TestRequirerMergesModules(t *testing.T) {
	backend := relation.NewMemBackend(true)
	backend.AddRelation(DefaultRelationName, 0)
	backend.AddRelation(DefaultRelationName, 1)
	publishAs(t, backend, 0, testTopology(), []ProbeJob{icmpProbe()},
		map[string]Module{"http_2xx_longer_timeout": {Prober: "http"}})
	publishAs(t, backend, 1, otherTopology(), []ProbeJob{icmpProbe()},
		map[string]Module{"tcp_banner": {Prober: "tcp"}})

	r := NewRequirer(backend, testLogger())
	modules, err := r.Modules()
	require.NoError(t, err)

	assert.Len(t, modules, 2)
	assert.Contains(t, modules, "juju_mymodel_12345678_foxglove-studio_http_2xx_longer_timeout")
	assert.Contains(t, modules, "juju_othermodel_87654321_gateway-watcher_tcp_banner")
}

func TestRequirerModuleCollisionFirstWins(t *testing.T) {
	backend := relation.NewMemBackend(true)
	backend.AddRelation(DefaultRelationName, 0)
	backend.AddRelation(DefaultRelationName, 1)

	// a misbehaving provider publishes under a name another relation owns
	publishAs(t, backend, 0, testTopology(), nil,
		map[string]Module{"clash": {Prober: "http"}})
	publishAs(t, backend, 1, testTopology(), nil,
		map[string]Module{"clash": {Prober: "tcp"}})

	r := NewRequirer(backend, testLogger())
	modules, err := r.Modules()
	require.NoError(t, err)

	name := "juju_mymodel_12345678_foxglove-studio_clash"
	require.Contains(t, modules, name)
	assert.Equal(t, "http", modules[name].Prober)

	errs := r.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "duplicate module")
	assert.Equal(t, status.KindBlocked, r.Status().Kind)
}

func TestRequirerBadDatabagIsSoftError(t *testing.T) {
	backend := relation.NewMemBackend(true)
	backend.AddRelation(DefaultRelationName, 0)
	backend.AddRelation(DefaultRelationName, 1)
	backend.SetRemoteAppData(0, relation.Databag{"scrape_probes": "{not json"})
	publishAs(t, backend, 1, testTopology(), []ProbeJob{icmpProbe()}, nil)

	r := NewRequirer(backend, testLogger())
	probes, err := r.Probes()
	require.NoError(t, err)
	assert.Len(t, probes, 1)

	errs := r.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "invalid probes provided in relation 0")
}

func TestRequirerStatusWaitingWhenStale(t *testing.T) {
	r := NewRequirer(relation.NewMemBackend(true), testLogger())

	st := r.Status()
	assert.Equal(t, status.KindWaiting, st.Kind)
	assert.Equal(t, "probes are being updated", st.Message)

	_, err := r.Probes()
	require.NoError(t, err)
	_, err = r.Modules()
	require.NoError(t, err)
	assert.Equal(t, status.KindActive, r.Status().Kind)
}

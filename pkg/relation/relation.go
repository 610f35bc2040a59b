// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

// Package relation models the exchange medium shared between related
// applications: per-relation flat string databags, written by the elected
// leader of one side and read by the other.
package relation

import (
	"errors"
	"sort"
)

// ErrPermissionDenied is returned when a databag write is refused by the
// controller, which happens when the relation has been torn down while the
// current event was being handled.
var ErrPermissionDenied = errors.New("cannot write relation application data: permission denied")

// Databag is the flat string-keyed payload carried by one side of a relation.
type Databag map[string]string

// Copy returns a shallow copy of the databag.
func (d Databag) Copy() Databag {
	out := make(Databag, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Backend is the charm's access to relation data. The production
// implementation shells out to the Juju hook tools; tests use MemBackend.
type Backend interface {
	// RelationIDs returns the IDs of the active relations on an endpoint,
	// in a stable order.
	RelationIDs(endpoint string) ([]int, error)

	// RemoteAppData reads the application databag published by the remote
	// side of one relation.
	RemoteAppData(endpoint string, id int) (Databag, error)

	// WriteLocalAppData replaces this application's databag on one
	// relation with the given content. Stale keys from previous writes do
	// not survive.
	WriteLocalAppData(endpoint string, id int, data Databag) error

	// IsLeader reports whether this unit is the elected leader of its
	// application. Only the leader may write application databags.
	IsLeader() (bool, error)
}

// MemBackend is an in-memory Backend for tests and for wiring a provider and
// a requirer end to end in-process.
type MemBackend struct {
	leader    bool
	endpoints map[string][]int
	remote    map[int]Databag
	local     map[int]Databag
	denied    map[int]bool
}

func NewMemBackend(leader bool) *MemBackend {
	return &MemBackend{
		leader:    leader,
		endpoints: make(map[string][]int),
		remote:    make(map[int]Databag),
		local:     make(map[int]Databag),
		denied:    make(map[int]bool),
	}
}

// AddRelation registers a relation on an endpoint.
func (m *MemBackend) AddRelation(endpoint string, id int) {
	m.endpoints[endpoint] = append(m.endpoints[endpoint], id)
	sort.Ints(m.endpoints[endpoint])
}

// RemoveRelation drops a relation and its databags.
func (m *MemBackend) RemoveRelation(endpoint string, id int) {
	ids := m.endpoints[endpoint][:0]
	for _, existing := range m.endpoints[endpoint] {
		if existing != id {
			ids = append(ids, existing)
		}
	}
	m.endpoints[endpoint] = ids
	delete(m.remote, id)
	delete(m.local, id)
}

// SetRemoteAppData sets the databag published by the remote application.
func (m *MemBackend) SetRemoteAppData(id int, data Databag) {
	m.remote[id] = data.Copy()
}

// LocalAppData returns what was last written for a relation.
func (m *MemBackend) LocalAppData(id int) Databag {
	return m.local[id].Copy()
}

// DenyWrites makes writes to the given relation fail with
// ErrPermissionDenied, simulating a concurrently removed relation.
func (m *MemBackend) DenyWrites(id int) {
	m.denied[id] = true
}

func (m *MemBackend) SetLeader(leader bool) {
	m.leader = leader
}

func (m *MemBackend) RelationIDs(endpoint string) ([]int, error) {
	ids := make([]int, len(m.endpoints[endpoint]))
	copy(ids, m.endpoints[endpoint])
	return ids, nil
}

func (m *MemBackend) RemoteAppData(endpoint string, id int) (Databag, error) {
	return m.remote[id].Copy(), nil
}

func (m *MemBackend) WriteLocalAppData(endpoint string, id int, data Databag) error {
	if m.denied[id] {
		return ErrPermissionDenied
	}
	m.local[id] = data.Copy()
	return nil
}

func (m *MemBackend) IsLeader() (bool, error) {
	return m.leader, nil
}

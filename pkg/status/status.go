// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

// Package status models unit workload status as reported to the lifecycle
// runtime.
package status

// Kind is the status class understood by the runtime.
type Kind string

const (
	KindActive      Kind = "active"
	KindBlocked     Kind = "blocked"
	KindWaiting     Kind = "waiting"
	KindMaintenance Kind = "maintenance"
)

// Status is a status class plus a human-readable message.
type Status struct {
	Kind    Kind
	Message string
}

func Active(message string) Status      { return Status{Kind: KindActive, Message: message} }
func Blocked(message string) Status     { return Status{Kind: KindBlocked, Message: message} }
func Waiting(message string) Status     { return Status{Kind: KindWaiting, Message: message} }
func Maintenance(message string) Status { return Status{Kind: KindMaintenance, Message: message} }

func (s Status) String() string {
	if s.Message == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ": " + s.Message
}

// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

// Package hook dispatches lifecycle events to registered handlers. Execution
// is strictly single threaded: one event is handled to completion before
// anything else runs, and a handler error aborts the whole event.
package hook

import (
	"github.com/pkg/errors"

	"charmhub.io/foxglove-studio-k8s/internal/metrics"
	"charmhub.io/foxglove-studio-k8s/internal/util/logger"
)

// Event is one named lifecycle event, with the triggering relation ID for
// relation events.
type Event struct {
	Name       string
	RelationID int
}

// Handler handles one event. Returning an error aborts the event; the
// runtime surfaces that as an operational failure.
type Handler func(ev Event) error

// Dispatcher maps event names to ordered handler lists.
type Dispatcher struct {
	log      logger.Logger
	handlers map[string][]Handler
}

func NewDispatcher(log logger.Logger) *Dispatcher {
	return &Dispatcher{
		log:      log,
		handlers: make(map[string][]Handler),
	}
}

// Register appends a handler for an event. Handlers run in registration
// order.
func (d *Dispatcher) Register(event string, h Handler) {
	d.handlers[event] = append(d.handlers[event], h)
}

// RegisterAll registers one handler for several events.
func (d *Dispatcher) RegisterAll(events []string, h Handler) {
	for _, event := range events {
		d.Register(event, h)
	}
}

// Dispatch runs the handlers registered for the event, sequentially, and
// stops at the first error. An event nothing is registered for is logged and
// ignored: the runtime delivers many events a charm has no interest in.
func (d *Dispatcher) Dispatch(ev Event) error {
	handlers, ok := d.handlers[ev.Name]
	if !ok {
		d.log.V(1).Info("no handlers for event", "event", ev.Name)
		metrics.EventDispatchTotal.WithLabelValues(ev.Name, "ignored").Inc()
		return nil
	}

	d.log.Info("dispatching event", "event", ev.Name, "handlers", len(handlers))
	for _, h := range handlers {
		if err := h(ev); err != nil {
			metrics.EventDispatchTotal.WithLabelValues(ev.Name, metrics.ResultError).Inc()
			return errors.Wrapf(err, "handling event %q", ev.Name)
		}
	}
	metrics.EventDispatchTotal.WithLabelValues(ev.Name, metrics.ResultOK).Inc()
	return nil
}

// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"charmhub.io/foxglove-studio-k8s/internal/charm"
	"charmhub.io/foxglove-studio-k8s/internal/constants"
	"charmhub.io/foxglove-studio-k8s/internal/hook"
	"charmhub.io/foxglove-studio-k8s/internal/juju"
	"charmhub.io/foxglove-studio-k8s/internal/metrics"
	loggertypes "charmhub.io/foxglove-studio-k8s/internal/types/logger"
	"charmhub.io/foxglove-studio-k8s/internal/util/logger"
	"charmhub.io/foxglove-studio-k8s/pkg/pebble"
	"charmhub.io/foxglove-studio-k8s/pkg/topology"
)

var logLevel string

// DispatchCommand handles one lifecycle event. The runtime invokes the charm
// once per event; the event name comes from the argument or, failing that,
// from the hook environment.
func DispatchCommand() *cobra.Command {

	cmd := &cobra.Command{
		Use:     "dispatch [event]",
		Aliases: []string{"hook"},
		Short:   "Handle a single lifecycle event",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var event string
			if len(args) == 1 {
				event = args[0]
			}
			return dispatch(event)
		},
	}

	cmd.Flags().StringVarP(&logLevel, "log-level", "l", string(loggertypes.LogLevelInfo), "log level")
	return cmd
}

func dispatch(event string) error {
	log := logger.StderrLogger(loggertypes.LogLevel(logLevel))

	hookEnv, err := hook.FromEnviron()
	if err != nil {
		return err
	}
	if event == "" {
		event = hookEnv.EventName()
	}
	if event == "" || event == "." {
		return errors.New("cannot determine event to dispatch")
	}

	top, err := topology.FromEnvironment()
	if err != nil {
		return err
	}

	tool := juju.NewClient(log.WithName(string(loggertypes.LogComponentJuju)))
	supervisor := pebble.NewHTTPClient(pebble.SocketPath(constants.CharmName),
		log.WithName(string(loggertypes.LogComponentPebble)))

	c, err := charm.New(tool, supervisor, top, log)
	if err != nil {
		return err
	}

	ev := hook.Event{Name: event}
	if id, ok := hookEnv.RelationIDNumber(); ok {
		ev.RelationID = id
	}

	log.Info("dispatching", "event", ev.Name, "unit", top.Unit)
	runErr := c.Run(ev)

	// the process exits after one event, so counters only surface via the log
	for name, value := range metrics.Snapshot() {
		log.V(1).Info("counter", "name", name, "value", value)
	}
	return runErr
}

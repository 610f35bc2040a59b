// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package hook

import (
	"path"
	"strconv"
	"strings"

	env "github.com/Netflix/go-env"
	"github.com/pkg/errors"
)

// Environment is the per-event context the runtime passes through the
// process environment.
type Environment struct {
	DispatchPath string `env:"JUJU_DISPATCH_PATH"`
	HookName     string `env:"JUJU_HOOK_NAME"`
	RelationID   string `env:"JUJU_RELATION_ID"`
	RemoteApp    string `env:"JUJU_REMOTE_APP"`
	RemoteUnit   string `env:"JUJU_REMOTE_UNIT"`
}

// FromEnviron decodes the hook environment.
func FromEnviron() (*Environment, error) {
	var e Environment
	if _, err := env.UnmarshalFromEnviron(&e); err != nil {
		return nil, errors.Wrap(err, "reading hook environment")
	}
	return &e, nil
}

// EventName resolves the name of the event being dispatched. The hook name
// takes precedence; the dispatch path ("hooks/<name>") is the fallback.
func (e *Environment) EventName() string {
	if e.HookName != "" {
		return e.HookName
	}
	return path.Base(e.DispatchPath)
}

// RelationIDNumber parses the numeric relation ID out of the
// "<endpoint>:<id>" form the runtime uses. ok is false for non-relation
// events.
func (e *Environment) RelationIDNumber() (int, bool) {
	raw := e.RelationID
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		raw = raw[i+1:]
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}

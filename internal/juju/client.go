// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

// Package juju reaches the lifecycle runtime through its hook tools. This is
// the charm's only transport: every read and write of the exchange medium is
// a synchronous hook-tool invocation.
package juju

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"charmhub.io/foxglove-studio-k8s/internal/util/logger"
	"charmhub.io/foxglove-studio-k8s/pkg/relation"
	"charmhub.io/foxglove-studio-k8s/pkg/status"
)

// permissionDenied is the signature the controller responds with when the
// written relation has been torn down concurrently.
const permissionDenied = "permission denied"

// CommandRunner executes one hook tool. Split out so tests can stub the
// runtime away.
type CommandRunner interface {
	Run(name string, args ...string) ([]byte, error)
	RunInput(input []byte, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(name string, args ...string) ([]byte, error) {
	return runCmd(exec.Command(name, args...))
}

func (execRunner) RunInput(input []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = bytes.NewReader(input)
	return runCmd(cmd)
}

func runCmd(cmd *exec.Cmd) ([]byte, error) {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if stderr.Len() > 0 {
			return nil, errors.Errorf("%s: %s", cmd.Args[0], strings.TrimSpace(stderr.String()))
		}
		return nil, errors.Wrap(err, cmd.Args[0])
	}
	return out, nil
}

// Client implements relation.Backend plus the charm-facing hook tools
// (config, status, ports).
type Client struct {
	log      logger.Logger
	runner   CommandRunner
	localApp string
}

func NewClient(log logger.Logger) *Client {
	return &Client{log: log, runner: execRunner{}, localApp: localAppFromEnv()}
}

// NewClientWithRunner is for tests.
func NewClientWithRunner(log logger.Logger, runner CommandRunner) *Client {
	return &Client{log: log, runner: runner, localApp: localAppFromEnv()}
}

func localAppFromEnv() string {
	unit := os.Getenv("JUJU_UNIT_NAME")
	if i := strings.IndexByte(unit, '/'); i >= 0 {
		return unit[:i]
	}
	return unit
}

func (c *Client) runJSON(result interface{}, name string, args ...string) error {
	args = append(args, "--format=json")
	out, err := c.runner.Run(name, args...)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return nil
	}
	if err := json.Unmarshal(out, result); err != nil {
		return errors.Wrapf(err, "parsing %s output", name)
	}
	return nil
}

// RelationIDs implements relation.Backend.
func (c *Client) RelationIDs(endpoint string) ([]int, error) {
	var raw []string
	if err := c.runJSON(&raw, "relation-ids", endpoint); err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(raw))
	for _, r := range raw {
		// "endpoint:N"
		i := strings.LastIndexByte(r, ':')
		if i < 0 {
			return nil, errors.Errorf("unexpected relation id %q", r)
		}
		id, err := strconv.Atoi(r[i+1:])
		if err != nil {
			return nil, errors.Wrapf(err, "unexpected relation id %q", r)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Client) remoteApp(endpoint string, id int) (string, error) {
	var app string
	err := c.runJSON(&app, "relation-list", "-r", relationRef(endpoint, id), "--app")
	if err != nil {
		return "", err
	}
	return app, nil
}

// RemoteAppData implements relation.Backend.
func (c *Client) RemoteAppData(endpoint string, id int) (relation.Databag, error) {
	app, err := c.remoteApp(endpoint, id)
	if err != nil {
		return nil, err
	}
	if app == "" {
		return nil, nil
	}

	var bag relation.Databag
	err = c.runJSON(&bag, "relation-get", "-r", relationRef(endpoint, id), "--app", "-", app)
	if err != nil {
		return nil, err
	}
	return bag, nil
}

// WriteLocalAppData implements relation.Backend. relation-set merges the
// given keys into the databag, so plain writes would leak keys a shrinking
// payload no longer carries. To get replace semantics, every currently set
// key missing from the new content is written as an empty string, which is
// how the controller deletes a key. The content is handed over as YAML on
// stdin, which keeps values with newlines intact.
func (c *Client) WriteLocalAppData(endpoint string, id int, data relation.Databag) error {
	current, err := c.localAppData(endpoint, id)
	if err != nil {
		return err
	}

	payload := data.Copy()
	for key := range current {
		if _, ok := payload[key]; !ok {
			payload[key] = ""
		}
	}

	raw, err := yaml.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encoding relation data")
	}

	_, err = c.runner.RunInput(raw, "relation-set", "-r", relationRef(endpoint, id), "--app", "--file", "-")
	if err != nil {
		if strings.Contains(err.Error(), permissionDenied) {
			return errors.WithMessage(relation.ErrPermissionDenied, err.Error())
		}
		return err
	}
	return nil
}

// localAppData reads this application's own databag on one relation. Only
// the leader may read it; a refusal means the relation is going away, same
// as for writes.
func (c *Client) localAppData(endpoint string, id int) (relation.Databag, error) {
	var bag relation.Databag
	err := c.runJSON(&bag, "relation-get", "-r", relationRef(endpoint, id), "--app", "-", c.localApp)
	if err != nil {
		if strings.Contains(err.Error(), permissionDenied) {
			return nil, errors.WithMessage(relation.ErrPermissionDenied, err.Error())
		}
		return nil, err
	}
	return bag, nil
}

// IsLeader implements relation.Backend.
func (c *Client) IsLeader() (bool, error) {
	var leader bool
	if err := c.runJSON(&leader, "is-leader"); err != nil {
		return false, err
	}
	return leader, nil
}

// ConfigGet returns the charm configuration.
func (c *Client) ConfigGet() (map[string]interface{}, error) {
	var cfg map[string]interface{}
	if err := c.runJSON(&cfg, "config-get"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StatusSet reports the unit workload status to the runtime.
func (c *Client) StatusSet(st status.Status) error {
	_, err := c.runner.Run("status-set", string(st.Kind), st.Message)
	if err != nil {
		return errors.Wrap(err, "setting status")
	}
	c.log.V(1).Info("status set", "status", st.String())
	return nil
}

// OpenedPorts returns the ports currently opened for the unit, in
// "port/protocol" form.
func (c *Client) OpenedPorts() ([]string, error) {
	var ports []string
	if err := c.runJSON(&ports, "opened-ports"); err != nil {
		return nil, err
	}
	return ports, nil
}

// OpenPort opens a port ("8080/tcp") on the unit.
func (c *Client) OpenPort(port string) error {
	_, err := c.runner.Run("open-port", port)
	return errors.Wrapf(err, "opening port %s", port)
}

// ClosePort closes a port on the unit.
func (c *Client) ClosePort(port string) error {
	_, err := c.runner.Run("close-port", port)
	return errors.Wrapf(err, "closing port %s", port)
}

// ApplicationVersionSet reports the workload version.
func (c *Client) ApplicationVersionSet(version string) error {
	_, err := c.runner.Run("application-version-set", version)
	return errors.Wrap(err, "setting application version")
}

func relationRef(endpoint string, id int) string {
	return fmt.Sprintf("%s:%d", endpoint, id)
}

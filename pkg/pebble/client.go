// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package pebble

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"charmhub.io/foxglove-studio-k8s/internal/util/logger"
)

// SocketPath returns the supervisor socket the runtime mounts for a workload
// container.
func SocketPath(container string) string {
	return fmt.Sprintf("/charm/containers/%s/pebble.socket", container)
}

// HTTPClient talks to the supervisor API over its unix socket.
type HTTPClient struct {
	http *http.Client
	log  logger.Logger
}

func NewHTTPClient(socketPath string, log logger.Logger) *HTTPClient {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
	}
	return &HTTPClient{
		http: &http.Client{Transport: transport, Timeout: 10 * time.Second},
		log:  log,
	}
}

// response is the envelope the supervisor wraps every result in.
type response struct {
	Type       string          `json:"type"`
	StatusCode int             `json:"status-code"`
	Result     json.RawMessage `json:"result"`
}

func (c *HTTPClient) CanConnect() bool {
	var ignored json.RawMessage
	return c.get("/v1/system-info", &ignored) == nil
}

func (c *HTTPClient) Plan() (Plan, error) {
	var raw string
	if err := c.get("/v1/plan?format=yaml", &raw); err != nil {
		return Plan{}, err
	}

	var plan Plan
	if err := yaml.Unmarshal([]byte(raw), &plan); err != nil {
		return Plan{}, errors.Wrap(err, "parsing supervisor plan")
	}
	return plan, nil
}

func (c *HTTPClient) AddLayer(label string, layer Layer) error {
	layerYAML, err := yaml.Marshal(layer)
	if err != nil {
		return errors.Wrap(err, "encoding layer")
	}

	body := map[string]interface{}{
		"action":  "add",
		"combine": true,
		"label":   label,
		"format":  "yaml",
		"layer":   string(layerYAML),
	}
	var ignored json.RawMessage
	if err := c.post("/v1/layers", body, &ignored); err != nil {
		return err
	}
	c.log.Info("submitted layer to supervisor", "label", label)
	return nil
}

func (c *HTTPClient) Restart(services ...string) error {
	body := map[string]interface{}{
		"action":   "restart",
		"services": services,
	}
	var ignored json.RawMessage
	if err := c.post("/v1/services", body, &ignored); err != nil {
		return err
	}
	c.log.Info("restarted services", "services", services)
	return nil
}

func (c *HTTPClient) get(path string, result interface{}) error {
	resp, err := c.http.Get("http://localhost" + path)
	if err != nil {
		return errors.Wrapf(err, "GET %s", path)
	}
	return decodeResponse(resp, path, result)
}

func (c *HTTPClient) post(path string, body interface{}, result interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return errors.Wrapf(err, "encoding %s request", path)
	}
	resp, err := c.http.Post("http://localhost"+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		return errors.Wrapf(err, "POST %s", path)
	}
	return decodeResponse(resp, path, result)
}

func decodeResponse(resp *http.Response, path string, result interface{}) error {
	defer resp.Body.Close() //nolint:errcheck

	var envelope response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return errors.Wrapf(err, "decoding %s response", path)
	}
	if envelope.StatusCode >= 400 {
		return errors.Errorf("%s: supervisor returned status %d", path, envelope.StatusCode)
	}
	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return errors.Wrapf(err, "decoding %s result", path)
		}
	}
	return nil
}

// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package pebble

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loggertypes "charmhub.io/foxglove-studio-k8s/internal/types/logger"
	"charmhub.io/foxglove-studio-k8s/internal/util/logger"
)

func testLogger() logger.Logger {
	return logger.NewLogger(io.Discard, loggertypes.DefaultCharmLogging())
}

// fakeSupervisor serves the supervisor API on a real unix socket.
func fakeSupervisor(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "pebble.socket")
	ln, err := net.Listen("unix", socket)
	require.NoError(t, err)

	srv := &http.Server{Handler: handler}
	go srv.Serve(ln) //nolint:errcheck
	t.Cleanup(func() { srv.Close() })

	return NewHTTPClient(socket, testLogger())
}

func respond(w http.ResponseWriter, result interface{}) {
	raw, _ := json.Marshal(result)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"type":        "sync",
		"status-code": 200,
		"result":      json.RawMessage(raw),
	})
}

func TestCanConnect(t *testing.T) {
	c := fakeSupervisor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/system-info", r.URL.Path)
		respond(w, map[string]string{"version": "1.0"})
	}))

	assert.True(t, c.CanConnect())
}

func TestCanConnectSocketGone(t *testing.T) {
	c := NewHTTPClient(filepath.Join(t.TempDir(), "missing.socket"), testLogger())

	assert.False(t, c.CanConnect())
}

func TestPlan(t *testing.T) {
	planYAML := "services:\n  foxglove-studio:\n    override: replace\n    command: caddy file-server --listen :8080\n"
	c := fakeSupervisor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/plan", r.URL.Path)
		assert.Equal(t, "yaml", r.URL.Query().Get("format"))
		respond(w, planYAML)
	}))

	plan, err := c.Plan()
	require.NoError(t, err)

	svc, ok := plan.Services["foxglove-studio"]
	require.True(t, ok)
	assert.Equal(t, "caddy file-server --listen :8080", svc.Command)
}

func TestAddLayer(t *testing.T) {
	var got map[string]interface{}
	c := fakeSupervisor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/layers", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(w, true)
	}))

	layer := Layer{Services: map[string]Service{
		"foxglove-studio": {Override: "replace", Command: "caddy file-server"},
	}}
	require.NoError(t, c.AddLayer("foxglove-studio", layer))

	assert.Equal(t, "add", got["action"])
	assert.Equal(t, true, got["combine"])
	assert.Equal(t, "foxglove-studio", got["label"])
	assert.Contains(t, got["layer"], "caddy file-server")
}

func TestRestart(t *testing.T) {
	var got map[string]interface{}
	c := fakeSupervisor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/services", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(w, "42")
	}))

	require.NoError(t, c.Restart("foxglove-studio"))

	assert.Equal(t, "restart", got["action"])
	assert.Equal(t, []interface{}{"foxglove-studio"}, got["services"])
}

func TestSupervisorErrorStatus(t *testing.T) {
	c := fakeSupervisor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"type": "error", "status-code": 500, "result": {"message": "boom"}}`)
	}))

	err := c.AddLayer("foxglove-studio", Layer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

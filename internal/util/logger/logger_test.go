// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	loggertype "charmhub.io/foxglove-studio-k8s/internal/types/logger"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(&buf, loggertype.DefaultCharmLogging())
	logger.Info("kv msg", "key", "value")
	logger.Sugar().Infof("template %s %d", "string", 123)

	logger.WithName(string(loggertype.LogComponentCharm)).WithValues("event", "install").Info("msg", "k", "v")

	defaultLogger := DefaultLogger(&buf, loggertype.LogLevelInfo)
	assert.NotNil(t, defaultLogger.logging)
	assert.NotNil(t, defaultLogger.sugaredLogger)

	out := buf.String()
	assert.Contains(t, out, "kv msg")
	assert.Contains(t, out, "template string 123")
}

func TestLoggerWithName(t *testing.T) {
	var buf bytes.Buffer

	config := loggertype.DefaultCharmLogging()
	config.Level[loggertype.LogComponentProbes] = loggertype.LogLevelDebug

	logger := NewLogger(&buf, config).WithName(string(loggertype.LogComponentProbes))
	logger.Info("info message")
	logger.Sugar().Debugf("debug message")

	out := buf.String()
	assert.Contains(t, out, string(loggertype.LogComponentProbes))
	assert.Contains(t, out, "info message")
	assert.Contains(t, out, "debug message")
}

func TestLoggerComponentLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	config := loggertype.DefaultCharmLogging()
	config.Level[loggertype.LogComponentJuju] = loggertype.LogLevelError

	logger := NewLogger(&buf, config).WithName(string(loggertype.LogComponentJuju))
	logger.Info("should be filtered")

	assert.NotContains(t, buf.String(), "should be filtered")
}

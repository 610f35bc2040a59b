// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package logger

import (
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	loggertypes "charmhub.io/foxglove-studio-k8s/internal/types/logger"
)

// Logger wraps a logr.Logger backed by zap. Juju collects everything the
// charm process writes to stderr into the model debug-log, so the default
// sink is os.Stderr.
type Logger struct {
	logr.Logger
	out           io.Writer
	logging       *loggertypes.CharmLogging
	sugaredLogger *zap.SugaredLogger
}

func NewLogger(w io.Writer, logging *loggertypes.CharmLogging) Logger {

	logger := initZapLogger(w, logging, logging.Level[loggertypes.LogComponentDefault])

	return Logger{
		Logger:        zapr.NewLogger(logger),
		out:           w,
		logging:       logging,
		sugaredLogger: logger.Sugar(),
	}
}

func DefaultLogger(out io.Writer, level loggertypes.LogLevel) Logger {

	logging := loggertypes.DefaultCharmLogging()
	logger := initZapLogger(out, logging, level)

	return Logger{
		Logger:        zapr.NewLogger(logger),
		out:           out,
		logging:       logging,
		sugaredLogger: logger.Sugar(),
	}
}

func StderrLogger(level loggertypes.LogLevel) Logger {

	return DefaultLogger(os.Stderr, level)
}

// WithName returns a new Logger instance with the specified name element added
// to the Logger's name. The per-component level configured for that name, if
// any, takes effect on the returned Logger.
func (l Logger) WithName(name string) Logger {

	logLevel := l.logging.Level[loggertypes.CharmLogComponent(name)]
	logger := initZapLogger(l.out, l.logging, logLevel)

	return Logger{
		Logger:        zapr.NewLogger(logger).WithName(name),
		logging:       l.logging,
		out:           l.out,
		sugaredLogger: logger.Sugar().Named(name),
	}
}

// WithValues returns a new Logger instance with additional key/value pairs.
func (l Logger) WithValues(keysAndValues ...interface{}) Logger {

	l.Logger = l.Logger.WithValues(keysAndValues...)
	return l
}

// Sugar exposes the underlying zap SugaredLogger for printf-style logging.
func (l Logger) Sugar() *zap.SugaredLogger {

	return l.sugaredLogger
}

func initZapLogger(w io.Writer, logging *loggertypes.CharmLogging, level loggertypes.LogLevel) *zap.Logger {

	parseLevel, _ := zapcore.ParseLevel(string(logging.DefaultCharmLoggingLevel(level)))
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.AddSync(w), zap.NewAtomicLevelAt(parseLevel))

	return zap.New(core, zap.AddCaller())
}

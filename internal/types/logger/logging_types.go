// Copyright 2025 Canonical Ltd.
// See LICENSE file for licensing details.

package logger

// charm logger related types

type LogLevel string

const (
	// LogLevelDebug defines the "debug" logger level.
	LogLevelDebug LogLevel = "debug"

	// LogLevelInfo defines the "Info" logger level.
	LogLevelInfo LogLevel = "info"

	// LogLevelWarn defines the "Warn" logger level.
	LogLevelWarn LogLevel = "warn"

	// LogLevelError defines the "Error" logger level.
	LogLevelError LogLevel = "error"
)

type CharmLogging struct {
	Level map[CharmLogComponent]LogLevel `json:"level,omitempty"`
}

type CharmLogComponent string

const (
	LogComponentDefault CharmLogComponent = "default"

	LogComponentCharm CharmLogComponent = "charm"

	LogComponentProbes CharmLogComponent = "probes"

	LogComponentJuju CharmLogComponent = "juju"

	LogComponentPebble CharmLogComponent = "pebble"
)

func DefaultCharmLogging() *CharmLogging {

	return &CharmLogging{
		Level: map[CharmLogComponent]LogLevel{
			LogComponentDefault: LogLevelInfo,
		},
	}
}

func (logging *CharmLogging) DefaultCharmLoggingLevel(level LogLevel) LogLevel {

	if level != "" {
		return level
	}

	if logging.Level[LogComponentDefault] != "" {

		return logging.Level[LogComponentDefault]
	}

	return LogLevelInfo
}

func (logging *CharmLogging) SetCharmLoggingDefaults() {

	if logging != nil && logging.Level != nil && logging.Level[LogComponentDefault] == "" {

		logging.Level[LogComponentDefault] = LogLevelInfo
	}
}

// SPDX-License-Identifier: Apache-2.0

// Package config loads service configuration from built-in defaults
// overridden by CARDIO_-prefixed environment variables.
//
//	CARDIO_SERVER_ADDR    -> server.addr
//	CARDIO_HISTORY_PATH   -> history.path
//	CARDIO_LOG_LEVEL      -> log.level
//	CARDIO_LOG_PRETTY     -> log.pretty
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Config is the complete service configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	History HistoryConfig `koanf:"history"`
	Log     LogConfig     `koanf:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// HistoryConfig holds the prediction history store settings.
type HistoryConfig struct {
	Path string `koanf:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

const defaults = `
server:
  addr: ":8080"
history:
  path: "data/predictions.db"
log:
  level: "info"
  pretty: false
`

const envPrefix = "CARDIO_"

// Load builds the configuration from defaults and environment overrides.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider([]byte(defaults)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	// CARDIO_SERVER_ADDR -> server.addr (section.field, split on the
	// first underscore after the prefix).
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package config provides configuration management for the shs handshake
// service and its companion CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level operational configuration. It is distinct from the
// on-wire NetworkId (keys.NetworkIdentifier) — this is local configuration
// for where that identifier comes from and how the process behaves.
type Config struct {
	Environment string          `yaml:"environment" json:"environment"`
	Handshake   HandshakeConfig `yaml:"handshake" json:"handshake"`
	KeyStore    KeyStoreConfig  `yaml:"keystore" json:"keystore"`
	Logging     LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig   `yaml:"metrics" json:"metrics"`
	Health      HealthConfig    `yaml:"health" json:"health"`
}

// HandshakeConfig controls the operational envelope around the core
// handshake driver: it never changes wire semantics, only timeouts and
// where the network identifier is sourced from.
type HandshakeConfig struct {
	// NetworkIDHex is the 32-byte NetworkId, hex-encoded. If NetworkIDEnv is
	// also set, NetworkIDHex takes precedence.
	NetworkIDHex string `yaml:"network_id_hex" json:"network_id_hex"`
	// NetworkIDEnv names an environment variable holding the hex-encoded
	// NetworkId, so it need not be checked into a config file.
	NetworkIDEnv string `yaml:"network_id_env" json:"network_id_env"`
	// Timeout bounds a single handshake attempt; the core itself imposes no
	// deadline (spec §5), so this is purely a caller-side context timeout.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// KeyStoreConfig represents long-term identity key storage configuration.
type KeyStoreConfig struct {
	Type      string `yaml:"type" json:"type"` // memory, file
	Directory string `yaml:"directory,omitempty" json:"directory,omitempty"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// MetricsConfig represents Prometheus metrics export configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

// HealthConfig represents health check server configuration.
type HealthConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)

	return cfg, nil
}

// SaveToFile saves configuration to a file, choosing format by extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if len(path) > 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Handshake.Timeout == 0 {
		cfg.Handshake.Timeout = 10 * time.Second
	}
	if cfg.KeyStore.Type == "" {
		cfg.KeyStore.Type = "memory"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}
	if cfg.Health.Addr == "" {
		cfg.Health.Addr = ":9091"
	}
}

// ValidationIssue describes a single configuration problem.
type ValidationIssue struct {
	Field   string
	Message string
	Level   string // "error" or "warning"
}

// Validate checks a loaded configuration for problems that would prevent the
// handshake service from starting. It never inspects the on-wire NetworkId
// value itself — only where the config says it should come from.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Handshake.NetworkIDHex == "" && cfg.Handshake.NetworkIDEnv == "" {
		issues = append(issues, ValidationIssue{
			Field:   "handshake.network_id_hex",
			Message: "no network id source configured; set network_id_hex or network_id_env",
			Level:   "error",
		})
	}
	if cfg.Handshake.NetworkIDHex != "" && cfg.Handshake.NetworkIDEnv != "" {
		issues = append(issues, ValidationIssue{
			Field:   "handshake.network_id_hex",
			Message: "both network_id_hex and network_id_env set; network_id_hex takes precedence",
			Level:   "warning",
		})
	}
	if cfg.KeyStore.Type == "file" && cfg.KeyStore.Directory == "" {
		issues = append(issues, ValidationIssue{
			Field:   "keystore.directory",
			Message: "keystore type \"file\" requires a directory",
			Level:   "error",
		})
	}

	return issues
}

// Copyright 2025 The Arcan Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/zengwei2000/arcan/pkg/beacon"
	"github.com/zengwei2000/arcan/pkg/log"
	"github.com/zengwei2000/arcan/pkg/private/serrors"
)

// Config is the discovery daemon configuration.
type Config struct {
	Logging   log.Config      `toml:"log,omitempty"`
	Metrics   MetricsConfig   `toml:"metrics,omitempty"`
	Discovery DiscoveryConfig `toml:"discovery,omitempty"`
}

// MetricsConfig configures the metrics endpoint.
type MetricsConfig struct {
	// Prometheus is the address the prometheus exporter listens on.
	// Empty disables the exporter.
	Prometheus string `toml:"prometheus,omitempty"`
}

// DiscoveryConfig configures the beacon emitter and listener.
type DiscoveryConfig struct {
	// Keystore is the keystore directory.
	Keystore string `toml:"keystore,omitempty"`
	// Port is the UDP beacon port.
	Port uint16 `toml:"port,omitempty"`
	// Timesleep is the pause in seconds between emission cycles once the
	// keystore has been exhausted.
	Timesleep uint `toml:"timesleep,omitempty"`
}

// InitDefaults populates unset fields with their default values.
func (cfg *Config) InitDefaults() {
	cfg.Logging.InitDefaults()
	if cfg.Discovery.Port == 0 {
		cfg.Discovery.Port = beacon.Port
	}
	if cfg.Discovery.Timesleep == 0 {
		cfg.Discovery.Timesleep = 10
	}
}

// Validate validates the config.
func (cfg *Config) Validate() error {
	if err := cfg.Logging.Validate(); err != nil {
		return err
	}
	if cfg.Discovery.Keystore == "" {
		return serrors.New("discovery.keystore must be set")
	}
	return nil
}

func loadConfig(path string, cfg *Config) error {
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return serrors.Wrap("reading config file", err, "file", path)
		}
		if err := toml.Unmarshal(raw, cfg); err != nil {
			return serrors.Wrap("parsing config file", err, "file", path)
		}
	}
	cfg.InitDefaults()
	return cfg.Validate()
}

const configSample = `# Local discovery daemon configuration.

[log.console]
# Console logging level (debug|info|error).
level = "info"
# Console logging format (human|json).
format = "human"

[metrics]
# Address of the prometheus exporter. Empty disables it.
prometheus = ""

[discovery]
# Keystore directory with accepted/ and hostkeys/ subdirectories.
keystore = "/etc/arcan/keystore"
# UDP beacon port.
port = 6680
# Seconds between emission cycles once the keystore is exhausted.
timesleep = 10
`

// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"time"

	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	"gopkg.in/yaml.v2"
)

var log = logging.GetLogger("config")

const (
	defaultHTTPPort       = 8080
	defaultSetupTimeout   = 5 * time.Second
	defaultRequestTimeout = 5 * time.Second
)

// NodeConfig identifies one E2 node the RIC manages and the RAN functions
// it is expected to advertise
type NodeConfig struct {
	Address   string  `yaml:"address"`
	NodeID    string  `yaml:"nodeID"`
	Functions []int32 `yaml:"functions"`
}

// E2Config holds the southbound interface settings
type E2Config struct {
	Nodes            []NodeConfig `yaml:"nodes"`
	SetupTimeoutMs   int          `yaml:"setupTimeoutMs"`
	RequestTimeoutMs int          `yaml:"requestTimeoutMs"`
}

// NorthboundConfig holds the control surface settings
type NorthboundConfig struct {
	HTTPPort int `yaml:"httpPort"`
}

// SDLConfig holds the shared data layer settings. An empty redis address
// selects the in-process backend.
type SDLConfig struct {
	RedisAddress string `yaml:"redisAddress"`
	RedisDB      int    `yaml:"redisDB"`
}

// Config is the process configuration
type Config struct {
	RicID      string           `yaml:"ricID"`
	E2         E2Config         `yaml:"e2"`
	Northbound NorthboundConfig `yaml:"northbound"`
	SDL        SDLConfig        `yaml:"sdl"`
	XApps      []string         `yaml:"xapps"`
}

// DefaultConfig returns a configuration with no nodes and default timeouts
func DefaultConfig() Config {
	return Config{
		RicID: "onos-ntn-ric",
		Northbound: NorthboundConfig{
			HTTPPort: defaultHTTPPort,
		},
		XApps: []string{"ntnmon", "kpimon"},
	}
}

// LoadFromYaml reads and validates a configuration file
func LoadFromYaml(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.New(errors.NotFound, "cannot read config %s: %v", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.New(errors.Invalid, "cannot parse config %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	log.Infof("loaded configuration from %s: %d nodes, xapps %v", path, len(cfg.E2.Nodes), cfg.XApps)
	return cfg, nil
}

// Validate checks the invariants the rest of the process relies on
func (c *Config) Validate() error {
	for i, node := range c.E2.Nodes {
		if node.NodeID == "" {
			return errors.New(errors.Invalid, "e2.nodes[%d]: nodeID is required", i)
		}
		if node.Address == "" {
			return errors.New(errors.Invalid, "e2.nodes[%d]: address is required", i)
		}
	}
	if c.Northbound.HTTPPort <= 0 {
		return errors.New(errors.Invalid, "northbound.httpPort must be positive")
	}
	return nil
}

// SetupTimeout returns the configured E2 setup timeout
func (c *Config) SetupTimeout() time.Duration {
	if c.E2.SetupTimeoutMs <= 0 {
		return defaultSetupTimeout
	}
	return time.Duration(c.E2.SetupTimeoutMs) * time.Millisecond
}

// RequestTimeout returns the configured E2 request timeout
func (c *Config) RequestTimeout() time.Duration {
	if c.E2.RequestTimeoutMs <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.E2.RequestTimeoutMs) * time.Millisecond
}

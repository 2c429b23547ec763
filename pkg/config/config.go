/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads configguard's run configuration and snapshots the
// environment variables that carry credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/carverauto/configguard/pkg/logger"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSSHPort        = 22
	DefaultSSHTimeout     = 30 * time.Second
	DefaultCommandTimeout = 60 * time.Second
	DefaultSWISPort       = 17774
	DefaultSWISTimeout    = 30 * time.Second
	DefaultNATSStream     = "CONFIGGUARD"
	DefaultNATSSubject    = "configguard.backup"
)

// Config is the run configuration. Every field has a usable default, so the
// YAML file is optional.
type Config struct {
	// BackupDir is the root under which per-domain directories are created.
	// Empty means the current working directory.
	BackupDir string        `yaml:"backup_dir" json:"backup_dir"`
	Workers   int           `yaml:"workers" json:"workers"`
	SSH       SSHConfig     `yaml:"ssh" json:"ssh"`
	SWIS      SWISConfig    `yaml:"swis" json:"swis"`
	Logging   logger.Config `yaml:"logging" json:"logging"`
	Metrics   MetricsConfig `yaml:"metrics" json:"metrics"`
	NATS      NATSConfig    `yaml:"nats" json:"nats"`
}

type SSHConfig struct {
	Port           int           `yaml:"port" json:"port"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	CommandTimeout time.Duration `yaml:"command_timeout" json:"command_timeout"`
	// KnownHostsFile enables host key verification when set.
	KnownHostsFile string `yaml:"known_hosts_file" json:"known_hosts_file"`
	// SOCKSProxy is a host:port SOCKS5 jump proxy devices are reached through.
	SOCKSProxy string `yaml:"socks_proxy" json:"socks_proxy"`
}

type SWISConfig struct {
	Port    int           `yaml:"port" json:"port"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// VerifyTLS turns on certificate verification; SWIS servers usually
	// present self-signed certificates.
	VerifyTLS bool `yaml:"verify_tls" json:"verify_tls"`
}

type MetricsConfig struct {
	// Textfile is a node_exporter textfile collector path.
	Textfile string `yaml:"textfile" json:"textfile"`
}

type NATSConfig struct {
	URL       string         `yaml:"url" json:"url"`
	Stream    string         `yaml:"stream" json:"stream"`
	Subject   string         `yaml:"subject" json:"subject"`
	CredsFile string         `yaml:"creds_file" json:"creds_file"`
	TLS       *NATSTLSConfig `yaml:"tls,omitempty" json:"tls,omitempty"`
}

// NATSTLSConfig enables mutual TLS towards the NATS server.
type NATSTLSConfig struct {
	CertFile   string `yaml:"cert_file" json:"cert_file"`
	KeyFile    string `yaml:"key_file" json:"key_file"`
	CAFile     string `yaml:"ca_file" json:"ca_file"`
	ServerName string `yaml:"server_name,omitempty" json:"server_name,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Logging: *logger.DefaultConfig(),
	}

	cfg.applyDefaults()

	return cfg
}

// Load reads a YAML configuration file over the defaults and validates it.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file '%s': %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML from '%s': %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in '%s': %w", path, err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Workers == 0 {
		c.Workers = 1
	}

	if c.SSH.Port == 0 {
		c.SSH.Port = DefaultSSHPort
	}

	if c.SSH.Timeout == 0 {
		c.SSH.Timeout = DefaultSSHTimeout
	}

	if c.SSH.CommandTimeout == 0 {
		c.SSH.CommandTimeout = DefaultCommandTimeout
	}

	if c.SWIS.Port == 0 {
		c.SWIS.Port = DefaultSWISPort
	}

	if c.SWIS.Timeout == 0 {
		c.SWIS.Timeout = DefaultSWISTimeout
	}

	if c.NATS.URL != "" {
		if c.NATS.Stream == "" {
			c.NATS.Stream = DefaultNATSStream
		}

		if c.NATS.Subject == "" {
			c.NATS.Subject = DefaultNATSSubject
		}
	}
}

// Validate fills zero values with defaults and rejects impossible settings.
func (c *Config) Validate() error {
	c.applyDefaults()

	if c.Workers < 0 {
		return errInvalidWorkers
	}

	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		return fmt.Errorf("ssh: %w", errInvalidPort)
	}

	if c.SWIS.Port < 1 || c.SWIS.Port > 65535 {
		return fmt.Errorf("swis: %w", errInvalidPort)
	}

	if c.SSH.Timeout < 0 || c.SSH.CommandTimeout < 0 {
		return fmt.Errorf("ssh: %w", errInvalidTimeout)
	}

	if c.SWIS.Timeout < 0 {
		return fmt.Errorf("swis: %w", errInvalidTimeout)
	}

	return nil
}

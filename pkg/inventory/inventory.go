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

// Package inventory assembles the list of devices to back up from the
// monitoring platform or from a CSV file.
package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/carverauto/configguard/pkg/config"
	"github.com/carverauto/configguard/pkg/logger"
	"github.com/carverauto/configguard/pkg/models"
	"github.com/carverauto/configguard/pkg/swis"
)

// MonitoringQuery selects the nodes flagged for backup with the ConfigGuard
// custom property.
const MonitoringQuery = "SELECT Nodes.NodeID, Nodes.DisplayName, Nodes.IPAddress " +
	"FROM Orion.Nodes INNER JOIN Orion.NodesCustomProperties " +
	"ON Nodes.NodeID = NodesCustomProperties.NodeID " +
	"WHERE NodesCustomProperties.ConfigGuard = TRUE"

// Builder accumulates devices. Every populate call appends; nothing is
// deduplicated.
type Builder struct {
	env       *config.Environment
	logger    logger.Logger
	newSource SourceFactory
	devices   []*models.Device
}

type Option func(*Builder)

// WithSourceFactory replaces the SWIS client used for the monitoring query.
func WithSourceFactory(factory SourceFactory) Option {
	return func(b *Builder) {
		b.newSource = factory
	}
}

// WithSWISConfig sets the transport settings of the default SWIS client.
func WithSWISConfig(cfg config.SWISConfig) Option {
	return func(b *Builder) {
		b.newSource = swisSourceFactory(cfg)
	}
}

// NewBuilder creates an empty inventory.
func NewBuilder(env *config.Environment, log logger.Logger, opts ...Option) *Builder {
	b := &Builder{
		env:       env,
		logger:    log,
		newSource: swisSourceFactory(config.SWISConfig{}),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

func swisSourceFactory(cfg config.SWISConfig) SourceFactory {
	return func(creds config.SWISCredentials) (MonitoringSource, error) {
		return swis.NewClient(creds.Server, creds.Username, creds.Password, cfg), nil
	}
}

// Devices returns the devices in discovery order.
func (b *Builder) Devices() []*models.Device {
	out := make([]*models.Device, len(b.devices))
	copy(out, b.devices)

	return out
}

// Len returns the number of devices collected so far.
func (b *Builder) Len() int {
	return len(b.devices)
}

// PopulateFromMonitoringSource appends every node flagged for backup on the
// monitoring platform. Each device gets its own copy of the environment
// credentials. On error nothing is appended.
func (b *Builder) PopulateFromMonitoringSource(ctx context.Context) (int, error) {
	creds, err := b.env.SWISCredentials()
	if err != nil {
		b.logger.Error().Err(err).Msg("Monitoring platform configuration is incomplete")

		return 0, err
	}

	source, err := b.newSource(creds)
	if err != nil {
		b.logger.Error().Err(err).Str("server", creds.Server).Msg("Failed to create monitoring platform client")

		return 0, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	nodes, err := source.QueryNodes(ctx, MonitoringQuery)
	if err != nil {
		b.logger.Error().Err(err).Str("server", creds.Server).Msg("Error querying monitoring platform")

		return 0, fmt.Errorf("%w: query against %s failed: %w", ErrSourceUnavailable, creds.Server, err)
	}

	var credential models.Credential

	if err := credential.PopulateFromEnvironment(b.env, b.logger); err != nil {
		return 0, err
	}

	devices := make([]*models.Device, 0, len(nodes))

	for _, node := range nodes {
		ip := strings.TrimSpace(node.IPAddress)
		if ip == "" {
			b.logger.Warn().Int64("node_id", node.NodeID).Str("hostname", node.DisplayName).
				Msg("Skipping node without an IP address")

			continue
		}

		hostname := strings.TrimSpace(node.DisplayName)
		if hostname == "" {
			hostname = ip
		}

		devices = append(devices, models.NewDevice(hostname, ip, credential))
	}

	b.devices = append(b.devices, devices...)

	b.logger.Info().
		Int("added", len(devices)).
		Int("total", len(b.devices)).
		Str("server", creds.Server).
		Msg("Devices populated from monitoring platform")

	return len(devices), nil
}

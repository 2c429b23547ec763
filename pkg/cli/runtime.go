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

package cli

import (
	"context"
	"fmt"

	"github.com/carverauto/configguard/pkg/config"
	"github.com/carverauto/configguard/pkg/inventory"
	"github.com/carverauto/configguard/pkg/logger"
	"github.com/carverauto/configguard/pkg/models"
	"github.com/urfave/cli/v3"
)

// runtime is what every command needs once flags are parsed.
type runtime struct {
	cfg *config.Config
	env *config.Environment
	log *logger.Impl
}

func (d deps) setup(cmd *cli.Command) (*runtime, error) {
	cfg, err := config.Load(cmd.String(flagConfig))
	if err != nil {
		return nil, err
	}

	applyOverrides(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg: cfg,
		env: d.environment(),
		log: log,
	}, nil
}

func (rt *runtime) close() {
	_ = rt.log.Close()
}

// applyOverrides copies explicitly set flags over the file configuration.
func applyOverrides(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet(flagLogLevel) {
		cfg.Logging.Level = cmd.String(flagLogLevel)
	}

	if cmd.IsSet(flagLogFile) {
		cfg.Logging.Output = cmd.String(flagLogFile)
	}

	if cmd.IsSet(flagBackupDir) {
		cfg.BackupDir = cmd.String(flagBackupDir)
	}

	if cmd.IsSet(flagWorkers) {
		cfg.Workers = cmd.Int(flagWorkers)
	}

	if cmd.IsSet(flagMetricsTextfile) {
		cfg.Metrics.Textfile = cmd.String(flagMetricsTextfile)
	}

	if cmd.IsSet(flagNATSURL) {
		cfg.NATS.URL = cmd.String(flagNATSURL)
	}
}

// buildInventory populates from the monitoring platform first, then from
// each CSV file in order. The first error aborts.
func (d deps) buildInventory(ctx context.Context, cmd *cli.Command, rt *runtime) ([]*models.Device, error) {
	opts := []inventory.Option{inventory.WithSWISConfig(rt.cfg.SWIS)}
	if d.newSource != nil {
		opts = append(opts, inventory.WithSourceFactory(d.newSource))
	}

	builder := inventory.NewBuilder(rt.env, rt.log, opts...)
	files := cmd.StringSlice(flagCSV)

	if !cmd.Bool(flagSolarWinds) && len(files) == 0 {
		return nil, errNoSource
	}

	if cmd.Bool(flagSolarWinds) {
		if _, err := builder.PopulateFromMonitoringSource(ctx); err != nil {
			return nil, fmt.Errorf("failed to build inventory: %w", err)
		}
	}

	for _, path := range files {
		if _, err := builder.PopulateFromFile(path, cmd.Bool(flagCSVEnvCredentials)); err != nil {
			return nil, fmt.Errorf("failed to build inventory: %w", err)
		}
	}

	return builder.Devices(), nil
}

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

// Package cli implements the configguard command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/carverauto/configguard/pkg/config"
	"github.com/carverauto/configguard/pkg/inventory"
	"github.com/carverauto/configguard/pkg/logger"
	"github.com/carverauto/configguard/pkg/session"
	"github.com/carverauto/configguard/pkg/version"
	"github.com/urfave/cli/v3"
)

const name = "configguard"

const (
	flagConfig            = "config"
	flagLogLevel          = "log-level"
	flagLogFile           = "log-file"
	flagSolarWinds        = "solarwinds"
	flagCSV               = "csv"
	flagCSVEnvCredentials = "csv-env-credentials"
	flagBackupDir         = "backup-dir"
	flagWorkers           = "workers"
	flagFailOnError       = "fail-on-error"
	flagMetricsTextfile   = "metrics-textfile"
	flagNATSURL           = "nats-url"
	flagFormat            = "format"
)

// deps are the process-level collaborators, replaced in tests.
type deps struct {
	environment       func() *config.Environment
	newSessionFactory func(config.SSHConfig, logger.Logger) (session.Factory, error)
	// newSource replaces the SWIS client when set.
	newSource inventory.SourceFactory
	stdout    io.Writer
}

func defaultDeps() deps {
	return deps{
		environment:       config.LoadEnvironment,
		newSessionFactory: session.NewSSHFactory,
		stdout:            os.Stdout,
	}
}

// Execute runs the command line and exits non-zero on error. SIGINT and
// SIGTERM cancel the run.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// NewCommand returns the root command.
func NewCommand() *cli.Command {
	return newCommand(defaultDeps())
}

func newCommand(d deps) *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Back up network device configurations over SSH",
		Version: version.GetFullVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Usage:   "YAML run configuration file",
				Sources: cli.EnvVars("CONFIGGUARD_CONFIG"),
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "log level (trace, debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "append logs to this file instead of stdout",
			},
		},
		Commands: []*cli.Command{
			backupCmd(d),
			inventoryCmd(d),
		},
	}
}

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  flagSolarWinds,
			Usage: "add the nodes flagged for backup in SolarWinds (needs swis_server, swis_username, swis_password)",
		},
		&cli.StringSliceFlag{
			Name:  flagCSV,
			Usage: "add the devices listed in a CSV file, can be repeated",
		},
		&cli.BoolFlag{
			Name:  flagCSVEnvCredentials,
			Usage: "take CSV device credentials from network_username, network_password and network_enable",
		},
	}
}

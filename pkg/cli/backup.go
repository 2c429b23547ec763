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

	"github.com/carverauto/configguard/pkg/backup"
	"github.com/carverauto/configguard/pkg/natsutil"
	"github.com/urfave/cli/v3"
)

func backupCmd(d deps) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  flagBackupDir,
			Usage: "directory that receives <domain>/<hostname>_<timestamp>_backup.txt (default: working directory)",
		},
		&cli.IntFlag{
			Name:  flagWorkers,
			Usage: "number of devices backed up concurrently",
		},
		&cli.BoolFlag{
			Name:  flagFailOnError,
			Usage: "exit non-zero when any device backup fails",
		},
		&cli.StringFlag{
			Name:  flagMetricsTextfile,
			Usage: "write run metrics to this node_exporter textfile",
		},
		&cli.StringFlag{
			Name:  flagNATSURL,
			Usage: "publish a CloudEvent per device result to this NATS server",
		},
	}

	return &cli.Command{
		Name:  "backup",
		Usage: "Back up the running configuration of every device in the inventory",
		Flags: append(sourceFlags(), flags...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return d.runBackup(ctx, cmd)
		},
	}
}

func (d deps) runBackup(ctx context.Context, cmd *cli.Command) error {
	rt, err := d.setup(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	devices, err := d.buildInventory(ctx, cmd, rt)
	if err != nil {
		rt.log.Error().Err(err).Msg("Inventory population failed, aborting")

		return err
	}

	factory, err := d.newSessionFactory(rt.cfg.SSH, rt.log)
	if err != nil {
		return err
	}

	metrics := backup.NewMetrics()
	opts := []backup.Option{
		backup.WithWorkers(rt.cfg.Workers),
		backup.WithMetrics(metrics),
	}

	if rt.cfg.NATS.URL != "" {
		publisher, nc, err := natsutil.ConnectWithEventPublisher(ctx, rt.cfg.NATS, rt.log)
		if err != nil {
			rt.log.Warn().Err(err).Str("url", rt.cfg.NATS.URL).Msg("Backup results will not be published")
		} else {
			defer nc.Close()

			opts = append(opts, backup.WithNotifier(publisher))
		}
	}

	orchestrator := backup.NewOrchestrator(factory, backup.NewStore(rt.cfg.BackupDir, nil), rt.log, opts...)
	summary := orchestrator.BackupAll(ctx, devices)

	if rt.cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(rt.cfg.Metrics.Textfile); err != nil {
			rt.log.Warn().Err(err).Msg("Failed to write metrics")
		}
	}

	if summary.Failed() > 0 && cmd.Bool(flagFailOnError) {
		return fmt.Errorf("%w: %d of %d", errBackupFailures, summary.Failed(), len(summary.Results))
	}

	return nil
}

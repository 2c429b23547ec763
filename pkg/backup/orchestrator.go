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

// Package backup visits devices, retrieves their running configuration and
// stores it on disk grouped by domain.
package backup

import (
	"context"
	"fmt"

	"github.com/carverauto/configguard/pkg/logger"
	"github.com/carverauto/configguard/pkg/models"
	"github.com/carverauto/configguard/pkg/session"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Orchestrator backs up devices one at a time, or with a bounded pool of
// workers. A failing device never stops the others.
type Orchestrator struct {
	factory  session.Factory
	store    *Store
	logger   logger.Logger
	workers  int
	metrics  *Metrics
	notifier Notifier
	clock    Clock
}

type Option func(*Orchestrator)

// WithWorkers sets how many devices are visited concurrently. Values below
// two keep the run sequential.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		o.workers = n
	}
}

func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

func WithClock(c Clock) Option {
	return func(o *Orchestrator) {
		o.clock = c
	}
}

func NewOrchestrator(factory session.Factory, store *Store, log logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		factory: factory,
		store:   store,
		logger:  log,
		workers: 1,
		clock:   realClock{},
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// BackupAll visits every device and returns their results in the order of
// devices. Once ctx is done no new visits start; the remaining devices are
// reported as session errors.
func (o *Orchestrator) BackupAll(ctx context.Context, devices []*models.Device) *Summary {
	summary := &Summary{
		RunID:   uuid.New().String(),
		Started: o.clock.Now(),
		Results: make([]Result, len(devices)),
	}

	o.logger.Info().
		Str("run_id", summary.RunID).
		Int("devices", len(devices)).
		Int("workers", max(o.workers, 1)).
		Msg("Starting backup run")

	visit := func(i int, device *models.Device) {
		var result Result

		if err := ctx.Err(); err != nil {
			result = o.notVisited(device, err)
		} else {
			result = o.VisitAndBackup(ctx, device)
		}

		summary.Results[i] = result
		o.report(ctx, summary.RunID, result)
	}

	if o.workers > 1 {
		var g errgroup.Group

		g.SetLimit(o.workers)

		for i, device := range devices {
			g.Go(func() error {
				visit(i, device)

				return nil
			})
		}

		_ = g.Wait()
	} else {
		for i, device := range devices {
			visit(i, device)
		}
	}

	summary.Finished = o.clock.Now()

	if o.metrics != nil {
		o.metrics.ObserveRun(summary)
	}

	o.logger.Info().
		Str("run_id", summary.RunID).
		Int("succeeded", summary.Succeeded()).
		Int("failed", summary.Failed()).
		Dur("elapsed", summary.Finished.Sub(summary.Started)).
		Msg("Backup run finished")

	return summary
}

func (o *Orchestrator) notVisited(device *models.Device, err error) Result {
	now := o.clock.Now()
	result := Result{
		Hostname:  device.Hostname,
		IPAddress: device.IPAddress,
		Domain:    device.Domain(),
		Kind:      KindSessionError,
		Err:       fmt.Errorf("%w: %w", errNotScheduled, err),
		Started:   now,
		Finished:  now,
	}

	o.logger.Error().Err(result.Err).
		Str("hostname", device.Hostname).
		Str("ip_address", device.IPAddress).
		Str("kind", string(result.Kind)).
		Msg("Run cancelled before device was visited")

	return result
}

func (o *Orchestrator) report(ctx context.Context, runID string, result Result) {
	if o.metrics != nil {
		o.metrics.ObserveResult(result)
	}

	if o.notifier == nil {
		return
	}

	// results of a cancelled run are still worth publishing
	if err := o.notifier.PublishResult(context.WithoutCancel(ctx), runID, result); err != nil {
		o.logger.Warn().Err(err).Str("hostname", result.Hostname).Msg("Failed to publish backup result")
	}
}

// VisitAndBackup connects to one device, saves its running configuration and
// resolves its domain. Every failure is logged once and returned in the
// Result.
func (o *Orchestrator) VisitAndBackup(ctx context.Context, device *models.Device) Result {
	result := Result{
		Hostname:  device.Hostname,
		IPAddress: device.IPAddress,
		Started:   o.clock.Now(),
	}

	path, err := o.visit(ctx, device)

	result.Finished = o.clock.Now()
	result.Domain = device.Domain()

	if err != nil {
		result.Kind = Classify(err)
		result.Err = err
		o.logFailure(device, result)

		return result
	}

	result.Path = path

	o.logger.Info().
		Str("hostname", device.Hostname).
		Str("ip_address", device.IPAddress).
		Str("domain", result.Domain).
		Str("path", path).
		Msg("Backup saved")

	return result
}

func (o *Orchestrator) visit(ctx context.Context, device *models.Device) (string, error) {
	client := o.factory(session.Target{
		Host:         device.IPAddress,
		Username:     device.Credential.Username,
		Password:     device.Credential.Password,
		EnableSecret: device.Credential.EnableSecret,
	})

	if err := client.Connect(ctx); err != nil {
		return "", err
	}

	defer func() {
		if err := client.Disconnect(); err != nil {
			o.logger.Warn().Err(err).Str("hostname", device.Hostname).Msg("Failed to disconnect cleanly")
		}
	}()

	if err := client.EnterPrivilegedMode(ctx); err != nil {
		return "", err
	}

	o.logger.Info().Str("hostname", device.Hostname).Str("ip_address", device.IPAddress).Msg("Connected to device")

	config, err := client.Execute(ctx, CommandShowRunningConfig)
	if err != nil {
		return "", err
	}

	domain, err := ResolveDomain(ctx, client)
	if err != nil {
		return "", err
	}

	if err := device.ResolveDomain(domain); err != nil {
		return "", err
	}

	return o.store.Save(device, config)
}

func (o *Orchestrator) logFailure(device *models.Device, result Result) {
	var msg string

	switch result.Kind {
	case KindConnectTimeout:
		msg = "Timed out connecting to device"
	case KindAuthenticationFailed:
		msg = "Authentication failed on device"
	case KindPersistenceError:
		msg = "Failed to save device backup"
	default:
		msg = "Session error while backing up device"
	}

	o.logger.Error().Err(result.Err).
		Str("hostname", device.Hostname).
		Str("ip_address", device.IPAddress).
		Str("kind", string(result.Kind)).
		Msg(msg)
}

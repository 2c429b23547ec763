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

package backup

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const kindLabelNone = "none"

// Metrics records run statistics on a private registry so they can be
// written to a node_exporter textfile after the run.
type Metrics struct {
	registry *prometheus.Registry

	backupsTotal   *prometheus.CounterVec
	backupDuration prometheus.Histogram
	inventorySize  prometheus.Gauge
	lastRun        prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		backupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "configguard_backups_total",
				Help: "Device backups attempted, by outcome and failure kind",
			},
			[]string{"outcome", "kind"},
		),
		backupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "configguard_backup_duration_seconds",
				Help:    "Time taken to back up a single device",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),
		inventorySize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "configguard_inventory_devices",
				Help: "Number of devices in the inventory of the last run",
			},
		),
		lastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "configguard_last_run_timestamp_seconds",
				Help: "Unix time at which the last run finished",
			},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveResult counts one device visit.
func (m *Metrics) ObserveResult(r Result) {
	kind := string(r.Kind)
	if kind == "" {
		kind = kindLabelNone
	}

	m.backupsTotal.WithLabelValues(r.Outcome(), kind).Inc()
	m.backupDuration.Observe(r.Duration().Seconds())
}

// ObserveRun records the inventory size and completion time of a run.
func (m *Metrics) ObserveRun(s *Summary) {
	m.inventorySize.Set(float64(len(s.Results)))
	m.lastRun.Set(float64(s.Finished.Unix()))
}

// WriteTextfile atomically writes all metrics in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}

	return nil
}

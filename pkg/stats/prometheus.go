/*
 * Copyright 2026 Lumenfleet, Inc.
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

// Package stats exposes Prometheus counters for engine self-instrumentation.
package stats

import "github.com/prometheus/client_golang/prometheus"

var (
	HeartbeatsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_heartbeats_processed_total",
			Help: "Total number of device heartbeats processed",
		},
	)

	MetricSamplesRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_metric_samples_recorded_total",
			Help: "Total number of metric samples appended to history",
		},
	)

	AlertsRaised = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_alerts_raised_total",
			Help: "Total number of alerts raised, by severity",
		},
		[]string{"severity"},
	)

	SweepIterations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_sweep_iterations_total",
			Help: "Total number of background sweep iterations",
		},
	)

	DevicesOffline = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_devices_marked_offline_total",
			Help: "Total number of offline transitions detected by the sweep",
		},
	)

	PlaybacksFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_playbacks_failed_total",
			Help: "Total number of proof-of-play records failed as overdue",
		},
	)

	NotificationsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_notifications_dropped_total",
			Help: "Total number of alert notifications dropped on queue overflow",
		},
	)
)

func init() {
	prometheus.MustRegister(HeartbeatsProcessed)
	prometheus.MustRegister(MetricSamplesRecorded)
	prometheus.MustRegister(AlertsRaised)
	prometheus.MustRegister(SweepIterations)
	prometheus.MustRegister(DevicesOffline)
	prometheus.MustRegister(PlaybacksFailed)
	prometheus.MustRegister(NotificationsDropped)
}

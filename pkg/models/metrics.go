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

package models

import "time"

// MetricType identifies a device health metric channel.
type MetricType string

const (
	MetricCPUUsage        MetricType = "cpu_usage"
	MetricMemoryUsage     MetricType = "memory_usage"
	MetricStorageUsage    MetricType = "storage_usage"
	MetricNetworkStrength MetricType = "network_strength"
	MetricTemperature     MetricType = "temperature"
	MetricBandwidth       MetricType = "bandwidth"
	MetricContentErrors   MetricType = "content_errors"
	MetricUptime          MetricType = "uptime"
	MetricResponseTime    MetricType = "response_time"
)

// metricNames is the fixed heartbeat-key to metric-type table. Keys not in
// this table are ignored, not errors.
var metricNames = map[string]MetricType{
	"cpu_usage":        MetricCPUUsage,
	"memory_usage":     MetricMemoryUsage,
	"storage_usage":    MetricStorageUsage,
	"network_strength": MetricNetworkStrength,
	"temperature":      MetricTemperature,
	"bandwidth":        MetricBandwidth,
	"content_errors":   MetricContentErrors,
	"uptime":           MetricUptime,
	"response_time":    MetricResponseTime,
}

// MetricTypeFromName maps a heartbeat metric key to its MetricType.
func MetricTypeFromName(name string) (MetricType, bool) {
	t, ok := metricNames[name]
	return t, ok
}

// HealthMetric is a single immutable sample for one device metric channel.
type HealthMetric struct {
	ID        string            `json:"id"`
	DeviceID  string            `json:"device_id"`
	Type      MetricType        `json:"metric_type"`
	Value     float64           `json:"value"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Heartbeat is the payload of one inbound device report.
type Heartbeat struct {
	Metrics          map[string]float64 `json:"metrics"`
	CurrentContentID string             `json:"current_content_id,omitempty"`
}

// HeartbeatResult summarizes the state derived from one processed heartbeat.
type HeartbeatResult struct {
	DeviceID         string       `json:"device_id"`
	Status           DeviceStatus `json:"status"`
	PerformanceScore float64      `json:"performance_score"`
	MetricsProcessed int          `json:"metrics_processed"`
	ActiveAlerts     int          `json:"active_alert_count"`
}

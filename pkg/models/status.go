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

// DeviceStatus is the derived overall state of a device.
type DeviceStatus string

const (
	StatusHealthy     DeviceStatus = "healthy"
	StatusWarning     DeviceStatus = "warning"
	StatusCritical    DeviceStatus = "critical"
	StatusOffline     DeviceStatus = "offline"
	StatusMaintenance DeviceStatus = "maintenance"
)

// MaintenanceWindow is a planned interval during which a device is expected
// to be unreachable.
type MaintenanceWindow struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason string    `json:"reason,omitempty"`
}

// Contains reports whether t falls inside the window.
func (w MaintenanceWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// SLACompliance compares measured uptime and performance against targets.
type SLACompliance struct {
	UptimeTarget         float64 `json:"uptime_target"`
	UptimeActual         float64 `json:"uptime_actual"`
	UptimeCompliant      bool    `json:"uptime_compliant"`
	PerformanceTarget    float64 `json:"performance_target"`
	PerformanceActual    float64 `json:"performance_actual"`
	PerformanceCompliant bool    `json:"performance_compliant"`
}

// DeviceHealthStatus is the full health query result for one device. A
// device that has never sent a heartbeat reports StatusOffline with a nil
// LastHeartbeat rather than an error.
type DeviceHealthStatus struct {
	DeviceID         string                 `json:"device_id"`
	Status           DeviceStatus           `json:"status"`
	PerformanceScore float64                `json:"performance_score"`
	Uptime24h        float64                `json:"uptime_24h"`
	LastHeartbeat    *time.Time             `json:"last_heartbeat,omitempty"`
	CurrentMetrics   map[MetricType]float64 `json:"current_metrics"`
	ActiveAlerts     []HealthAlert          `json:"active_alerts"`
	SLA              SLACompliance          `json:"sla_compliance"`
}

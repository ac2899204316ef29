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

// AlertSeverity classifies how urgent an alert condition is.
type AlertSeverity string

const (
	SeverityInfo      AlertSeverity = "info"
	SeverityWarning   AlertSeverity = "warning"
	SeverityCritical  AlertSeverity = "critical"
	SeverityEmergency AlertSeverity = "emergency"
)

// Rank orders severities for comparison: info < warning < critical < emergency.
func (s AlertSeverity) Rank() int {
	switch s {
	case SeverityInfo:
		return 0
	case SeverityWarning:
		return 1
	case SeverityCritical:
		return 2
	case SeverityEmergency:
		return 3
	default:
		return -1
	}
}

// HealthAlert records one threshold breach. Created by the threshold
// evaluator; only acknowledge/resolve mutate it afterwards.
type HealthAlert struct {
	ID           string        `json:"id"`
	DeviceID     string        `json:"device_id"`
	MetricType   MetricType    `json:"metric_type"`
	Severity     AlertSeverity `json:"severity"`
	Message      string        `json:"message"`
	CurrentValue float64       `json:"current_value"`
	Threshold    float64       `json:"threshold"`
	CreatedAt    time.Time     `json:"created_at"`
	Acknowledged bool          `json:"acknowledged"`
	Resolved     bool          `json:"resolved"`
	ResolvedAt   *time.Time    `json:"resolved_at,omitempty"`
}

// CooldownKey is the uniqueness key used to suppress duplicate raises while
// a condition persists.
type CooldownKey struct {
	DeviceID   string
	MetricType MetricType
	Severity   AlertSeverity
}

func (a *HealthAlert) CooldownKey() CooldownKey {
	return CooldownKey{DeviceID: a.DeviceID, MetricType: a.MetricType, Severity: a.Severity}
}

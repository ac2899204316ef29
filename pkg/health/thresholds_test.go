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

package health

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumenfleet/pulse/pkg/models"
)

func TestEvaluateThreshold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		metricType   models.MetricType
		value        float64
		wantSeverity models.AlertSeverity
		wantBreached bool
	}{
		{name: "cpu nominal", metricType: models.MetricCPUUsage, value: 50, wantBreached: false},
		{name: "cpu warning at boundary", metricType: models.MetricCPUUsage, value: 70, wantSeverity: models.SeverityWarning, wantBreached: true},
		{name: "cpu warning", metricType: models.MetricCPUUsage, value: 85, wantSeverity: models.SeverityWarning, wantBreached: true},
		{name: "cpu critical at boundary", metricType: models.MetricCPUUsage, value: 90, wantSeverity: models.SeverityCritical, wantBreached: true},
		{name: "memory warning", metricType: models.MetricMemoryUsage, value: 80, wantSeverity: models.SeverityWarning, wantBreached: true},
		{name: "memory critical", metricType: models.MetricMemoryUsage, value: 96, wantSeverity: models.SeverityCritical, wantBreached: true},
		{name: "storage nominal", metricType: models.MetricStorageUsage, value: 84.9, wantBreached: false},
		{name: "storage critical", metricType: models.MetricStorageUsage, value: 95, wantSeverity: models.SeverityCritical, wantBreached: true},
		{name: "signal strong", metricType: models.MetricNetworkStrength, value: 80, wantBreached: false},
		{name: "signal weak warning", metricType: models.MetricNetworkStrength, value: 35, wantSeverity: models.SeverityWarning, wantBreached: true},
		{name: "signal weak critical", metricType: models.MetricNetworkStrength, value: 15, wantSeverity: models.SeverityCritical, wantBreached: true},
		{name: "signal at warning boundary not breached", metricType: models.MetricNetworkStrength, value: 40, wantBreached: false},
		{name: "temperature warning", metricType: models.MetricTemperature, value: 75, wantSeverity: models.SeverityWarning, wantBreached: true},
		{name: "temperature critical", metricType: models.MetricTemperature, value: 85, wantSeverity: models.SeverityCritical, wantBreached: true},
		{name: "bandwidth starved", metricType: models.MetricBandwidth, value: 1.5, wantSeverity: models.SeverityCritical, wantBreached: true},
		{name: "bandwidth low", metricType: models.MetricBandwidth, value: 8, wantSeverity: models.SeverityWarning, wantBreached: true},
		{name: "content errors elevated", metricType: models.MetricContentErrors, value: 6, wantSeverity: models.SeverityWarning, wantBreached: true},
		{name: "content errors severe", metricType: models.MetricContentErrors, value: 25, wantSeverity: models.SeverityCritical, wantBreached: true},
		{name: "uptime healthy", metricType: models.MetricUptime, value: 99.9, wantBreached: false},
		{name: "uptime slipping", metricType: models.MetricUptime, value: 93, wantSeverity: models.SeverityWarning, wantBreached: true},
		{name: "uptime critical", metricType: models.MetricUptime, value: 85, wantSeverity: models.SeverityCritical, wantBreached: true},
		{name: "response time slow", metricType: models.MetricResponseTime, value: 2500, wantSeverity: models.SeverityWarning, wantBreached: true},
		{name: "response time stalled", metricType: models.MetricResponseTime, value: 6000, wantSeverity: models.SeverityCritical, wantBreached: true},
		{name: "unknown metric never breaches", metricType: models.MetricType("fan_speed"), value: 1e9, wantBreached: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			severity, threshold, breached := EvaluateThreshold(tt.metricType, tt.value)

			assert.Equal(t, tt.wantBreached, breached)

			if tt.wantBreached {
				assert.Equal(t, tt.wantSeverity, severity)
				assert.NotZero(t, threshold)
			}
		})
	}
}

// A critical breach must win over the warning band it also sits in.
func TestEvaluateThresholdCriticalWinsOverWarning(t *testing.T) {
	t.Parallel()

	severity, threshold, breached := EvaluateThreshold(models.MetricCPUUsage, 99)

	assert.True(t, breached)
	assert.Equal(t, models.SeverityCritical, severity)
	assert.Equal(t, 90.0, threshold)

	severity, threshold, breached = EvaluateThreshold(models.MetricNetworkStrength, 5)

	assert.True(t, breached)
	assert.Equal(t, models.SeverityCritical, severity)
	assert.Equal(t, 20.0, threshold)
}

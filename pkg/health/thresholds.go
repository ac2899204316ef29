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
	"fmt"

	"github.com/lumenfleet/pulse/pkg/models"
)

// ThresholdEntry is the static alerting configuration for one metric type.
// For inverted metrics lower values are worse and the comparisons reverse.
type ThresholdEntry struct {
	Warning  float64
	Critical float64
	Inverted bool
}

// defaultThresholds is the per-metric threshold table.
var defaultThresholds = map[models.MetricType]ThresholdEntry{
	models.MetricCPUUsage:        {Warning: 70, Critical: 90},
	models.MetricMemoryUsage:     {Warning: 80, Critical: 95},
	models.MetricStorageUsage:    {Warning: 85, Critical: 95},
	models.MetricNetworkStrength: {Warning: 40, Critical: 20, Inverted: true},
	models.MetricTemperature:     {Warning: 70, Critical: 80},
	models.MetricBandwidth:       {Warning: 10, Critical: 2, Inverted: true},
	models.MetricContentErrors:   {Warning: 5, Critical: 20},
	models.MetricUptime:          {Warning: 95, Critical: 90, Inverted: true},
	models.MetricResponseTime:    {Warning: 1000, Critical: 5000},
}

// EvaluateThreshold checks a sample value against the threshold table and
// returns at most one breach: the severity and the threshold that was
// crossed. The bool is false when the value is within bounds or the metric
// has no threshold entry.
func EvaluateThreshold(metricType models.MetricType, value float64) (models.AlertSeverity, float64, bool) {
	entry, ok := defaultThresholds[metricType]
	if !ok {
		return "", 0, false
	}

	if entry.Inverted {
		if value < entry.Critical {
			return models.SeverityCritical, entry.Critical, true
		}

		if value < entry.Warning {
			return models.SeverityWarning, entry.Warning, true
		}

		return "", 0, false
	}

	if value >= entry.Critical {
		return models.SeverityCritical, entry.Critical, true
	}

	if value >= entry.Warning {
		return models.SeverityWarning, entry.Warning, true
	}

	return "", 0, false
}

func thresholdMessage(metricType models.MetricType, severity models.AlertSeverity, value, threshold float64) string {
	return fmt.Sprintf("%s %s: value %.2f crossed threshold %.2f", metricType, severity, value, threshold)
}

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
	"time"

	"github.com/lumenfleet/pulse/pkg/models"
)

// DeriveStatus combines heartbeat recency, active alerts and maintenance
// windows into a device status. Priority, first match wins:
// maintenance > offline > critical > warning > healthy.
func DeriveStatus(
	now time.Time,
	lastHeartbeat time.Time,
	offlineThreshold time.Duration,
	windows []models.MaintenanceWindow,
	highestActive models.AlertSeverity,
	hasActiveAlerts bool,
) models.DeviceStatus {
	for _, w := range windows {
		if w.Contains(now) {
			return models.StatusMaintenance
		}
	}

	if lastHeartbeat.IsZero() || now.Sub(lastHeartbeat) > offlineThreshold {
		return models.StatusOffline
	}

	if hasActiveAlerts {
		if highestActive.Rank() >= models.SeverityCritical.Rank() {
			return models.StatusCritical
		}

		if highestActive == models.SeverityWarning {
			return models.StatusWarning
		}
	}

	return models.StatusHealthy
}

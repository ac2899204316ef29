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
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lumenfleet/pulse/pkg/models"
)

func TestDeriveStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	threshold := 600 * time.Second

	inWindow := []models.MaintenanceWindow{{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}}
	pastWindow := []models.MaintenanceWindow{{Start: now.Add(-3 * time.Hour), End: now.Add(-2 * time.Hour)}}

	tests := []struct {
		name          string
		lastHeartbeat time.Time
		windows       []models.MaintenanceWindow
		highest       models.AlertSeverity
		hasActive     bool
		want          models.DeviceStatus
	}{
		{
			name:          "recent heartbeat no alerts",
			lastHeartbeat: now.Add(-time.Minute),
			want:          models.StatusHealthy,
		},
		{
			name: "never seen",
			want: models.StatusOffline,
		},
		{
			name:          "silent past threshold",
			lastHeartbeat: now.Add(-threshold - time.Second),
			want:          models.StatusOffline,
		},
		{
			name:          "silent exactly at threshold still online",
			lastHeartbeat: now.Add(-threshold),
			want:          models.StatusHealthy,
		},
		{
			name:          "warning alert",
			lastHeartbeat: now.Add(-time.Minute),
			highest:       models.SeverityWarning,
			hasActive:     true,
			want:          models.StatusWarning,
		},
		{
			name:          "critical alert",
			lastHeartbeat: now.Add(-time.Minute),
			highest:       models.SeverityCritical,
			hasActive:     true,
			want:          models.StatusCritical,
		},
		{
			name:          "emergency ranks as critical status",
			lastHeartbeat: now.Add(-time.Minute),
			highest:       models.SeverityEmergency,
			hasActive:     true,
			want:          models.StatusCritical,
		},
		{
			name:          "info alert stays healthy",
			lastHeartbeat: now.Add(-time.Minute),
			highest:       models.SeverityInfo,
			hasActive:     true,
			want:          models.StatusHealthy,
		},
		{
			name:          "maintenance beats offline",
			lastHeartbeat: now.Add(-24 * time.Hour),
			windows:       inWindow,
			want:          models.StatusMaintenance,
		},
		{
			name:          "maintenance beats critical",
			lastHeartbeat: now.Add(-time.Minute),
			windows:       inWindow,
			highest:       models.SeverityCritical,
			hasActive:     true,
			want:          models.StatusMaintenance,
		},
		{
			name:          "expired window has no effect",
			lastHeartbeat: now.Add(-24 * time.Hour),
			windows:       pastWindow,
			want:          models.StatusOffline,
		},
		{
			name:          "offline beats critical",
			lastHeartbeat: now.Add(-time.Hour),
			highest:       models.SeverityCritical,
			hasActive:     true,
			want:          models.StatusOffline,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := DeriveStatus(now, tt.lastHeartbeat, threshold, tt.windows, tt.highest, tt.hasActive)
			assert.Equal(t, tt.want, got)
		})
	}
}

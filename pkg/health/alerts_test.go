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
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenfleet/pulse/pkg/logger"
	"github.com/lumenfleet/pulse/pkg/models"
)

// fakeClock is a manually advanced clock shared by the test suites.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func testAlert(deviceID string, metricType models.MetricType, severity models.AlertSeverity) *models.HealthAlert {
	return &models.HealthAlert{
		ID:         uuid.NewString(),
		DeviceID:   deviceID,
		MetricType: metricType,
		Severity:   severity,
		Message:    "test alert",
	}
}

func TestAlertManagerRaiseAndQuery(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	m := NewAlertManager(5*time.Minute, clock, logger.NewTestLogger())

	a := testAlert("display-001", models.MetricCPUUsage, models.SeverityWarning)
	require.True(t, m.Raise(a))

	active := m.ActiveAlerts("display-001")
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)

	assert.Equal(t, 1, m.ActiveCount("display-001"))
	assert.Equal(t, 0, m.ActiveCount("display-002"))

	highest, ok := m.HighestActiveSeverity("display-001")
	assert.True(t, ok)
	assert.Equal(t, models.SeverityWarning, highest)
}

func TestAlertManagerCooldownSuppression(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	m := NewAlertManager(5*time.Minute, clock, logger.NewTestLogger())

	require.True(t, m.Raise(testAlert("display-001", models.MetricCPUUsage, models.SeverityCritical)))

	// Same (device, metric, severity) within the window is suppressed.
	assert.False(t, m.Raise(testAlert("display-001", models.MetricCPUUsage, models.SeverityCritical)))

	// A different severity for the same metric is a distinct cooldown key.
	assert.True(t, m.Raise(testAlert("display-001", models.MetricCPUUsage, models.SeverityWarning)))

	// A different device is never gated by this device's cooldown.
	assert.True(t, m.Raise(testAlert("display-002", models.MetricCPUUsage, models.SeverityCritical)))

	// After the window lapses the raise goes through again.
	clock.Advance(5 * time.Minute)
	assert.True(t, m.Raise(testAlert("display-001", models.MetricCPUUsage, models.SeverityCritical)))
}

func TestAlertManagerAcknowledge(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	m := NewAlertManager(time.Minute, clock, logger.NewTestLogger())

	a := testAlert("display-001", models.MetricTemperature, models.SeverityWarning)
	require.True(t, m.Raise(a))

	require.NoError(t, m.Acknowledge(a.ID))

	active := m.ActiveAlerts("display-001")
	require.Len(t, active, 1)
	assert.True(t, active[0].Acknowledged)

	// Acknowledging does not resolve.
	assert.Equal(t, 1, m.ActiveCount("display-001"))

	assert.ErrorIs(t, m.Acknowledge("no-such-alert"), ErrAlertNotFound)
}

func TestAlertManagerResolve(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)
	m := NewAlertManager(time.Minute, clock, logger.NewTestLogger())

	a := testAlert("display-001", models.MetricStorageUsage, models.SeverityCritical)
	require.True(t, m.Raise(a))

	clock.Advance(30 * time.Second)
	require.NoError(t, m.Resolve(a.ID))

	assert.Empty(t, m.ActiveAlerts("display-001"))
	assert.Equal(t, 0, m.ActiveCount("display-001"))

	_, ok := m.HighestActiveSeverity("display-001")
	assert.False(t, ok)

	require.NotNil(t, a.ResolvedAt)
	firstResolution := *a.ResolvedAt
	assert.Equal(t, start.Add(30*time.Second), firstResolution)

	// Resolving again is a no-op and keeps the original timestamp.
	clock.Advance(time.Hour)
	require.NoError(t, m.Resolve(a.ID))
	assert.Equal(t, firstResolution, *a.ResolvedAt)

	assert.ErrorIs(t, m.Resolve("no-such-alert"), ErrAlertNotFound)
}

func TestAlertManagerHighestSeverityOrdering(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	m := NewAlertManager(time.Minute, clock, logger.NewTestLogger())

	require.True(t, m.Raise(testAlert("display-001", models.MetricCPUUsage, models.SeverityWarning)))
	require.True(t, m.Raise(testAlert("display-001", models.MetricTemperature, models.SeverityCritical)))
	info := testAlert("display-001", models.MetricBandwidth, models.SeverityInfo)
	require.True(t, m.Raise(info))

	highest, ok := m.HighestActiveSeverity("display-001")
	require.True(t, ok)
	assert.Equal(t, models.SeverityCritical, highest)

	warnings := m.ActiveAlertsBySeverity("display-001", models.SeverityWarning)
	require.Len(t, warnings, 1)
	assert.Equal(t, models.MetricCPUUsage, warnings[0].MetricType)
}

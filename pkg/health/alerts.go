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
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/lumenfleet/pulse/pkg/logger"
	"github.com/lumenfleet/pulse/pkg/models"
)

var (
	// ErrAlertNotFound indicates an unknown alert id.
	ErrAlertNotFound = errors.New("alert not found")
)

const alertShardCount = 16

// alertShard holds the alerts for a partition of the device space.
type alertShard struct {
	mu sync.RWMutex
	// all alerts ever raised, retained for audit
	alerts map[string]*models.HealthAlert
	// per-device alert ids in raise order
	byDevice map[string][]string
	// last raise time per cooldown key
	lastRaised map[models.CooldownKey]time.Time
}

// AlertManager owns the alert lifecycle: raise with cooldown gating,
// acknowledge, resolve. Alerts are never deleted; resolution only flips the
// resolved flag. Sharded by device id so devices do not contend on one lock.
type AlertManager struct {
	shards   []*alertShard
	cooldown time.Duration
	clock    Clock
	// alert id -> device id, for id-based lookups across shards
	ids    sync.Map
	logger logger.Logger
}

// NewAlertManager creates an AlertManager with the given cooldown window.
// A nil clock defaults to the wall clock.
func NewAlertManager(cooldown time.Duration, clock Clock, log logger.Logger) *AlertManager {
	if clock == nil {
		clock = realClock{}
	}

	shards := make([]*alertShard, alertShardCount)
	for i := range shards {
		shards[i] = &alertShard{
			alerts:     make(map[string]*models.HealthAlert),
			byDevice:   make(map[string][]string),
			lastRaised: make(map[models.CooldownKey]time.Time),
		}
	}

	return &AlertManager{
		shards:   shards,
		cooldown: cooldown,
		clock:    clock,
		logger:   log,
	}
}

func (m *AlertManager) shardFor(deviceID string) *alertShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(deviceID))

	return m.shards[h.Sum32()%uint32(len(m.shards))]
}

// Raise inserts an alert into the active index unless an alert with the same
// (device, metric, severity) key was raised within the cooldown window.
// Returns false when the raise was suppressed.
func (m *AlertManager) Raise(alert *models.HealthAlert) bool {
	shard := m.shardFor(alert.DeviceID)
	key := alert.CooldownKey()
	now := m.clock.Now()

	shard.mu.Lock()
	defer shard.mu.Unlock()

	if last, ok := shard.lastRaised[key]; ok && now.Sub(last) < m.cooldown {
		m.logger.Debug().
			Str("device_id", alert.DeviceID).
			Str("metric_type", string(alert.MetricType)).
			Str("severity", string(alert.Severity)).
			Msg("Alert raise suppressed by cooldown")

		return false
	}

	shard.lastRaised[key] = now
	shard.alerts[alert.ID] = alert
	shard.byDevice[alert.DeviceID] = append(shard.byDevice[alert.DeviceID], alert.ID)
	m.ids.Store(alert.ID, alert.DeviceID)

	m.logger.Info().
		Str("alert_id", alert.ID).
		Str("device_id", alert.DeviceID).
		Str("metric_type", string(alert.MetricType)).
		Str("severity", string(alert.Severity)).
		Float64("value", alert.CurrentValue).
		Float64("threshold", alert.Threshold).
		Msg("Alert raised")

	return true
}

// Acknowledge marks an alert as seen by an operator.
func (m *AlertManager) Acknowledge(alertID string) error {
	return m.mutate(alertID, func(a *models.HealthAlert) {
		a.Acknowledged = true
	})
}

// Resolve marks an alert resolved and stamps the resolution time. Resolving
// an already-resolved alert is a no-op; a recurring condition gets a new
// alert id, never a reopened one.
func (m *AlertManager) Resolve(alertID string) error {
	now := m.clock.Now()

	return m.mutate(alertID, func(a *models.HealthAlert) {
		if a.Resolved {
			return
		}

		a.Resolved = true
		a.ResolvedAt = &now
	})
}

func (m *AlertManager) mutate(alertID string, fn func(*models.HealthAlert)) error {
	deviceID, ok := m.ids.Load(alertID)
	if !ok {
		return ErrAlertNotFound
	}

	shard := m.shardFor(deviceID.(string))

	shard.mu.Lock()
	defer shard.mu.Unlock()

	alert, ok := shard.alerts[alertID]
	if !ok {
		return ErrAlertNotFound
	}

	fn(alert)

	return nil
}

// ActiveAlerts returns copies of the unresolved alerts for a device, in
// raise order.
func (m *AlertManager) ActiveAlerts(deviceID string) []models.HealthAlert {
	return m.activeAlerts(deviceID, "")
}

// ActiveAlertsBySeverity returns the unresolved alerts of one severity.
func (m *AlertManager) ActiveAlertsBySeverity(deviceID string, severity models.AlertSeverity) []models.HealthAlert {
	return m.activeAlerts(deviceID, severity)
}

func (m *AlertManager) activeAlerts(deviceID string, severity models.AlertSeverity) []models.HealthAlert {
	shard := m.shardFor(deviceID)

	shard.mu.RLock()
	defer shard.mu.RUnlock()

	var out []models.HealthAlert

	for _, id := range shard.byDevice[deviceID] {
		a := shard.alerts[id]
		if a.Resolved {
			continue
		}

		if severity != "" && a.Severity != severity {
			continue
		}

		out = append(out, *a)
	}

	return out
}

// HighestActiveSeverity returns the most severe unresolved alert for a
// device; ok is false when there are none.
func (m *AlertManager) HighestActiveSeverity(deviceID string) (models.AlertSeverity, bool) {
	shard := m.shardFor(deviceID)

	shard.mu.RLock()
	defer shard.mu.RUnlock()

	var (
		highest models.AlertSeverity
		found   bool
	)

	for _, id := range shard.byDevice[deviceID] {
		a := shard.alerts[id]
		if a.Resolved {
			continue
		}

		if !found || a.Severity.Rank() > highest.Rank() {
			highest = a.Severity
			found = true
		}
	}

	return highest, found
}

// ActiveCount returns the number of unresolved alerts for a device.
func (m *AlertManager) ActiveCount(deviceID string) int {
	shard := m.shardFor(deviceID)

	shard.mu.RLock()
	defer shard.mu.RUnlock()

	count := 0

	for _, id := range shard.byDevice[deviceID] {
		if !shard.alerts[id].Resolved {
			count++
		}
	}

	return count
}

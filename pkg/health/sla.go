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

// uptimeFromLog computes the percentage of the window during which the
// status was not offline. The window is clamped to the device's first-seen
// time so a freshly provisioned device is not charged synthetic downtime.
// Caller holds the profile lock.
func uptimeFromLog(log []statusInterval, firstSeen, now time.Time, window time.Duration) float64 {
	if len(log) == 0 || firstSeen.IsZero() {
		return 0
	}

	windowStart := now.Add(-window)
	if firstSeen.After(windowStart) {
		windowStart = firstSeen
	}

	total := now.Sub(windowStart)
	if total <= 0 {
		return 0
	}

	var up time.Duration

	for i, entry := range log {
		start := entry.since
		if start.Before(windowStart) {
			start = windowStart
		}

		end := now
		if i+1 < len(log) {
			end = log[i+1].since
		}

		if end.Before(windowStart) || !start.Before(end) {
			continue
		}

		if entry.status != models.StatusOffline {
			up += end.Sub(start)
		}
	}

	return float64(up) / float64(total) * 100.0
}

// UptimePercentage returns the rolling non-offline percentage for a device
// over the given window. Unknown devices report 0.
func (e *Engine) UptimePercentage(deviceID string, window time.Duration) float64 {
	p, ok := e.store.Get(deviceID)
	if !ok {
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return uptimeFromLog(p.statusLog, p.firstSeen, e.clock.Now(), window)
}

// SLACompliance evaluates a device's uptime and performance against its
// targets. Unknown devices report zero actuals and non-compliance.
func (e *Engine) SLACompliance(deviceID string) models.SLACompliance {
	sla := models.SLACompliance{
		UptimeTarget:      e.cfg.SLAUptimeTarget,
		PerformanceTarget: e.cfg.SLAPerformanceTarget,
	}

	p, ok := e.store.Get(deviceID)
	if !ok {
		return sla
	}

	p.mu.Lock()
	uptime := uptimeFromLog(p.statusLog, p.firstSeen, e.clock.Now(), 24*time.Hour)
	score := p.performanceScore
	p.mu.Unlock()

	sla.UptimeActual = uptime
	sla.UptimeCompliant = uptime >= sla.UptimeTarget
	sla.PerformanceActual = score
	sla.PerformanceCompliant = score >= sla.PerformanceTarget

	return sla
}

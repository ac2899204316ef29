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

// Package health ingests device heartbeats, maintains rolling health
// metrics, raises threshold alerts and derives per-device status, score and
// SLA compliance.
package health

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/lumenfleet/pulse/pkg/logger"
	"github.com/lumenfleet/pulse/pkg/models"
	"github.com/lumenfleet/pulse/pkg/stats"
)

var (
	errEmptyDeviceID      = errors.New("device id is required")
	errInvalidMaintenance = errors.New("maintenance window end must be after start")
)

// Engine is the device health core. Heartbeat calls for different devices
// run fully in parallel; calls for the same device serialize on the
// profile's lock, so metric-append, alert-raise and status-derive are atomic
// per device.
type Engine struct {
	cfg      models.HealthConfig
	store    *ProfileStore
	alerts   *AlertManager
	clock    Clock
	notifier AlertNotifier
	recorder HistoryRecorder
	playback PlaybackVerifier
	logger   logger.Logger
}

// NewEngine creates the health engine. notifier and recorder may be nil for
// a standalone in-memory engine; clock nil defaults to the wall clock.
func NewEngine(
	cfg *models.HealthConfig,
	notifier AlertNotifier,
	recorder HistoryRecorder,
	clock Clock,
	log logger.Logger,
) *Engine {
	if cfg == nil {
		cfg = &models.HealthConfig{}
	}

	_ = cfg.Validate()

	if clock == nil {
		clock = realClock{}
	}

	return &Engine{
		cfg:      *cfg,
		store:    NewProfileStore(cfg.HistoryCapacity),
		alerts:   NewAlertManager(cfg.AlertCooldown.Std(), clock, log),
		clock:    clock,
		notifier: notifier,
		recorder: recorder,
		logger:   log,
	}
}

// SetPlaybackVerifier wires the proof-of-play hook invoked when a heartbeat
// carries current-content info. The tracker is constructed independently,
// so this stays a setter rather than a constructor argument.
func (e *Engine) SetPlaybackVerifier(v PlaybackVerifier) {
	e.playback = v
}

// Alerts exposes the alert manager for operator workflows and queries.
func (e *Engine) Alerts() *AlertManager {
	return e.alerts
}

// ProcessHeartbeat ingests one device report. Unrecognized metric keys are
// ignored; NaN/Inf values are dropped while the rest of the heartbeat
// proceeds. A heartbeat with zero recognized metrics still counts as a
// liveness signal and updates last_heartbeat.
func (e *Engine) ProcessHeartbeat(ctx context.Context, deviceID string, hb *models.Heartbeat) (*models.HeartbeatResult, error) {
	if deviceID == "" {
		return nil, errEmptyDeviceID
	}

	if hb == nil {
		hb = &models.Heartbeat{}
	}

	now := e.clock.Now()
	p := e.store.GetOrCreate(deviceID)

	var (
		processed int
		appended  []models.HealthMetric
		raised    []*models.HealthAlert
	)

	p.mu.Lock()

	if p.firstSeen.IsZero() {
		p.firstSeen = now
	}

	p.lastHeartbeat = now

	for name, value := range hb.Metrics {
		metricType, ok := models.MetricTypeFromName(name)
		if !ok {
			e.logger.Debug().
				Str("device_id", deviceID).
				Str("metric", name).
				Msg("Ignoring unrecognized metric key")

			continue
		}

		if math.IsNaN(value) || math.IsInf(value, 0) {
			e.logger.Warn().
				Str("device_id", deviceID).
				Str("metric", name).
				Msg("Dropping invalid metric value")

			continue
		}

		sample := models.HealthMetric{
			ID:        uuid.NewString(),
			DeviceID:  deviceID,
			Type:      metricType,
			Value:     value,
			Timestamp: now,
		}

		p.appendSample(sample)
		appended = append(appended, sample)
		processed++

		if severity, threshold, breached := EvaluateThreshold(metricType, value); breached {
			alert := &models.HealthAlert{
				ID:           uuid.NewString(),
				DeviceID:     deviceID,
				MetricType:   metricType,
				Severity:     severity,
				Message:      thresholdMessage(metricType, severity, value, threshold),
				CurrentValue: value,
				Threshold:    threshold,
				CreatedAt:    now,
			}

			if e.alerts.Raise(alert) {
				p.alertCounts[severity]++
				raised = append(raised, alert)
			}
		}
	}

	highest, hasActive := e.alerts.HighestActiveSeverity(deviceID)
	status := DeriveStatus(now, p.lastHeartbeat, e.cfg.OfflineThreshold.Std(), p.maintenance, highest, hasActive)
	p.setStatus(status, now)
	p.performanceScore = PerformanceScore(p.currentMetrics)

	result := &models.HeartbeatResult{
		DeviceID:         deviceID,
		Status:           status,
		PerformanceScore: p.performanceScore,
		MetricsProcessed: processed,
		ActiveAlerts:     e.alerts.ActiveCount(deviceID),
	}

	p.mu.Unlock()

	stats.HeartbeatsProcessed.Inc()
	stats.MetricSamplesRecorded.Add(float64(processed))

	for _, alert := range raised {
		e.dispatchAlert(ctx, alert)
	}

	if e.recorder != nil && len(appended) > 0 {
		e.recorder.RecordMetrics(appended)
	}

	if hb.CurrentContentID != "" && e.playback != nil {
		verification := &models.PlaybackVerification{Status: "started", Method: "heartbeat"}

		if _, err := e.playback.VerifyPlayback(ctx, deviceID, hb.CurrentContentID, verification); err != nil {
			e.logger.Warn().
				Err(err).
				Str("device_id", deviceID).
				Str("content_id", hb.CurrentContentID).
				Msg("Heartbeat playback verification failed")
		}
	}

	return result, nil
}

// dispatchAlert hands a raised alert to the delegated collaborators. Both
// are fire-and-forget so a slow webhook or database never blocks heartbeat
// processing.
func (e *Engine) dispatchAlert(ctx context.Context, alert *models.HealthAlert) {
	stats.AlertsRaised.WithLabelValues(string(alert.Severity)).Inc()

	if e.notifier != nil {
		e.notifier.Notify(ctx, alert)
	}

	if e.recorder != nil {
		e.recorder.RecordAlert(alert)
	}
}

// GetDeviceHealthStatus returns the full health view for a device. A device
// that has never sent a heartbeat gets an explicit offline/never-seen
// result, not an error.
func (e *Engine) GetDeviceHealthStatus(_ context.Context, deviceID string) (*models.DeviceHealthStatus, error) {
	if deviceID == "" {
		return nil, errEmptyDeviceID
	}

	p, ok := e.store.Get(deviceID)
	if !ok {
		return &models.DeviceHealthStatus{
			DeviceID:       deviceID,
			Status:         models.StatusOffline,
			CurrentMetrics: map[models.MetricType]float64{},
			ActiveAlerts:   []models.HealthAlert{},
			SLA: models.SLACompliance{
				UptimeTarget:      e.cfg.SLAUptimeTarget,
				PerformanceTarget: e.cfg.SLAPerformanceTarget,
			},
		}, nil
	}

	now := e.clock.Now()

	p.mu.Lock()
	status := p.status
	score := p.performanceScore
	lastHeartbeat := p.lastHeartbeat
	metrics := p.snapshotMetrics()
	uptime := uptimeFromLog(p.statusLog, p.firstSeen, now, 24*time.Hour)
	p.mu.Unlock()

	active := e.alerts.ActiveAlerts(deviceID)
	if active == nil {
		active = []models.HealthAlert{}
	}

	result := &models.DeviceHealthStatus{
		DeviceID:         deviceID,
		Status:           status,
		PerformanceScore: score,
		Uptime24h:        uptime,
		CurrentMetrics:   metrics,
		ActiveAlerts:     active,
		SLA: models.SLACompliance{
			UptimeTarget:         e.cfg.SLAUptimeTarget,
			UptimeActual:         uptime,
			UptimeCompliant:      uptime >= e.cfg.SLAUptimeTarget,
			PerformanceTarget:    e.cfg.SLAPerformanceTarget,
			PerformanceActual:    score,
			PerformanceCompliant: score >= e.cfg.SLAPerformanceTarget,
		},
	}

	if !lastHeartbeat.IsZero() {
		result.LastHeartbeat = &lastHeartbeat
	}

	return result, nil
}

// AcknowledgeAlert marks an alert as seen by an operator.
func (e *Engine) AcknowledgeAlert(_ context.Context, alertID string) error {
	return e.alerts.Acknowledge(alertID)
}

// ResolveAlert closes an alert. Resolution is manual by design: a metric
// returning to normal never resolves its alert automatically.
func (e *Engine) ResolveAlert(_ context.Context, alertID string) error {
	return e.alerts.Resolve(alertID)
}

// SetMaintenanceWindow registers a planned outage window for a device and
// re-derives its status immediately.
func (e *Engine) SetMaintenanceWindow(_ context.Context, deviceID string, win models.MaintenanceWindow) error {
	if deviceID == "" {
		return errEmptyDeviceID
	}

	if !win.End.After(win.Start) {
		return errInvalidMaintenance
	}

	now := e.clock.Now()
	p := e.store.GetOrCreate(deviceID)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.maintenance = append(p.maintenance, win)

	highest, hasActive := e.alerts.HighestActiveSeverity(deviceID)
	status := DeriveStatus(now, p.lastHeartbeat, e.cfg.OfflineThreshold.Std(), p.maintenance, highest, hasActive)
	p.setStatus(status, now)

	return nil
}

// SweepStaleDevices re-derives status for every profile, raising a single
// UPTIME critical alert per offline transition. Each device is swept
// defensively; a panic on one device never stops the sweep for the rest.
func (e *Engine) SweepStaleDevices(ctx context.Context) int {
	now := e.clock.Now()
	transitioned := 0

	e.store.ForEach(func(p *DeviceProfile) {
		if e.sweepDevice(ctx, p, now) {
			transitioned++
		}
	})

	return transitioned
}

func (e *Engine) sweepDevice(ctx context.Context, p *DeviceProfile, now time.Time) (wentOffline bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Interface("panic", r).
				Str("device_id", p.deviceID).
				Msg("Recovered from panic while sweeping device")
		}
	}()

	var alert *models.HealthAlert

	p.mu.Lock()

	highest, hasActive := e.alerts.HighestActiveSeverity(p.deviceID)
	status := DeriveStatus(now, p.lastHeartbeat, e.cfg.OfflineThreshold.Std(), p.maintenance, highest, hasActive)

	if status == models.StatusOffline && p.status != models.StatusOffline {
		silentFor := now.Sub(p.lastHeartbeat)

		alert = &models.HealthAlert{
			ID:           uuid.NewString(),
			DeviceID:     p.deviceID,
			MetricType:   models.MetricUptime,
			Severity:     models.SeverityCritical,
			Message:      fmt.Sprintf("device silent for %s, marking offline", silentFor.Round(time.Second)),
			CurrentValue: silentFor.Seconds(),
			Threshold:    e.cfg.OfflineThreshold.Std().Seconds(),
			CreatedAt:    now,
		}

		if e.alerts.Raise(alert) {
			p.alertCounts[models.SeverityCritical]++

			wentOffline = true

			stats.DevicesOffline.Inc()
		} else {
			alert = nil
		}
	}

	p.setStatus(status, now)
	p.mu.Unlock()

	if alert != nil {
		e.dispatchAlert(ctx, alert)
	}

	return wentOffline
}

// ReportPlaybackFailure raises a content-errors warning for a proof-of-play
// record the sweep failed as overdue.
func (e *Engine) ReportPlaybackFailure(ctx context.Context, deviceID, contentID string) {
	now := e.clock.Now()

	alert := &models.HealthAlert{
		ID:           uuid.NewString(),
		DeviceID:     deviceID,
		MetricType:   models.MetricContentErrors,
		Severity:     models.SeverityWarning,
		Message:      fmt.Sprintf("scheduled content %s never started playing", contentID),
		CurrentValue: 1,
		CreatedAt:    now,
	}

	if !e.alerts.Raise(alert) {
		return
	}

	if p, ok := e.store.Get(deviceID); ok {
		p.mu.Lock()
		p.alertCounts[models.SeverityWarning]++
		p.mu.Unlock()
	}

	e.dispatchAlert(ctx, alert)
}

// DeviceCount returns the number of devices with profiles.
func (e *Engine) DeviceCount() int {
	return e.store.Count()
}

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

// Package notify delivers raised alerts to external collaborators: webhook
// endpoints and NATS JetStream. Delivery is queued and fire-and-forget so a
// slow or failing collaborator never blocks heartbeat processing.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lumenfleet/pulse/pkg/logger"
	"github.com/lumenfleet/pulse/pkg/models"
	"github.com/lumenfleet/pulse/pkg/stats"
)

var (
	// ErrWebhookCooldown indicates a delivery was suppressed by the
	// webhook's own rate limit.
	ErrWebhookCooldown = errors.New("webhook notification cooldown active")

	errWebhookStatus = errors.New("webhook returned non-2xx status")
)

const defaultQueueSize = 256

// WebhookAlert is the wire payload POSTed to the configured endpoint.
type WebhookAlert struct {
	Level     string         `json:"level"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	DeviceID  string         `json:"device_id"`
	Timestamp string         `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// WebhookNotifier POSTs alert payloads to a single endpoint through a
// bounded queue. Overflow drops the notification and counts it.
type WebhookNotifier struct {
	cfg    models.WebhookConfig
	client *http.Client
	logger logger.Logger

	mu       sync.Mutex
	lastSent map[models.CooldownKey]time.Time

	queue chan *models.HealthAlert
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// NewWebhookNotifier creates the notifier and starts its delivery worker.
func NewWebhookNotifier(cfg *models.WebhookConfig, log logger.Logger) (*WebhookNotifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("webhook config is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := &WebhookNotifier{
		cfg:      *cfg,
		client:   &http.Client{Timeout: cfg.Timeout.Std()},
		logger:   log,
		lastSent: make(map[models.CooldownKey]time.Time),
		queue:    make(chan *models.HealthAlert, defaultQueueSize),
		done:     make(chan struct{}),
	}

	n.wg.Add(1)

	go n.worker()

	return n, nil
}

// Notify enqueues an alert for delivery without blocking the caller.
func (n *WebhookNotifier) Notify(_ context.Context, alert *models.HealthAlert) {
	select {
	case n.queue <- alert:
	default:
		stats.NotificationsDropped.Inc()

		n.logger.Warn().
			Str("alert_id", alert.ID).
			Msg("Webhook queue full, dropping notification")
	}
}

// Close stops the delivery worker after draining queued alerts.
func (n *WebhookNotifier) Close() {
	n.once.Do(func() { close(n.done) })
	n.wg.Wait()
}

func (n *WebhookNotifier) worker() {
	defer n.wg.Done()

	for {
		select {
		case alert := <-n.queue:
			n.deliver(alert)
		case <-n.done:
			// Drain what is already queued before exiting.
			for {
				select {
				case alert := <-n.queue:
					n.deliver(alert)
				default:
					return
				}
			}
		}
	}
}

func (n *WebhookNotifier) deliver(alert *models.HealthAlert) {
	err := n.send(alert)
	if err == nil {
		return
	}

	if errors.Is(err, ErrWebhookCooldown) {
		n.logger.Debug().
			Str("alert_id", alert.ID).
			Msg("Webhook delivery suppressed by cooldown")

		return
	}

	n.logger.Error().
		Err(err).
		Str("alert_id", alert.ID).
		Str("device_id", alert.DeviceID).
		Msg("Webhook delivery failed")
}

func (n *WebhookNotifier) send(alert *models.HealthAlert) error {
	if n.cfg.Cooldown > 0 {
		key := alert.CooldownKey()
		now := time.Now()

		n.mu.Lock()
		if last, ok := n.lastSent[key]; ok && now.Sub(last) < n.cfg.Cooldown.Std() {
			n.mu.Unlock()
			return ErrWebhookCooldown
		}

		n.lastSent[key] = now
		n.mu.Unlock()
	}

	payload := &WebhookAlert{
		Level:     string(alert.Severity),
		Title:     fmt.Sprintf("Device %s: %s alert", alert.DeviceID, alert.MetricType),
		Message:   alert.Message,
		DeviceID:  alert.DeviceID,
		Timestamp: alert.CreatedAt.UTC().Format(time.RFC3339),
		Details: map[string]any{
			"alert_id":      alert.ID,
			"metric_type":   string(alert.MetricType),
			"current_value": alert.CurrentValue,
			"threshold":     alert.Threshold,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, n.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for k, v := range n.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %d", errWebhookStatus, resp.StatusCode)
	}

	return nil
}

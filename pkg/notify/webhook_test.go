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

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenfleet/pulse/pkg/logger"
	"github.com/lumenfleet/pulse/pkg/models"
)

func webhookTestAlert(id string) *models.HealthAlert {
	return &models.HealthAlert{
		ID:           id,
		DeviceID:     "display-001",
		MetricType:   models.MetricCPUUsage,
		Severity:     models.SeverityCritical,
		Message:      "cpu_usage critical: value 95.00 crossed threshold 90.00",
		CurrentValue: 95,
		Threshold:    90,
		CreatedAt:    time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestWebhookNotifierDelivers(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		payloads []WebhookAlert
		headers  []http.Header
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p WebhookAlert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))

		mu.Lock()
		payloads = append(payloads, p)
		headers = append(headers, r.Header.Clone())
		mu.Unlock()

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n, err := NewWebhookNotifier(&models.WebhookConfig{
		Enabled: true,
		URL:     srv.URL,
		Headers: map[string]string{"X-Custom": "fleet"},
	}, logger.NewTestLogger())
	require.NoError(t, err)

	n.Notify(context.Background(), webhookTestAlert("alert-1"))
	n.Close()

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, payloads, 1)
	assert.Equal(t, "critical", payloads[0].Level)
	assert.Equal(t, "display-001", payloads[0].DeviceID)
	assert.Contains(t, payloads[0].Title, "cpu_usage")
	assert.Equal(t, "2026-03-14T12:00:00Z", payloads[0].Timestamp)
	assert.Equal(t, "alert-1", payloads[0].Details["alert_id"])

	assert.Equal(t, "application/json", headers[0].Get("Content-Type"))
	assert.Equal(t, "fleet", headers[0].Get("X-Custom"))
}

func TestWebhookNotifierCooldown(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		count int
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		count++
		mu.Unlock()

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n, err := NewWebhookNotifier(&models.WebhookConfig{
		Enabled:  true,
		URL:      srv.URL,
		Cooldown: models.Duration(time.Hour),
	}, logger.NewTestLogger())
	require.NoError(t, err)

	// Same (device, metric, severity): the second delivery is suppressed.
	n.Notify(context.Background(), webhookTestAlert("alert-1"))
	n.Notify(context.Background(), webhookTestAlert("alert-2"))
	n.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestWebhookNotifierSurvivesServerErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n, err := NewWebhookNotifier(&models.WebhookConfig{
		Enabled: true,
		URL:     srv.URL,
	}, logger.NewTestLogger())
	require.NoError(t, err)

	// Failed delivery is logged, never panics or blocks.
	n.Notify(context.Background(), webhookTestAlert("alert-1"))
	n.Close()
}

func TestWebhookNotifierConfigValidation(t *testing.T) {
	t.Parallel()

	_, err := NewWebhookNotifier(nil, logger.NewTestLogger())
	assert.Error(t, err)

	_, err = NewWebhookNotifier(&models.WebhookConfig{Enabled: true}, logger.NewTestLogger())
	assert.Error(t, err)
}

func TestMultiNotifierFansOut(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen []string
	)

	sink := func(name string) AlertSink {
		return sinkFunc(func(_ context.Context, alert *models.HealthAlert) {
			mu.Lock()
			defer mu.Unlock()

			seen = append(seen, name+":"+alert.ID)
		})
	}

	m := MultiNotifier{sink("a"), sink("b")}
	m.Notify(context.Background(), webhookTestAlert("alert-1"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a:alert-1", "b:alert-1"}, seen)
}

type sinkFunc func(ctx context.Context, alert *models.HealthAlert)

func (f sinkFunc) Notify(ctx context.Context, alert *models.HealthAlert) { f(ctx, alert) }

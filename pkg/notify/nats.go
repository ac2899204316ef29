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
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/lumenfleet/pulse/pkg/logger"
	"github.com/lumenfleet/pulse/pkg/models"
)

const eventSource = "pulse/core"

// EventPublisher publishes CloudEvents to NATS JetStream. It implements
// both the engine's alert-notifier hook and the sweeper's report sink.
type EventPublisher struct {
	js     jetstream.JetStream
	stream string
	logger logger.Logger
}

// NewEventPublisher creates a publisher for the given stream.
func NewEventPublisher(js jetstream.JetStream, streamName string, log logger.Logger) *EventPublisher {
	return &EventPublisher{
		js:     js,
		stream: streamName,
		logger: log,
	}
}

// ConnectWithEventPublisher connects to NATS, ensures the stream exists and
// returns a publisher plus the owning connection.
func ConnectWithEventPublisher(
	ctx context.Context, cfg *models.NATSConfig, log logger.Logger, opts ...nats.Option,
) (*EventPublisher, *nats.Conn, error) {
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.Stream(ctx, cfg.StreamName)
	if err != nil {
		streamConfig := jetstream.StreamConfig{
			Name:     cfg.StreamName,
			Subjects: cfg.Subjects,
		}

		_, err = js.CreateOrUpdateStream(ctx, streamConfig)
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("failed to create or get stream %s: %w", cfg.StreamName, err)
		}

		log.Info().Str("stream", cfg.StreamName).Msg("Created NATS JetStream stream")
	}

	return NewEventPublisher(js, cfg.StreamName, log), nc, nil
}

func (p *EventPublisher) publish(ctx context.Context, eventType, subject string, data interface{}) error {
	now := time.Now()

	event := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         subject,
		Time:            &now,
		Data:            data,
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := p.js.Publish(ctx, event.Subject, eventBytes)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("subject", event.Subject).
		Uint64("seq", ack.Sequence).
		Msg("Published event")

	return nil
}

// PublishAlertEvent publishes a raised alert to the events stream.
func (p *EventPublisher) PublishAlertEvent(ctx context.Context, alert *models.HealthAlert) error {
	return p.publish(ctx, "com.lumenfleet.pulse.device.alert", "events.device.alert", alert)
}

// PublishComplianceEvent publishes a terminal proof-of-play record with its
// compliance verdict.
func (p *EventPublisher) PublishComplianceEvent(ctx context.Context, result *models.PlaybackResult) error {
	return p.publish(ctx, "com.lumenfleet.pulse.compliance.playback", "events.compliance.playback", result)
}

// PublishSweepReport implements the sweeper's reporting hook.
func (p *EventPublisher) PublishSweepReport(ctx context.Context, report *models.SweepReport) error {
	return p.publish(ctx, "com.lumenfleet.pulse.sweep.report", "events.device.sweep", report)
}

// Notify implements the engine's alert hook. Publish failures are logged,
// never propagated into heartbeat processing.
func (p *EventPublisher) Notify(ctx context.Context, alert *models.HealthAlert) {
	if err := p.PublishAlertEvent(ctx, alert); err != nil {
		p.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("Failed to publish alert event")
	}
}

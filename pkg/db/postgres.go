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

package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenfleet/pulse/pkg/logger"
	"github.com/lumenfleet/pulse/pkg/models"
)

// postgresService writes health history to Postgres through a pgx pool.
type postgresService struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// NewPostgres connects to the given DSN and returns a Service backed by it.
func NewPostgres(ctx context.Context, dsn string, log logger.Logger) (Service, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &postgresService{pool: pool, logger: log}, nil
}

func (s *postgresService) StoreMetrics(ctx context.Context, metrics []models.HealthMetric) error {
	if len(metrics) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	for i := range metrics {
		m := &metrics[i]

		batch.Queue(
			`INSERT INTO health_metrics (id, device_id, metric_type, value, recorded_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			m.ID, m.DeviceID, string(m.Type), m.Value, m.Timestamp,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for range metrics {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert health metrics: %w", err)
		}
	}

	return nil
}

func (s *postgresService) StoreAlert(ctx context.Context, alert *models.HealthAlert) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO health_alerts
			(id, device_id, metric_type, severity, message, current_value, threshold, created_at, acknowledged, resolved, resolved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
			acknowledged = EXCLUDED.acknowledged,
			resolved = EXCLUDED.resolved,
			resolved_at = EXCLUDED.resolved_at`,
		alert.ID, alert.DeviceID, string(alert.MetricType), string(alert.Severity),
		alert.Message, alert.CurrentValue, alert.Threshold, alert.CreatedAt,
		alert.Acknowledged, alert.Resolved, alert.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store alert: %w", err)
	}

	return nil
}

func (s *postgresService) StoreProofOfPlay(ctx context.Context, record *models.ProofOfPlayRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO proof_of_play
			(id, device_id, content_id, scheduled_start, actual_start, scheduled_duration_ms,
			 actual_duration_ms, play_status, verification_method, screenshot_hash,
			 audience_count, created_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO UPDATE SET
			actual_start = EXCLUDED.actual_start,
			actual_duration_ms = EXCLUDED.actual_duration_ms,
			play_status = EXCLUDED.play_status,
			verification_method = EXCLUDED.verification_method,
			screenshot_hash = EXCLUDED.screenshot_hash,
			audience_count = EXCLUDED.audience_count,
			completed_at = EXCLUDED.completed_at`,
		record.ID, record.DeviceID, record.ContentID, record.ScheduledStart,
		record.ActualStart, record.ScheduledDuration.Milliseconds(),
		record.ActualDuration.Milliseconds(), string(record.Status),
		record.VerificationMethod, record.ScreenshotHash, record.AudienceCount,
		record.CreatedAt, record.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store proof-of-play record: %w", err)
	}

	return nil
}

func (s *postgresService) Close(_ context.Context) error {
	s.pool.Close()
	return nil
}

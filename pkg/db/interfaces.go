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

// Package db persists health history beyond the engine's bounded in-memory
// window. The engine never waits on it: writes arrive through the async
// recorder's bounded queue.
package db

import (
	"context"

	"github.com/lumenfleet/pulse/pkg/models"
)

// Service is the narrow durable-storage interface the engine delegates to.
type Service interface {
	StoreMetrics(ctx context.Context, metrics []models.HealthMetric) error
	StoreAlert(ctx context.Context, alert *models.HealthAlert) error
	StoreProofOfPlay(ctx context.Context, record *models.ProofOfPlayRecord) error
	Close(ctx context.Context) error
}

// noopService discards everything; used when no database is configured.
type noopService struct{}

// NewNoop returns a Service that stores nothing.
func NewNoop() Service { return noopService{} }

func (noopService) StoreMetrics(context.Context, []models.HealthMetric) error         { return nil }
func (noopService) StoreAlert(context.Context, *models.HealthAlert) error             { return nil }
func (noopService) StoreProofOfPlay(context.Context, *models.ProofOfPlayRecord) error { return nil }
func (noopService) Close(context.Context) error                                       { return nil }

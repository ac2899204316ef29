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

package api

import (
	"context"
	"time"

	"github.com/lumenfleet/pulse/pkg/models"
)

// HealthService is the slice of the health engine the API exposes.
type HealthService interface {
	ProcessHeartbeat(ctx context.Context, deviceID string, hb *models.Heartbeat) (*models.HeartbeatResult, error)
	GetDeviceHealthStatus(ctx context.Context, deviceID string) (*models.DeviceHealthStatus, error)
	AcknowledgeAlert(ctx context.Context, alertID string) error
	ResolveAlert(ctx context.Context, alertID string) error
	SetMaintenanceWindow(ctx context.Context, deviceID string, win models.MaintenanceWindow) error
	SLACompliance(deviceID string) models.SLACompliance
}

// PlaybackService is the slice of the proof-of-play tracker the API exposes.
type PlaybackService interface {
	Schedule(ctx context.Context, deviceID, contentID string, start time.Time, duration time.Duration) (string, error)
	VerifyPlayback(ctx context.Context, deviceID, contentID string, v *models.PlaybackVerification) (*models.PlaybackResult, error)
	Report(ctx context.Context, deviceID string, start, end time.Time) (*models.ProofOfPlayReport, error)
}

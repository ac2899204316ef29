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
	"context"
	"time"

	"github.com/lumenfleet/pulse/pkg/models"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// AlertNotifier is the delegated alert-delivery collaborator. Notify must
// not block heartbeat processing; implementations queue internally and drop
// on overflow.
type AlertNotifier interface {
	Notify(ctx context.Context, alert *models.HealthAlert)
}

// HistoryRecorder is the delegated durable-storage collaborator. All
// methods are fire-and-forget; the engine keeps only its bounded in-memory
// window.
type HistoryRecorder interface {
	RecordMetrics(metrics []models.HealthMetric)
	RecordAlert(alert *models.HealthAlert)
	RecordProofOfPlay(record *models.ProofOfPlayRecord)
}

// PlaybackVerifier is the loosely-coupled proof-of-play hook invoked when a
// heartbeat carries current-content info.
type PlaybackVerifier interface {
	VerifyPlayback(ctx context.Context, deviceID, contentID string, v *models.PlaybackVerification) (*models.PlaybackResult, error)
}

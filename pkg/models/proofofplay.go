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

package models

import "time"

// PlayStatus is the state of a proof-of-play record.
type PlayStatus string

const (
	PlayScheduled PlayStatus = "scheduled"
	PlayPlaying   PlayStatus = "playing"
	PlayCompleted PlayStatus = "completed"
	PlayFailed    PlayStatus = "failed"
	PlaySkipped   PlayStatus = "skipped"
)

// Terminal reports whether the status is final. Terminal records are
// immutable.
func (s PlayStatus) Terminal() bool {
	return s == PlayCompleted || s == PlayFailed || s == PlaySkipped
}

// InteractionEvent is an audience interaction observed during playback.
type InteractionEvent struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// ProofOfPlayRecord is the auditable record that a piece of content played
// on a device at a scheduled time.
type ProofOfPlayRecord struct {
	ID                 string             `json:"id"`
	DeviceID           string             `json:"device_id"`
	ContentID          string             `json:"content_id"`
	ScheduledStart     time.Time          `json:"scheduled_start"`
	ActualStart        *time.Time         `json:"actual_start,omitempty"`
	ScheduledDuration  time.Duration      `json:"scheduled_duration,omitempty"`
	ActualDuration     time.Duration      `json:"actual_duration,omitempty"`
	Status             PlayStatus         `json:"play_status"`
	VerificationMethod string             `json:"verification_method,omitempty"`
	ScreenshotHash     string             `json:"screenshot_hash,omitempty"`
	AudienceCount      int                `json:"audience_count,omitempty"`
	InteractionEvents  []InteractionEvent `json:"interaction_events,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	CompletedAt        *time.Time         `json:"completed_at,omitempty"`
}

// PlaybackVerification is the payload of a playback signal from a device.
// Status is one of "started", "completed", "failed" or "skipped".
type PlaybackVerification struct {
	Status         string             `json:"status"`
	Method         string             `json:"verification_method,omitempty"`
	ScreenshotHash string             `json:"screenshot_hash,omitempty"`
	AudienceCount  int                `json:"audience_count,omitempty"`
	Interactions   []InteractionEvent `json:"interactions,omitempty"`
}

// PlayCompliance is the compliance verdict for one record. The three
// booleans are always computed together and returned, never dropped.
type PlayCompliance struct {
	OnTime       bool `json:"on_time"`
	FullDuration bool `json:"full_duration"`
	Verified     bool `json:"verified"`
}

// PlaybackResult couples the updated record with its compliance verdict.
type PlaybackResult struct {
	Record     *ProofOfPlayRecord `json:"record"`
	Compliance PlayCompliance     `json:"compliance"`
}

// ProofOfPlaySummary aggregates a set of records for reporting.
type ProofOfPlaySummary struct {
	Total          int     `json:"total"`
	Scheduled      int     `json:"scheduled"`
	Playing        int     `json:"playing"`
	Completed      int     `json:"completed"`
	Failed         int     `json:"failed"`
	Skipped        int     `json:"skipped"`
	CompletionRate float64 `json:"completion_rate"`
	OnTimeRate     float64 `json:"on_time_rate"`
	VerifiedRate   float64 `json:"verified_rate"`
}

// ProofOfPlayReport is the auditable compliance report for a device or the
// whole fleet over a time range.
type ProofOfPlayReport struct {
	DeviceID string               `json:"device_id,omitempty"`
	Start    time.Time            `json:"start"`
	End      time.Time            `json:"end"`
	Summary  ProofOfPlaySummary   `json:"summary"`
	Records  []*ProofOfPlayRecord `json:"records"`
}

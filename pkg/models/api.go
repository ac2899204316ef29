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

// ErrorResponse is the JSON error body returned by the HTTP API.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// ScheduleRequest registers an upcoming content play for a device.
type ScheduleRequest struct {
	DeviceID          string    `json:"device_id"`
	ContentID         string    `json:"content_id"`
	ScheduledStart    time.Time `json:"scheduled_start"`
	ScheduledDuration Duration  `json:"scheduled_duration"`
}

// ScheduleResponse returns the identifier of the created record.
type ScheduleResponse struct {
	RecordID string `json:"record_id"`
}

// PlaybackRequest is the device-reported playback signal for a content item.
type PlaybackRequest struct {
	ContentID    string               `json:"content_id"`
	Verification PlaybackVerification `json:"verification"`
}

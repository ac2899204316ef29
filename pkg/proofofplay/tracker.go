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

// Package proofofplay tracks whether scheduled content actually played as
// contracted and scores each record for compliance.
package proofofplay

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumenfleet/pulse/pkg/logger"
	"github.com/lumenfleet/pulse/pkg/models"
)

var (
	errEmptyDeviceID         = errors.New("device id is required")
	errEmptyContentID        = errors.New("content id is required")
	errNilVerification       = errors.New("verification payload is required")
	errUnknownPlaybackStatus = errors.New("unknown playback status")
)

const (
	trackerShardCount = 16

	// onTimeTolerance is the maximum start drift still counted as on time,
	// boundary inclusive.
	onTimeTolerance = 120 * time.Second

	// fullDurationTolerance is the allowed duration drift as a fraction of
	// the scheduled duration.
	fullDurationTolerance = 0.10
)

type openKey struct {
	deviceID  string
	contentID string
}

type trackerShard struct {
	mu      sync.RWMutex
	records map[string]*models.ProofOfPlayRecord
	// open (non-terminal) record ids per (device, content), in creation
	// order; overlapping records are permitted by design
	open map[openKey][]string
	// all record ids per device, in creation order
	byDevice map[string][]string
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Recorder receives terminal records for durable storage, fire-and-forget.
type Recorder interface {
	RecordProofOfPlay(record *models.ProofOfPlayRecord)
}

// CompliancePublisher receives the verdict for every record that reaches a
// terminal state.
type CompliancePublisher interface {
	PublishComplianceEvent(ctx context.Context, result *models.PlaybackResult) error
}

// Tracker owns the proof-of-play record set, sharded by device id. It is
// mutated concurrently by playback verifications and the background sweep.
type Tracker struct {
	shards    []*trackerShard
	clock     Clock
	recorder  Recorder
	publisher CompliancePublisher
	logger    logger.Logger
}

// NewTracker creates an empty tracker. recorder may be nil; clock nil
// defaults to the wall clock.
func NewTracker(recorder Recorder, clock Clock, log logger.Logger) *Tracker {
	if clock == nil {
		clock = realClock{}
	}

	shards := make([]*trackerShard, trackerShardCount)
	for i := range shards {
		shards[i] = &trackerShard{
			records:  make(map[string]*models.ProofOfPlayRecord),
			open:     make(map[openKey][]string),
			byDevice: make(map[string][]string),
		}
	}

	return &Tracker{
		shards:   shards,
		clock:    clock,
		recorder: recorder,
		logger:   log,
	}
}

// SetCompliancePublisher installs the terminal-verdict hook. Must be called
// before the tracker receives traffic.
func (t *Tracker) SetCompliancePublisher(publisher CompliancePublisher) {
	t.publisher = publisher
}

func (t *Tracker) shardFor(deviceID string) *trackerShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(deviceID))

	return t.shards[h.Sum32()%uint32(len(t.shards))]
}

// Schedule creates a record in the scheduled state and returns its id.
// Overlapping open records for the same (device, content) pair are
// permitted; each plays out independently.
func (t *Tracker) Schedule(_ context.Context, deviceID, contentID string, start time.Time, duration time.Duration) (string, error) {
	if deviceID == "" {
		return "", errEmptyDeviceID
	}

	if contentID == "" {
		return "", errEmptyContentID
	}

	record := &models.ProofOfPlayRecord{
		ID:                uuid.NewString(),
		DeviceID:          deviceID,
		ContentID:         contentID,
		ScheduledStart:    start,
		ScheduledDuration: duration,
		Status:            models.PlayScheduled,
		CreatedAt:         t.clock.Now(),
	}

	shard := t.shardFor(deviceID)
	key := openKey{deviceID: deviceID, contentID: contentID}

	shard.mu.Lock()
	shard.records[record.ID] = record
	shard.open[key] = append(shard.open[key], record.ID)
	shard.byDevice[deviceID] = append(shard.byDevice[deviceID], record.ID)
	shard.mu.Unlock()

	t.logger.Debug().
		Str("record_id", record.ID).
		Str("device_id", deviceID).
		Str("content_id", contentID).
		Time("scheduled_start", start).
		Msg("Content scheduled")

	return record.ID, nil
}

// VerifyPlayback applies a playback signal to the oldest open record for
// the (device, content) pair, creating an ad hoc record when none exists so
// unscheduled playback still produces an auditable trail. The compliance
// booleans are always computed and returned.
func (t *Tracker) VerifyPlayback(
	ctx context.Context, deviceID, contentID string, v *models.PlaybackVerification,
) (*models.PlaybackResult, error) {
	if deviceID == "" {
		return nil, errEmptyDeviceID
	}

	if contentID == "" {
		return nil, errEmptyContentID
	}

	if v == nil {
		return nil, errNilVerification
	}

	result, err := t.applyVerification(deviceID, contentID, v)
	if err != nil {
		return nil, err
	}

	// Terminal verdicts go out after the shard lock is released.
	if result.Record.Status.Terminal() {
		t.publishCompliance(ctx, result)
	}

	return result, nil
}

// applyVerification does the locked portion of VerifyPlayback and returns a
// detached result.
func (t *Tracker) applyVerification(
	deviceID, contentID string, v *models.PlaybackVerification,
) (*models.PlaybackResult, error) {
	now := t.clock.Now()
	shard := t.shardFor(deviceID)
	key := openKey{deviceID: deviceID, contentID: contentID}

	shard.mu.Lock()
	defer shard.mu.Unlock()

	record := t.oldestOpenLocked(shard, key)
	if record == nil {
		record = &models.ProofOfPlayRecord{
			ID:                 uuid.NewString(),
			DeviceID:           deviceID,
			ContentID:          contentID,
			ScheduledStart:     now,
			Status:             models.PlayScheduled,
			VerificationMethod: "ad_hoc",
			CreatedAt:          now,
		}
		shard.records[record.ID] = record
		shard.open[key] = append(shard.open[key], record.ID)
		shard.byDevice[deviceID] = append(shard.byDevice[deviceID], record.ID)

		t.logger.Debug().
			Str("record_id", record.ID).
			Str("device_id", deviceID).
			Str("content_id", contentID).
			Msg("Created ad hoc proof-of-play record for unscheduled playback")
	}

	mergeEvidence(record, v)

	switch v.Status {
	case "started":
		if record.ActualStart == nil {
			start := now
			record.ActualStart = &start
		}

		record.Status = models.PlayPlaying

	case "completed":
		if record.ActualStart == nil {
			start := now
			record.ActualStart = &start
		}

		record.ActualDuration = now.Sub(*record.ActualStart)
		record.Status = models.PlayCompleted
		completed := now
		record.CompletedAt = &completed

	case "failed":
		record.Status = models.PlayFailed
		completed := now
		record.CompletedAt = &completed

	case "skipped":
		record.Status = models.PlaySkipped
		completed := now
		record.CompletedAt = &completed

	default:
		return nil, fmt.Errorf("%w: %q", errUnknownPlaybackStatus, v.Status)
	}

	if record.Status.Terminal() {
		t.closeRecordLocked(shard, key, record)
	}

	result := &models.PlaybackResult{
		Record:     cloneRecord(record),
		Compliance: Compliance(record),
	}

	return result, nil
}

// oldestOpenLocked returns the oldest non-terminal record for a key, or nil.
func (t *Tracker) oldestOpenLocked(shard *trackerShard, key openKey) *models.ProofOfPlayRecord {
	for _, id := range shard.open[key] {
		record := shard.records[id]
		if record != nil && !record.Status.Terminal() {
			return record
		}
	}

	return nil
}

// closeRecordLocked drops a now-terminal record from the open index and
// offers it to the durable recorder.
func (t *Tracker) closeRecordLocked(shard *trackerShard, key openKey, record *models.ProofOfPlayRecord) {
	ids := shard.open[key]
	for i, id := range ids {
		if id == record.ID {
			shard.open[key] = append(ids[:i], ids[i+1:]...)
			break
		}
	}

	if len(shard.open[key]) == 0 {
		delete(shard.open, key)
	}

	if t.recorder != nil {
		t.recorder.RecordProofOfPlay(cloneRecord(record))
	}
}

// mergeEvidence folds verification evidence into the record. Evidence is
// additive; a later signal never erases earlier proof.
func mergeEvidence(record *models.ProofOfPlayRecord, v *models.PlaybackVerification) {
	if v.Method != "" {
		record.VerificationMethod = v.Method
	}

	if v.ScreenshotHash != "" {
		record.ScreenshotHash = v.ScreenshotHash
	}

	if v.AudienceCount > 0 {
		record.AudienceCount = v.AudienceCount
	}

	if len(v.Interactions) > 0 {
		record.InteractionEvents = append(record.InteractionEvents, v.Interactions...)
	}
}

// FailOverdue fails every record still scheduled past its start plus the
// grace period and returns the failed records. Driven by the background
// sweep so stalled content surfaces without a device signal.
func (t *Tracker) FailOverdue(ctx context.Context, now time.Time, grace time.Duration) []*models.ProofOfPlayRecord {
	var failed []*models.ProofOfPlayRecord

	for _, shard := range t.shards {
		shard.mu.Lock()

		// Collect first: closing a record mutates the open index.
		type overdue struct {
			key    openKey
			record *models.ProofOfPlayRecord
		}

		var hits []overdue

		for key, ids := range shard.open {
			for _, id := range ids {
				record := shard.records[id]
				if record == nil || record.Status != models.PlayScheduled {
					continue
				}

				if record.ScheduledStart.Add(grace).Before(now) {
					hits = append(hits, overdue{key: key, record: record})
				}
			}
		}

		for _, h := range hits {
			h.record.Status = models.PlayFailed
			completed := now
			h.record.CompletedAt = &completed

			t.closeRecordLocked(shard, h.key, h.record)
			failed = append(failed, cloneRecord(h.record))
		}
		shard.mu.Unlock()
	}

	for _, record := range failed {
		t.publishCompliance(ctx, &models.PlaybackResult{
			Record:     record,
			Compliance: Compliance(record),
		})
	}

	return failed
}

// publishCompliance hands a terminal verdict to the publisher, best effort.
func (t *Tracker) publishCompliance(ctx context.Context, result *models.PlaybackResult) {
	if t.publisher == nil {
		return
	}

	if err := t.publisher.PublishComplianceEvent(ctx, result); err != nil {
		t.logger.Warn().
			Err(err).
			Str("record_id", result.Record.ID).
			Msg("Failed to publish compliance event")
	}
}

// Compliance scores a record: on_time within 120s of the scheduled start
// (boundary inclusive), full_duration within 10% of the scheduled duration,
// verified when a screenshot hash or interaction events exist. Records with
// no scheduled duration (ad hoc playback) can never claim full_duration.
func Compliance(record *models.ProofOfPlayRecord) models.PlayCompliance {
	var c models.PlayCompliance

	if record.ActualStart != nil {
		drift := record.ActualStart.Sub(record.ScheduledStart)
		if drift < 0 {
			drift = -drift
		}

		c.OnTime = drift <= onTimeTolerance
	}

	if record.ScheduledDuration > 0 && record.ActualDuration > 0 {
		drift := record.ActualDuration - record.ScheduledDuration
		if drift < 0 {
			drift = -drift
		}

		tolerance := time.Duration(float64(record.ScheduledDuration) * fullDurationTolerance)
		c.FullDuration = drift <= tolerance
	}

	c.Verified = record.ScreenshotHash != "" || len(record.InteractionEvents) > 0

	return c
}

func cloneRecord(record *models.ProofOfPlayRecord) *models.ProofOfPlayRecord {
	clone := *record

	if record.ActualStart != nil {
		start := *record.ActualStart
		clone.ActualStart = &start
	}

	if record.CompletedAt != nil {
		completed := *record.CompletedAt
		clone.CompletedAt = &completed
	}

	if len(record.InteractionEvents) > 0 {
		clone.InteractionEvents = append([]models.InteractionEvent(nil), record.InteractionEvents...)
	}

	return &clone
}

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

package proofofplay

import (
	"context"
	"sort"
	"time"

	"github.com/lumenfleet/pulse/pkg/models"
)

// Report builds the auditable compliance report for records whose scheduled
// start falls within [start, end). An empty deviceID reports on the whole
// fleet.
func (t *Tracker) Report(_ context.Context, deviceID string, start, end time.Time) (*models.ProofOfPlayReport, error) {
	var records []*models.ProofOfPlayRecord

	collect := func(shard *trackerShard, ids []string) {
		for _, id := range ids {
			record := shard.records[id]
			if record == nil {
				continue
			}

			if record.ScheduledStart.Before(start) || !record.ScheduledStart.Before(end) {
				continue
			}

			records = append(records, cloneRecord(record))
		}
	}

	if deviceID != "" {
		shard := t.shardFor(deviceID)

		shard.mu.RLock()
		collect(shard, shard.byDevice[deviceID])
		shard.mu.RUnlock()
	} else {
		for _, shard := range t.shards {
			shard.mu.RLock()

			for _, ids := range shard.byDevice {
				collect(shard, ids)
			}
			shard.mu.RUnlock()
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ScheduledStart.Before(records[j].ScheduledStart)
	})

	report := &models.ProofOfPlayReport{
		DeviceID: deviceID,
		Start:    start,
		End:      end,
		Summary:  summarize(records),
		Records:  records,
	}

	return report, nil
}

func summarize(records []*models.ProofOfPlayRecord) models.ProofOfPlaySummary {
	var s models.ProofOfPlaySummary

	s.Total = len(records)

	var onTime, verified int

	for _, record := range records {
		switch record.Status {
		case models.PlayScheduled:
			s.Scheduled++
		case models.PlayPlaying:
			s.Playing++
		case models.PlayCompleted:
			s.Completed++
		case models.PlayFailed:
			s.Failed++
		case models.PlaySkipped:
			s.Skipped++
		}

		c := Compliance(record)
		if c.OnTime {
			onTime++
		}

		if c.Verified {
			verified++
		}
	}

	if s.Total > 0 {
		s.CompletionRate = float64(s.Completed) / float64(s.Total) * 100.0
		s.OnTimeRate = float64(onTime) / float64(s.Total) * 100.0
		s.VerifiedRate = float64(verified) / float64(s.Total) * 100.0
	}

	return s
}

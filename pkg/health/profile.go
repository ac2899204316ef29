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
	"hash/fnv"
	"sync"
	"time"

	"github.com/lumenfleet/pulse/pkg/models"
)

const profileShardCount = 16

// statusInterval marks a status transition; the interval runs from Since
// until the next entry (or now).
type statusInterval struct {
	status models.DeviceStatus
	since  time.Time
}

// DeviceProfile is the mutable per-device health state. All fields are
// guarded by mu; the engine and the sweep loop take the same lock, which
// gives per-device mutual exclusion without cross-device coordination.
type DeviceProfile struct {
	mu sync.Mutex

	deviceID         string
	firstSeen        time.Time
	lastHeartbeat    time.Time
	status           models.DeviceStatus
	performanceScore float64
	currentMetrics   map[models.MetricType]float64
	history          map[models.MetricType]*metricBuffer
	historyCapacity  int
	alertCounts      map[models.AlertSeverity]int
	maintenance      []models.MaintenanceWindow
	statusLog        []statusInterval
}

func newDeviceProfile(deviceID string, historyCapacity int) *DeviceProfile {
	return &DeviceProfile{
		deviceID:         deviceID,
		status:           models.StatusOffline,
		performanceScore: 100.0,
		currentMetrics:   make(map[models.MetricType]float64),
		history:          make(map[models.MetricType]*metricBuffer),
		historyCapacity:  historyCapacity,
		alertCounts:      make(map[models.AlertSeverity]int),
	}
}

// appendSample records a metric sample in the bounded per-channel history
// and updates the current snapshot. Caller holds mu.
func (p *DeviceProfile) appendSample(m models.HealthMetric) {
	buf, ok := p.history[m.Type]
	if !ok {
		buf = newMetricBuffer(p.historyCapacity)
		p.history[m.Type] = buf
	}

	buf.Add(m)
	p.currentMetrics[m.Type] = m.Value
}

// setStatus records a transition in the status log. Caller holds mu.
func (p *DeviceProfile) setStatus(status models.DeviceStatus, now time.Time) {
	if p.status == status && len(p.statusLog) > 0 {
		return
	}

	p.status = status
	p.statusLog = append(p.statusLog, statusInterval{status: status, since: now})

	// Keep the log bounded: entries older than 48h carry no weight for the
	// 24h uptime window.
	const maxAge = 48 * time.Hour

	cutoff := now.Add(-maxAge)
	trim := 0

	for trim < len(p.statusLog)-1 && p.statusLog[trim+1].since.Before(cutoff) {
		trim++
	}

	if trim > 0 {
		p.statusLog = append(p.statusLog[:0], p.statusLog[trim:]...)
	}
}

// snapshotMetrics copies the current metric values. Caller holds mu.
func (p *DeviceProfile) snapshotMetrics() map[models.MetricType]float64 {
	out := make(map[models.MetricType]float64, len(p.currentMetrics))
	for k, v := range p.currentMetrics {
		out[k] = v
	}

	return out
}

// MetricHistory returns the stored samples for one channel in time order.
func (p *DeviceProfile) MetricHistory(metricType models.MetricType) []models.HealthMetric {
	p.mu.Lock()
	defer p.mu.Unlock()

	buf, ok := p.history[metricType]
	if !ok {
		return nil
	}

	return buf.Points()
}

// profileShard holds a partition of device profiles.
type profileShard struct {
	mu       sync.RWMutex
	profiles map[string]*DeviceProfile
}

// ProfileStore is a sharded map of device id to profile. Shard locks guard
// only the map; mutation of a profile takes the profile's own lock.
type ProfileStore struct {
	shards          []*profileShard
	historyCapacity int
}

// NewProfileStore creates an empty store whose profiles keep
// historyCapacity samples per metric channel.
func NewProfileStore(historyCapacity int) *ProfileStore {
	shards := make([]*profileShard, profileShardCount)
	for i := range shards {
		shards[i] = &profileShard{profiles: make(map[string]*DeviceProfile)}
	}

	return &ProfileStore{
		shards:          shards,
		historyCapacity: historyCapacity,
	}
}

func (s *ProfileStore) shardFor(deviceID string) *profileShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(deviceID))

	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Get returns the profile for a device, if one exists.
func (s *ProfileStore) Get(deviceID string) (*DeviceProfile, bool) {
	shard := s.shardFor(deviceID)

	shard.mu.RLock()
	defer shard.mu.RUnlock()

	p, ok := shard.profiles[deviceID]

	return p, ok
}

// GetOrCreate returns the profile for a device, creating it lazily on first
// use. A device has at most one profile.
func (s *ProfileStore) GetOrCreate(deviceID string) *DeviceProfile {
	shard := s.shardFor(deviceID)

	shard.mu.RLock()
	p, ok := shard.profiles[deviceID]
	shard.mu.RUnlock()

	if ok {
		return p
	}

	shard.mu.Lock()
	defer shard.mu.Unlock()

	if p, ok = shard.profiles[deviceID]; ok {
		return p
	}

	p = newDeviceProfile(deviceID, s.historyCapacity)
	shard.profiles[deviceID] = p

	return p
}

// ForEach visits every profile. The snapshot of each shard is taken under
// the shard read lock; fn runs without it, taking per-profile locks itself.
func (s *ProfileStore) ForEach(fn func(p *DeviceProfile)) {
	for _, shard := range s.shards {
		shard.mu.RLock()
		batch := make([]*DeviceProfile, 0, len(shard.profiles))

		for _, p := range shard.profiles {
			batch = append(batch, p)
		}
		shard.mu.RUnlock()

		for _, p := range batch {
			fn(p)
		}
	}
}

// Count returns the number of known devices.
func (s *ProfileStore) Count() int {
	total := 0

	for _, shard := range s.shards {
		shard.mu.RLock()
		total += len(shard.profiles)
		shard.mu.RUnlock()
	}

	return total
}

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

import "github.com/lumenfleet/pulse/pkg/models"

// metricBuffer is a fixed-capacity ring of samples for one metric channel.
// The oldest sample is evicted on overflow. Not safe for concurrent use;
// callers hold the owning profile's lock.
type metricBuffer struct {
	samples []models.HealthMetric
	head    int
	size    int
}

func newMetricBuffer(capacity int) *metricBuffer {
	return &metricBuffer{
		samples: make([]models.HealthMetric, capacity),
	}
}

// Add appends a sample, evicting the oldest when full.
func (b *metricBuffer) Add(m models.HealthMetric) {
	b.samples[b.head] = m
	b.head = (b.head + 1) % len(b.samples)

	if b.size < len(b.samples) {
		b.size++
	}
}

// Len returns the number of stored samples.
func (b *metricBuffer) Len() int {
	return b.size
}

// Points returns the stored samples in insertion (time) order, oldest first.
func (b *metricBuffer) Points() []models.HealthMetric {
	points := make([]models.HealthMetric, 0, b.size)

	start := b.head - b.size
	if start < 0 {
		start += len(b.samples)
	}

	for i := 0; i < b.size; i++ {
		points = append(points, b.samples[(start+i)%len(b.samples)])
	}

	return points
}

// Last returns the most recent sample, or nil when empty.
func (b *metricBuffer) Last() *models.HealthMetric {
	if b.size == 0 {
		return nil
	}

	idx := b.head - 1
	if idx < 0 {
		idx += len(b.samples)
	}

	return &b.samples[idx]
}

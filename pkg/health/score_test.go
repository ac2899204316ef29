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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumenfleet/pulse/pkg/models"
)

func TestPerformanceScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current map[models.MetricType]float64
		want    float64
	}{
		{
			name:    "no metrics is a perfect score",
			current: map[models.MetricType]float64{},
			want:    100,
		},
		{
			name: "all nominal",
			current: map[models.MetricType]float64{
				models.MetricCPUUsage:        30,
				models.MetricMemoryUsage:     40,
				models.MetricStorageUsage:    50,
				models.MetricNetworkStrength: 90,
				models.MetricTemperature:     45,
			},
			want: 100,
		},
		{
			name: "mild cpu pressure",
			current: map[models.MetricType]float64{
				models.MetricCPUUsage: 55,
			},
			want: 95,
		},
		{
			name: "hot and loaded",
			current: map[models.MetricType]float64{
				models.MetricCPUUsage:    80,  // -15
				models.MetricMemoryUsage: 85,  // -10
				models.MetricTemperature: 75,  // -10
			},
			want: 65,
		},
		{
			name: "weak signal tiers",
			current: map[models.MetricType]float64{
				models.MetricNetworkStrength: 55, // -8
			},
			want: 92,
		},
		{
			name: "everything at worst clamps to zero",
			current: map[models.MetricType]float64{
				models.MetricCPUUsage:        99, // -30
				models.MetricMemoryUsage:     99, // -25
				models.MetricStorageUsage:    99, // -20
				models.MetricNetworkStrength: 5,  // -25
				models.MetricTemperature:     95, // -20
			},
			want: 0,
		},
		{
			name: "non-scoring metrics contribute nothing",
			current: map[models.MetricType]float64{
				models.MetricBandwidth:     0.1,
				models.MetricContentErrors: 500,
				models.MetricResponseTime:  9000,
			},
			want: 100,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tt.want, PerformanceScore(tt.current), 0.0001)
		})
	}
}

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

// PerformanceScore computes the 0-100 device performance score from the
// current metric snapshot. It is a pure function: metrics absent from the
// snapshot contribute no penalty.
func PerformanceScore(current map[models.MetricType]float64) float64 {
	score := 100.0

	if v, ok := current[models.MetricCPUUsage]; ok {
		switch {
		case v > 90:
			score -= 30
		case v > 70:
			score -= 15
		case v > 50:
			score -= 5
		}
	}

	if v, ok := current[models.MetricMemoryUsage]; ok {
		switch {
		case v > 95:
			score -= 25
		case v > 80:
			score -= 10
		case v > 60:
			score -= 3
		}
	}

	if v, ok := current[models.MetricStorageUsage]; ok {
		switch {
		case v > 95:
			score -= 20
		case v > 85:
			score -= 10
		case v > 70:
			score -= 5
		}
	}

	// Network strength is inverted: lower is worse.
	if v, ok := current[models.MetricNetworkStrength]; ok {
		switch {
		case v < 20:
			score -= 25
		case v < 40:
			score -= 15
		case v < 60:
			score -= 8
		}
	}

	if v, ok := current[models.MetricTemperature]; ok {
		switch {
		case v > 80:
			score -= 20
		case v > 70:
			score -= 10
		}
	}

	if score < 0 {
		return 0
	}

	if score > 100 {
		return 100
	}

	return score
}

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

package notify

import (
	"context"

	"github.com/lumenfleet/pulse/pkg/models"
)

// AlertSink is any destination for raised alerts.
type AlertSink interface {
	Notify(ctx context.Context, alert *models.HealthAlert)
}

// MultiNotifier fans an alert out to every configured sink.
type MultiNotifier []AlertSink

func (m MultiNotifier) Notify(ctx context.Context, alert *models.HealthAlert) {
	for _, sink := range m {
		sink.Notify(ctx, alert)
	}
}

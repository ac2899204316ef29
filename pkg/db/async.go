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

package db

import (
	"context"
	"sync"
	"time"

	"github.com/lumenfleet/pulse/pkg/logger"
	"github.com/lumenfleet/pulse/pkg/models"
	"github.com/lumenfleet/pulse/pkg/stats"
)

const (
	defaultRecorderQueue = 1024
	writeTimeout         = 5 * time.Second
)

type writeJob struct {
	metrics []models.HealthMetric
	alert   *models.HealthAlert
	record  *models.ProofOfPlayRecord
}

// AsyncRecorder decouples the engine from the durable store with a bounded
// queue and a single writer goroutine. Offers never block; on overflow the
// write is dropped and counted, keeping heartbeat latency flat.
type AsyncRecorder struct {
	svc    Service
	logger logger.Logger

	queue chan writeJob
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// NewAsyncRecorder wraps a Service and starts the writer goroutine.
func NewAsyncRecorder(svc Service, log logger.Logger) *AsyncRecorder {
	r := &AsyncRecorder{
		svc:    svc,
		logger: log,
		queue:  make(chan writeJob, defaultRecorderQueue),
		done:   make(chan struct{}),
	}

	r.wg.Add(1)

	go r.worker()

	return r
}

// RecordMetrics offers appended samples for durable storage.
func (r *AsyncRecorder) RecordMetrics(metrics []models.HealthMetric) {
	r.offer(writeJob{metrics: metrics})
}

// RecordAlert offers a raised or mutated alert for durable storage.
func (r *AsyncRecorder) RecordAlert(alert *models.HealthAlert) {
	r.offer(writeJob{alert: alert})
}

// RecordProofOfPlay offers a terminal proof-of-play record.
func (r *AsyncRecorder) RecordProofOfPlay(record *models.ProofOfPlayRecord) {
	r.offer(writeJob{record: record})
}

func (r *AsyncRecorder) offer(job writeJob) {
	select {
	case r.queue <- job:
	default:
		stats.NotificationsDropped.Inc()

		r.logger.Warn().Msg("History queue full, dropping write")
	}
}

// Close drains the queue and stops the writer.
func (r *AsyncRecorder) Close(ctx context.Context) error {
	r.once.Do(func() { close(r.done) })
	r.wg.Wait()

	return r.svc.Close(ctx)
}

func (r *AsyncRecorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case job := <-r.queue:
			r.write(job)
		case <-r.done:
			for {
				select {
				case job := <-r.queue:
					r.write(job)
				default:
					return
				}
			}
		}
	}
}

func (r *AsyncRecorder) write(job writeJob) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error

	switch {
	case job.metrics != nil:
		err = r.svc.StoreMetrics(ctx, job.metrics)
	case job.alert != nil:
		err = r.svc.StoreAlert(ctx, job.alert)
	case job.record != nil:
		err = r.svc.StoreProofOfPlay(ctx, job.record)
	}

	if err != nil {
		r.logger.Error().Err(err).Msg("Durable history write failed")
	}
}

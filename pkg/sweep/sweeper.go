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

// Package sweep runs the background loop that detects silently-offline
// devices and overdue proof-of-play records without waiting for heartbeats.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lumenfleet/pulse/pkg/logger"
	"github.com/lumenfleet/pulse/pkg/models"
	"github.com/lumenfleet/pulse/pkg/stats"
)

var errSweepPanic = errors.New("sweep iteration panicked")

// HealthEngine is the slice of the health engine the sweeper drives.
type HealthEngine interface {
	SweepStaleDevices(ctx context.Context) int
	ReportPlaybackFailure(ctx context.Context, deviceID, contentID string)
	DeviceCount() int
}

// PlaybackTracker is the slice of the proof-of-play tracker the sweeper
// drives.
type PlaybackTracker interface {
	FailOverdue(ctx context.Context, now time.Time, grace time.Duration) []*models.ProofOfPlayRecord
}

// ReportSink receives the per-iteration summary. May be nil.
type ReportSink interface {
	PublishSweepReport(ctx context.Context, report *models.SweepReport) error
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Sweeper is the single long-lived background task. It stops accepting new
// iterations on Stop and lets the current one finish.
type Sweeper struct {
	cfg     models.SweepConfig
	engine  HealthEngine
	tracker PlaybackTracker
	sink    ReportSink
	clock   Clock
	logger  logger.Logger

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// New creates a sweeper. sink may be nil; clock nil defaults to the wall
// clock.
func New(
	cfg *models.SweepConfig,
	engine HealthEngine,
	tracker PlaybackTracker,
	sink ReportSink,
	clock Clock,
	log logger.Logger,
) *Sweeper {
	if cfg == nil {
		cfg = &models.SweepConfig{}
	}

	_ = cfg.Validate()

	if clock == nil {
		clock = realClock{}
	}

	return &Sweeper{
		cfg:     *cfg,
		engine:  engine,
		tracker: tracker,
		sink:    sink,
		clock:   clock,
		logger:  log,
		done:    make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.cfg.Interval.Std()).
		Dur("playback_grace", s.cfg.PlaybackGrace.Std()).
		Msg("Starting background sweep loop")

	s.wg.Add(1)

	go s.run(ctx)

	return nil
}

// Stop shuts the loop down gracefully, waiting for an in-flight iteration.
func (s *Sweeper) Stop(_ context.Context) error {
	s.once.Do(func() { close(s.done) })
	s.wg.Wait()

	s.logger.Info().Msg("Background sweep loop stopped")

	return nil
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Sweep iteration failed, backing off")

				select {
				case <-time.After(s.cfg.ErrorBackoff.Std()):
				case <-s.done:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// Sweep runs one iteration: offline detection, overdue playback failure,
// then the reporting hook. Each phase is isolated so one bad device or
// record never stops the rest.
func (s *Sweeper) Sweep(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errSweepPanic, r)

			s.logger.Error().Interface("panic", r).Msg("Recovered from panic in sweep iteration")
		}
	}()

	started := s.clock.Now()

	offline := s.engine.SweepStaleDevices(ctx)

	failed := s.tracker.FailOverdue(ctx, s.clock.Now(), s.cfg.PlaybackGrace.Std())
	for _, record := range failed {
		s.engine.ReportPlaybackFailure(ctx, record.DeviceID, record.ContentID)

		stats.PlaybacksFailed.Inc()
	}

	stats.SweepIterations.Inc()

	report := &models.SweepReport{
		Timestamp:       started,
		DevicesSwept:    s.engine.DeviceCount(),
		DevicesOffline:  offline,
		PlaybacksFailed: len(failed),
		Elapsed:         s.clock.Now().Sub(started),
	}

	s.logger.Debug().
		Int("devices_swept", report.DevicesSwept).
		Int("devices_offline", report.DevicesOffline).
		Int("playbacks_failed", report.PlaybacksFailed).
		Msg("Sweep iteration complete")

	if s.sink != nil {
		if sinkErr := s.sink.PublishSweepReport(ctx, report); sinkErr != nil {
			// Reporting is best effort; the loop keeps running.
			s.logger.Warn().Err(sinkErr).Msg("Failed to publish sweep report")
		}
	}

	return nil
}

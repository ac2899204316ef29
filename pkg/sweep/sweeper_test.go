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

package sweep

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenfleet/pulse/pkg/logger"
	"github.com/lumenfleet/pulse/pkg/models"
)

type fakeEngine struct {
	mu       sync.Mutex
	offline  int
	devices  int
	failures []string
}

func (e *fakeEngine) SweepStaleDevices(_ context.Context) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.offline
}

func (e *fakeEngine) ReportPlaybackFailure(_ context.Context, deviceID, contentID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.failures = append(e.failures, deviceID+"/"+contentID)
}

func (e *fakeEngine) DeviceCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.devices
}

func (e *fakeEngine) Failures() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string(nil), e.failures...)
}

type fakeTracker struct {
	mu        sync.Mutex
	overdue   []*models.ProofOfPlayRecord
	lastGrace time.Duration
}

func (t *fakeTracker) FailOverdue(_ context.Context, _ time.Time, grace time.Duration) []*models.ProofOfPlayRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastGrace = grace
	out := t.overdue
	t.overdue = nil

	return out
}

type captureSink struct {
	mu      sync.Mutex
	reports []*models.SweepReport
	err     error
}

func (s *captureSink) PublishSweepReport(_ context.Context, report *models.SweepReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = append(s.reports, report)

	return s.err
}

func (s *captureSink) Reports() []*models.SweepReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*models.SweepReport(nil), s.reports...)
}

func testSweepConfig() *models.SweepConfig {
	return &models.SweepConfig{
		Interval:      models.Duration(20 * time.Millisecond),
		PlaybackGrace: models.Duration(5 * time.Minute),
		ErrorBackoff:  models.Duration(10 * time.Millisecond),
	}
}

func TestSweepReportsFailedPlaybacks(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{offline: 2, devices: 10}
	tracker := &fakeTracker{
		overdue: []*models.ProofOfPlayRecord{
			{DeviceID: "display-001", ContentID: "campaign-1", Status: models.PlayFailed},
			{DeviceID: "display-002", ContentID: "campaign-2", Status: models.PlayFailed},
		},
	}
	sink := &captureSink{}

	s := New(testSweepConfig(), engine, tracker, sink, nil, logger.NewTestLogger())

	require.NoError(t, s.Sweep(context.Background()))

	assert.Equal(t, []string{"display-001/campaign-1", "display-002/campaign-2"}, engine.Failures())
	assert.Equal(t, 5*time.Minute, tracker.lastGrace)

	reports := sink.Reports()
	require.Len(t, reports, 1)
	assert.Equal(t, 10, reports[0].DevicesSwept)
	assert.Equal(t, 2, reports[0].DevicesOffline)
	assert.Equal(t, 2, reports[0].PlaybacksFailed)
}

func TestSweepWithNilSink(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	tracker := &fakeTracker{}

	s := New(testSweepConfig(), engine, tracker, nil, nil, logger.NewTestLogger())

	assert.NoError(t, s.Sweep(context.Background()))
}

func TestSweepSinkFailureIsBestEffort(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	tracker := &fakeTracker{}
	sink := &captureSink{err: errors.New("broker down")}

	s := New(testSweepConfig(), engine, tracker, sink, nil, logger.NewTestLogger())

	assert.NoError(t, s.Sweep(context.Background()))
	assert.Len(t, sink.Reports(), 1)
}

type panickingEngine struct {
	fakeEngine
}

func (*panickingEngine) SweepStaleDevices(_ context.Context) int {
	panic("poisoned profile")
}

func TestSweepPanicSurfacesAsError(t *testing.T) {
	t.Parallel()

	engine := &panickingEngine{}
	tracker := &fakeTracker{}
	sink := &captureSink{}

	s := New(testSweepConfig(), engine, tracker, sink, nil, logger.NewTestLogger())

	err := s.Sweep(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errSweepPanic)

	// The iteration aborted before the reporting hook.
	assert.Empty(t, sink.Reports())
}

func TestSweeperLoopRunsAndStops(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{devices: 1}
	tracker := &fakeTracker{}
	sink := &captureSink{}

	s := New(testSweepConfig(), engine, tracker, sink, nil, logger.NewTestLogger())

	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return len(sink.Reports()) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))

	// No further iterations after Stop.
	count := len(sink.Reports())
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, count, len(sink.Reports()))

	// Stop is idempotent.
	assert.NoError(t, s.Stop(context.Background()))
}

func TestSweeperStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	tracker := &fakeTracker{}

	s := New(testSweepConfig(), engine, tracker, nil, nil, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	cancel()

	done := make(chan struct{})

	go func() {
		_ = s.Stop(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}

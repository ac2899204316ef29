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

// Package lifecycle ties long-running services to process signals and
// drives an orderly startup and shutdown.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumenfleet/pulse/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Service is anything with a managed start and stop.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Options configures a managed run.
type Options struct {
	ServiceName string
	Services    []Service
	Logger      logger.Logger
}

// Run starts every service in order, blocks until SIGINT/SIGTERM or a
// start failure, then stops them in reverse order under a bounded
// shutdown deadline.
func Run(ctx context.Context, opts *Options) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := opts.Logger

	errCh := make(chan error, len(opts.Services))
	started := make([]Service, 0, len(opts.Services))

	for _, svc := range opts.Services {
		if err := svc.Start(ctx); err != nil {
			stopServices(started, log)

			return fmt.Errorf("failed to start %s: %w", opts.ServiceName, err)
		}

		started = append(started, svc)

		if runner, ok := svc.(interface{ Err() <-chan error }); ok {
			go func() {
				if err := <-runner.Err(); err != nil {
					errCh <- err
				}
			}()
		}
	}

	log.Info().Str("service", opts.ServiceName).Msg("Service started")

	var runErr error

	select {
	case <-ctx.Done():
		log.Info().Str("service", opts.ServiceName).Msg("Shutdown signal received")
	case runErr = <-errCh:
		log.Error().Err(runErr).Str("service", opts.ServiceName).Msg("Service failed")
	}

	stopServices(started, log)

	return runErr
}

func stopServices(services []Service, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Error stopping service")
		}
	}
}

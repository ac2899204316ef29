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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/lumenfleet/pulse/pkg/api"
	"github.com/lumenfleet/pulse/pkg/config"
	"github.com/lumenfleet/pulse/pkg/db"
	"github.com/lumenfleet/pulse/pkg/health"
	"github.com/lumenfleet/pulse/pkg/lifecycle"
	"github.com/lumenfleet/pulse/pkg/logger"
	"github.com/lumenfleet/pulse/pkg/models"
	"github.com/lumenfleet/pulse/pkg/notify"
	"github.com/lumenfleet/pulse/pkg/proofofplay"
	"github.com/lumenfleet/pulse/pkg/sweep"
)

var errFailedToLoadConfig = fmt.Errorf("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/pulse/core.json", "Path to core config file")
	flag.Parse()

	ctx := context.Background()

	cfgLoader := config.NewConfig(nil)

	var cfg models.CoreConfig

	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = &logger.Config{
			Level:  "info",
			Output: "stdout",
		}
	}

	coreLogger, err := logger.New(logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Durable history sits behind an async queue so the engine never waits
	// on a database write.
	store := db.NewNoop()

	if cfg.Database != nil && cfg.Database.Enabled {
		store, err = db.NewPostgres(ctx, cfg.Database.DSN, coreLogger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	recorder := db.NewAsyncRecorder(store, coreLogger)
	defer func() {
		if closeErr := recorder.Close(ctx); closeErr != nil {
			coreLogger.Error().Err(closeErr).Msg("Error closing history recorder")
		}
	}()

	var notifiers notify.MultiNotifier

	if cfg.Webhook != nil && cfg.Webhook.Enabled {
		webhook, whErr := notify.NewWebhookNotifier(cfg.Webhook, coreLogger)
		if whErr != nil {
			return fmt.Errorf("failed to create webhook notifier: %w", whErr)
		}

		defer webhook.Close()

		notifiers = append(notifiers, webhook)
	}

	var (
		reportSink     sweep.ReportSink
		eventPublisher *notify.EventPublisher
	)

	if cfg.NATS != nil {
		publisher, nc, natsErr := notify.ConnectWithEventPublisher(ctx, cfg.NATS, coreLogger)
		if natsErr != nil {
			return fmt.Errorf("failed to connect to NATS: %w", natsErr)
		}

		defer nc.Close()

		notifiers = append(notifiers, publisher)
		reportSink = publisher
		eventPublisher = publisher
	}

	var notifier health.AlertNotifier
	if len(notifiers) > 0 {
		notifier = notifiers
	}

	engine := health.NewEngine(&cfg.Health, notifier, recorder, nil, coreLogger)
	tracker := proofofplay.NewTracker(recorder, nil, coreLogger)
	engine.SetPlaybackVerifier(tracker)

	if eventPublisher != nil {
		tracker.SetCompliancePublisher(eventPublisher)
	}

	sweeper := sweep.New(&cfg.Sweep, engine, tracker, reportSink, nil, coreLogger)
	apiServer := api.NewAPIServer(&cfg.API, engine, tracker, coreLogger)

	return lifecycle.Run(ctx, &lifecycle.Options{
		ServiceName: "pulse-core",
		Services:    []lifecycle.Service{sweeper, apiServer},
		Logger:      coreLogger,
	})
}

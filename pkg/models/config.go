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

package models

import (
	"fmt"
	"time"

	"github.com/lumenfleet/pulse/pkg/logger"
)

// HealthConfig tunes the health engine.
type HealthConfig struct {
	OfflineThreshold     Duration `json:"offline_threshold"`
	AlertCooldown        Duration `json:"alert_cooldown"`
	HistoryCapacity      int      `json:"history_capacity"`
	SLAUptimeTarget      float64  `json:"sla_uptime_target"`
	SLAPerformanceTarget float64  `json:"sla_performance_target"`
}

// Validate applies engine defaults: 600s offline threshold, 5m alert
// cooldown, 1440-sample history (one per minute for 24h), 99.5/85.0 SLA
// targets.
func (c *HealthConfig) Validate() error {
	if c.OfflineThreshold <= 0 {
		c.OfflineThreshold = Duration(600 * time.Second)
	}

	if c.AlertCooldown <= 0 {
		c.AlertCooldown = Duration(5 * time.Minute)
	}

	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = 1440
	}

	if c.SLAUptimeTarget <= 0 {
		c.SLAUptimeTarget = 99.5
	}

	if c.SLAPerformanceTarget <= 0 {
		c.SLAPerformanceTarget = 85.0
	}

	return nil
}

// SweepConfig tunes the background sweep loop.
type SweepConfig struct {
	Interval      Duration `json:"interval"`
	PlaybackGrace Duration `json:"playback_grace"`
	ErrorBackoff  Duration `json:"error_backoff"`
}

// Validate applies sweep defaults.
func (c *SweepConfig) Validate() error {
	if c.Interval <= 0 {
		c.Interval = Duration(60 * time.Second)
	}

	if c.PlaybackGrace <= 0 {
		c.PlaybackGrace = Duration(5 * time.Minute)
	}

	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = Duration(5 * time.Second)
	}

	return nil
}

// WebhookConfig configures the webhook alert notifier.
type WebhookConfig struct {
	Enabled  bool              `json:"enabled"`
	URL      string            `json:"url"`
	Timeout  Duration          `json:"timeout,omitempty"`
	Cooldown Duration          `json:"cooldown,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
}

// Validate ensures the webhook configuration is usable when enabled.
func (c *WebhookConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.URL == "" {
		return fmt.Errorf("webhook url is required when enabled")
	}

	if c.Timeout <= 0 {
		c.Timeout = Duration(10 * time.Second)
	}

	return nil
}

// NATSConfig configures NATS connectivity for event publishing.
type NATSConfig struct {
	URL        string   `json:"url"`
	StreamName string   `json:"stream_name,omitempty"`
	Subjects   []string `json:"subjects,omitempty"`
}

// Validate ensures the NATS configuration is valid.
func (c *NATSConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("nats url is required")
	}

	if c.StreamName == "" {
		c.StreamName = "pulse-events"
	}

	if len(c.Subjects) == 0 {
		c.Subjects = []string{"events.device.*", "events.compliance.*"}
	}

	return nil
}

// DatabaseConfig configures the durable history persister.
type DatabaseConfig struct {
	Enabled bool   `json:"enabled"`
	DSN     string `json:"dsn,omitempty"`
}

// Validate ensures the database configuration is usable when enabled.
func (c *DatabaseConfig) Validate() error {
	if c.Enabled && c.DSN == "" {
		return fmt.Errorf("database dsn is required when enabled")
	}

	return nil
}

// APIConfig configures the HTTP adapter.
type APIConfig struct {
	ListenAddr string `json:"listen_addr"`
	APIKey     string `json:"api_key,omitempty"`
}

// Validate applies API defaults.
func (c *APIConfig) Validate() error {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8090"
	}

	return nil
}

// CoreConfig is the top-level daemon configuration.
type CoreConfig struct {
	Health   HealthConfig    `json:"health"`
	Sweep    SweepConfig     `json:"sweep"`
	Webhook  *WebhookConfig  `json:"webhook,omitempty"`
	NATS     *NATSConfig     `json:"nats,omitempty"`
	Database *DatabaseConfig `json:"database,omitempty"`
	API      APIConfig       `json:"api"`
	Logging  *logger.Config  `json:"logging,omitempty"`
}

// Validate validates every section, applying defaults as it goes.
func (c *CoreConfig) Validate() error {
	if err := c.Health.Validate(); err != nil {
		return err
	}

	if err := c.Sweep.Validate(); err != nil {
		return err
	}

	if c.Webhook != nil {
		if err := c.Webhook.Validate(); err != nil {
			return err
		}
	}

	if c.NATS != nil {
		if err := c.NATS.Validate(); err != nil {
			return err
		}
	}

	if c.Database != nil {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}

	return c.API.Validate()
}

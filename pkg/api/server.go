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

// Package api provides the HTTP API server for the fleet health engine.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumenfleet/pulse/pkg/health"
	"github.com/lumenfleet/pulse/pkg/logger"
	"github.com/lumenfleet/pulse/pkg/models"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultIdleTimeout  = 60 * time.Second

	defaultReportWindow = 24 * time.Hour
)

// APIServer exposes the health engine and proof-of-play tracker over HTTP.
type APIServer struct {
	router   *mux.Router
	engine   HealthService
	playback PlaybackService
	apiKey   string
	addr     string
	logger   logger.Logger
	srv      *http.Server
	errCh    chan error
}

// NewAPIServer wires the routes and returns a server ready to Start.
func NewAPIServer(cfg *models.APIConfig, engine HealthService, playback PlaybackService, log logger.Logger) *APIServer {
	s := &APIServer{
		router:   mux.NewRouter(),
		engine:   engine,
		playback: playback,
		apiKey:   cfg.APIKey,
		addr:     cfg.ListenAddr,
		logger:   log,
		errCh:    make(chan error, 1),
	}

	s.setupRoutes()

	return s
}

// Router exposes the configured handler, mainly for tests.
func (s *APIServer) Router() http.Handler {
	return s.router
}

func (s *APIServer) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())

	r := s.router.PathPrefix("/api").Subrouter()
	r.Use(s.authenticationMiddleware)

	r.HandleFunc("/devices/{id}/heartbeat", s.postHeartbeat).Methods(http.MethodPost)
	r.HandleFunc("/devices/{id}/health", s.getDeviceHealth).Methods(http.MethodGet)
	r.HandleFunc("/devices/{id}/sla", s.getDeviceSLA).Methods(http.MethodGet)
	r.HandleFunc("/devices/{id}/maintenance", s.postMaintenanceWindow).Methods(http.MethodPost)
	r.HandleFunc("/devices/{id}/playback", s.postPlayback).Methods(http.MethodPost)
	r.HandleFunc("/devices/{id}/proof-of-play", s.getProofOfPlayReport).Methods(http.MethodGet)

	// Fleet-wide report: same handler, no device filter.
	r.HandleFunc("/proof-of-play", s.getProofOfPlayReport).Methods(http.MethodGet)

	r.HandleFunc("/alerts/{id}/acknowledge", s.postAcknowledgeAlert).Methods(http.MethodPost)
	r.HandleFunc("/alerts/{id}/resolve", s.postResolveAlert).Methods(http.MethodPost)

	r.HandleFunc("/content/schedule", s.postSchedule).Methods(http.MethodPost)
}

// authenticationMiddleware checks the X-API-Key header when a key is
// configured; without one the API is open, which suits dev setups.
func (s *APIServer) authenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("X-API-Key") != s.apiKey {
			writeError(w, "Unauthorized", http.StatusUnauthorized)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *APIServer) postHeartbeat(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]

	var hb models.Heartbeat
	if err := json.NewDecoder(r.Body).Decode(&hb); err != nil {
		writeError(w, fmt.Sprintf("Invalid heartbeat payload: %v", err), http.StatusBadRequest)

		return
	}

	result, err := s.engine.ProcessHeartbeat(r.Context(), deviceID, &hb)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)

		return
	}

	if err := s.encodeJSONResponse(w, result); err != nil {
		s.logger.Error().Err(err).Str("device_id", deviceID).Msg("Failed to encode heartbeat response")
	}
}

func (s *APIServer) getDeviceHealth(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]

	status, err := s.engine.GetDeviceHealthStatus(r.Context(), deviceID)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)

		return
	}

	if err := s.encodeJSONResponse(w, status); err != nil {
		s.logger.Error().Err(err).Str("device_id", deviceID).Msg("Failed to encode health response")
	}
}

func (s *APIServer) getDeviceSLA(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]

	compliance := s.engine.SLACompliance(deviceID)

	if err := s.encodeJSONResponse(w, compliance); err != nil {
		s.logger.Error().Err(err).Str("device_id", deviceID).Msg("Failed to encode SLA response")
	}
}

func (s *APIServer) postMaintenanceWindow(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]

	var win models.MaintenanceWindow
	if err := json.NewDecoder(r.Body).Decode(&win); err != nil {
		writeError(w, fmt.Sprintf("Invalid maintenance window payload: %v", err), http.StatusBadRequest)

		return
	}

	if err := s.engine.SetMaintenanceWindow(r.Context(), deviceID, win); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) postAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	s.mutateAlert(w, r, s.engine.AcknowledgeAlert)
}

func (s *APIServer) postResolveAlert(w http.ResponseWriter, r *http.Request) {
	s.mutateAlert(w, r, s.engine.ResolveAlert)
}

func (s *APIServer) mutateAlert(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, alertID string) error) {
	alertID := mux.Vars(r)["id"]

	if err := fn(r.Context(), alertID); err != nil {
		if errors.Is(err, health.ErrAlertNotFound) {
			writeError(w, "Alert not found", http.StatusNotFound)

			return
		}

		writeError(w, err.Error(), http.StatusBadRequest)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) postSchedule(w http.ResponseWriter, r *http.Request) {
	var req models.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("Invalid schedule payload: %v", err), http.StatusBadRequest)

		return
	}

	recordID, err := s.playback.Schedule(r.Context(), req.DeviceID, req.ContentID, req.ScheduledStart, req.ScheduledDuration.Std())
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)

		return
	}

	w.WriteHeader(http.StatusCreated)

	if err := s.encodeJSONResponse(w, models.ScheduleResponse{RecordID: recordID}); err != nil {
		s.logger.Error().Err(err).Str("record_id", recordID).Msg("Failed to encode schedule response")
	}
}

func (s *APIServer) postPlayback(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]

	var req models.PlaybackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("Invalid playback payload: %v", err), http.StatusBadRequest)

		return
	}

	result, err := s.playback.VerifyPlayback(r.Context(), deviceID, req.ContentID, &req.Verification)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)

		return
	}

	if err := s.encodeJSONResponse(w, result); err != nil {
		s.logger.Error().Err(err).Str("device_id", deviceID).Msg("Failed to encode playback response")
	}
}

func (s *APIServer) getProofOfPlayReport(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]

	start, end, err := parseTimeRange(r.URL.Query())
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)

		return
	}

	report, err := s.playback.Report(r.Context(), deviceID, start, end)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)

		return
	}

	if err := s.encodeJSONResponse(w, report); err != nil {
		s.logger.Error().Err(err).Str("device_id", deviceID).Msg("Failed to encode proof-of-play report")
	}
}

// parseTimeRange parses start and end times from query parameters,
// defaulting to the trailing 24 hours.
func parseTimeRange(query url.Values) (start, end time.Time, err error) {
	end = time.Now()
	start = end.Add(-defaultReportWindow)

	if startStr := query.Get("start"); startStr != "" {
		t, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start time format: %w", err)
		}

		start = t
	}

	if endStr := query.Get("end"); endStr != "" {
		t, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end time format: %w", err)
		}

		end = t
	}

	return start, end, nil
}

func (*APIServer) encodeJSONResponse(w http.ResponseWriter, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return err
	}

	return nil
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errResponse := models.ErrorResponse{
		Message: message,
		Status:  statusCode,
	}

	if err := json.NewEncoder(w).Encode(errResponse); err != nil {
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}

// Start begins serving on the configured address. It returns once the
// listener is running; serve failures surface through Err.
func (s *APIServer) Start(_ context.Context) error {
	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errCh <- err
		}
	}()

	s.logger.Info().Str("addr", s.addr).Msg("HTTP API listening")

	return nil
}

// Err reports an asynchronous serve failure.
func (s *APIServer) Err() <-chan error {
	return s.errCh
}

// Stop shuts the server down gracefully.
func (s *APIServer) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}

	return s.srv.Shutdown(ctx)
}

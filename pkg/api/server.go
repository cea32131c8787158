/*
 * Copyright 2025 Carver Automation Corporation.
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

// Package api provides the HTTP API server for the dashboard
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/craftdeck/craftdeck/pkg/aggregator"
	srHttp "github.com/craftdeck/craftdeck/pkg/http"
	"github.com/craftdeck/craftdeck/pkg/logger"
	"github.com/craftdeck/craftdeck/pkg/models"
	"github.com/craftdeck/craftdeck/pkg/panel"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// CycleRunner triggers one aggregation cycle.
type CycleRunner interface {
	Run(ctx context.Context) (*aggregator.Result, error)
}

// PowerSender forwards a power signal to the panel.
type PowerSender interface {
	SendPowerSignal(ctx context.Context, uuid, action string) error
}

// APIServer serves the dashboard JSON API.
type APIServer struct {
	router     *mux.Router
	listenAddr string
	runner     CycleRunner
	power      PowerSender
	corsConfig srHttp.CORSConfig
	apiKey     string
	logger     logger.Logger
	httpServer *http.Server
}

// NewAPIServer creates a new API server instance with the given configuration
func NewAPIServer(listenAddr string, log logger.Logger, options ...func(server *APIServer)) *APIServer {
	s := &APIServer{
		router:     mux.NewRouter(),
		listenAddr: listenAddr,
		logger:     log,
	}

	for _, o := range options {
		o(s)
	}

	s.setupRoutes()

	return s
}

// WithCycleRunner wires the aggregation pipeline into the server list route
func WithCycleRunner(r CycleRunner) func(*APIServer) {
	return func(server *APIServer) {
		server.runner = r
	}
}

// WithPowerSender wires the panel power-control client
func WithPowerSender(p PowerSender) func(*APIServer) {
	return func(server *APIServer) {
		server.power = p
	}
}

// WithCORS sets the CORS configuration for the API server
func WithCORS(cors srHttp.CORSConfig) func(*APIServer) {
	return func(server *APIServer) {
		server.corsConfig = cors
	}
}

// WithAPIKey guards the power route behind a static API key
func WithAPIKey(key string) func(*APIServer) {
	return func(server *APIServer) {
		server.apiKey = key
	}
}

func (s *APIServer) setupRoutes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return srHttp.CommonMiddleware(next, s.corsConfig, s.logger)
	})

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodOptions)
	s.router.HandleFunc("/api/servers", s.handleGetServers).Methods(http.MethodGet, http.MethodOptions)

	powerHandler := srHttp.APIKeyMiddleware(s.apiKey, s.logger)(http.HandlerFunc(s.handlePower))
	s.router.Handle("/api/servers/{uuid}/power", powerHandler).Methods(http.MethodPost, http.MethodOptions)
}

// Router exposes the mux for tests.
func (s *APIServer) Router() *mux.Router {
	return s.router
}

// Start implements the lifecycle.Service interface.
func (s *APIServer) Start(_ context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.logger.Info().Str("addr", s.listenAddr).Msg("Starting API server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Stop implements the lifecycle.Service interface.
func (s *APIServer) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *APIServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetServers runs one aggregation cycle and returns the flat and
// grouped server lists. A fatal cycle error yields an empty list plus the
// error message, with the upstream status code passed through when known.
func (s *APIServer) handleGetServers(w http.ResponseWriter, r *http.Request) {
	result, err := s.runner.Run(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Aggregation cycle failed")

		s.writeJSON(w, upstreamStatusCode(err), models.ServersResponse{
			Servers:   []models.Server{},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Error:     err.Error(),
		})

		return
	}

	s.writeJSON(w, http.StatusOK, models.ServersResponse{
		Servers:   result.Servers,
		Grouped:   GroupServers(result.Servers),
		Timestamp: result.Timestamp.Format(time.RFC3339),
	})
}

func (s *APIServer) handlePower(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]

	var req models.PowerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !panel.ValidPowerAction(req.Action) {
		http.Error(w, "invalid action, must be start, stop, restart, or kill", http.StatusBadRequest)
		return
	}

	if err := s.power.SendPowerSignal(r.Context(), uuid, req.Action); err != nil {
		s.logger.Error().Err(err).Str("uuid", uuid).Str("action", req.Action).Msg("Power signal failed")
		http.Error(w, "failed to send power signal", upstreamStatusCode(err))

		return
	}

	s.writeJSON(w, http.StatusOK, models.PowerResponse{Success: true, Action: req.Action})
}

// upstreamStatusCode maps a cycle error to a response status, passing the
// panel's own status through when the error carries one.
func upstreamStatusCode(err error) int {
	var upstream *panel.UpstreamError
	if errors.As(err, &upstream) && upstream.StatusCode >= http.StatusBadRequest {
		return upstream.StatusCode
	}

	return http.StatusInternalServerError
}

func (s *APIServer) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

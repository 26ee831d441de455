// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/poiesic/linkmind/ingestion"
	"github.com/poiesic/linkmind/recommend"
)

// Server exposes the link archive over HTTP.
type Server struct {
	pipeline *ingestion.Pipeline
	engine   *recommend.Engine
	logger   *slog.Logger
	httpSrv  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates an HTTP server over the given pipeline and engine.
func NewServer(pipeline *ingestion.Pipeline, engine *recommend.Engine, opts ...Option) (*Server, error) {
	if pipeline == nil {
		return nil, errors.New("pipeline required")
	}
	if engine == nil {
		return nil, errors.New("recommendation engine required")
	}

	s := &Server{
		pipeline: pipeline,
		engine:   engine,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/links", s.handleSubmit)
	r.Get("/links/{id}", s.handleStatus)
	r.Get("/links/{id}/recommendations", s.handleRecommend)
	r.Get("/recommendations", s.handleInterestRecommend)

	return r
}

// Start begins serving on addr. Blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("HTTP server listening", "addr", addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	s.logger.Info("shutting down HTTP server")
	return s.httpSrv.Shutdown(ctx)
}

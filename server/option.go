// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/medmesh/medmesh/a2a"
	"github.com/medmesh/medmesh/server/task"
)

// Interceptor inspects an inbound HTTP request before dispatch. A non-nil
// return short-circuits the request with that envelope error and no task is
// created. The security extension plugs in here; the runtime itself
// implements no policy.
type Interceptor func(r *http.Request) *a2a.Error

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStore sets the task store backing the lifecycle engine. Defaults to a
// fresh in-memory store.
func WithStore(store task.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithInterceptor appends a pre-dispatch interceptor. Interceptors run in
// registration order; the first non-nil error wins.
func WithInterceptor(interceptors ...Interceptor) Option {
	return func(s *Server) {
		s.interceptors = append(s.interceptors, interceptors...)
	}
}

// WithStageDelay sets an artificial pause between streamed stages so
// clients observe the stream progressing. Defaults to no delay.
func WithStageDelay(d time.Duration) Option {
	return func(s *Server) {
		s.stageDelay = d
	}
}

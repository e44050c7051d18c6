// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package server implements the agent runtime: it binds a capability
// handler to the envelope dispatch and task lifecycle machinery and exposes
// it over HTTP, with discovery at the well-known agent card path and
// JSON-RPC at the A2A endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/medmesh/medmesh/a2a"
	"github.com/medmesh/medmesh/server/task"
)

// Config is the static identity of one agent. The agent card is generated
// on demand from this configuration and never persisted.
type Config struct {
	// Name is the human-readable agent name.
	Name string

	// Description describes what the agent does.
	Description string

	// Host and Port are the bind address.
	Host string
	Port int

	// Version is the agent version advertised on the card.
	Version string

	// URL overrides the RPC URL advertised on the card. Defaults to
	// http://Host:Port/a2a/v1.
	URL string

	// Skills are the declared capabilities of the agent.
	Skills []a2a.AgentSkill

	// Capabilities are the card capability flags. The streaming flag is
	// honored only when the handler implements StageRunner.
	Capabilities map[string]bool

	// DocumentationURL is optional card metadata.
	DocumentationURL string

	// SecuritySchemes and Security describe the authentication the agent's
	// gatekeeper accepts, published on the card when set.
	SecuritySchemes map[string]a2a.SecurityScheme
	Security        []map[string][]string
}

// Server is the agent runtime for one agent process.
type Server struct {
	config  Config
	handler Handler

	store        task.Store
	manager      *task.Manager
	interceptors []Interceptor
	stageDelay   time.Duration
	logger       *slog.Logger

	httpServer *http.Server
}

// New creates an agent runtime binding the handler to the given identity.
func New(config Config, handler Handler, opts ...Option) (*Server, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("agent name cannot be empty")
	}
	if config.Version == "" {
		config.Version = "1.0.0"
	}
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	s := &Server{
		config:  config,
		handler: handler,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = task.NewInMemoryStore()
	}
	s.manager = task.NewManager(s.store, s.logger)
	s.logger = s.logger.With("agent", config.Name)

	if _, err := a2a.MarshalCard(s.Card()); err != nil {
		return nil, err
	}
	return s, nil
}

// Manager returns the task lifecycle engine.
func (s *Server) Manager() *task.Manager {
	return s.manager
}

// Card builds the agent's capability document. It is a pure function of the
// server configuration: repeated calls yield identical cards.
func (s *Server) Card() *a2a.AgentCard {
	url := s.config.URL
	if url == "" {
		url = fmt.Sprintf("http://%s:%d%s", s.config.Host, s.config.Port, a2a.DefaultRPCPath)
	}

	capabilities := map[string]bool{
		"streaming":              false,
		"pushNotifications":      false,
		"stateTransitionHistory": false,
	}
	for k, v := range s.config.Capabilities {
		capabilities[k] = v
	}
	if _, ok := s.handler.(StageRunner); !ok {
		capabilities[a2a.CapabilityStreaming] = false
	}

	return &a2a.AgentCard{
		Name:               s.config.Name,
		Description:        s.config.Description,
		URL:                url,
		Version:            s.config.Version,
		DefaultInputModes:  []string{"application/json", "text/plain"},
		DefaultOutputModes: []string{"application/json", "text/plain"},
		Skills:             s.config.Skills,
		Capabilities:       capabilities,
		DocumentationURL:   s.config.DocumentationURL,
		SecuritySchemes:    s.config.SecuritySchemes,
		Security:           s.config.Security,
	}
}

// HTTPHandler returns the HTTP surface of the agent: discovery at the
// well-known path and JSON-RPC at the A2A endpoint.
func (s *Server) HTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(a2a.AgentCardWellKnownPath, s.handleAgentCard)
	mux.HandleFunc(a2a.DefaultRPCPath, s.handleRPC)
	return mux
}

// Start starts serving in the background. Use Shutdown to stop.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.HTTPHandler(),
	}

	s.logger.InfoContext(ctx, "starting agent", "address", addr, "endpoint", a2a.DefaultRPCPath)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.ErrorContext(ctx, "server error", "error", err)
		}
	}()
	return nil
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops the server and closes the task store.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.store.Close()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// handleAgentCard serves the discovery document. No authentication is
// required: callers need the card to learn which schemes the RPC endpoint
// accepts.
func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := a2a.MarshalCard(s.Card())
	if err != nil {
		s.logger.Error("marshal agent card", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

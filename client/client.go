// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package client implements the outbound side of the A2A protocol: sending
// message/send and message/stream envelopes to remote agents and resolving
// their discovery documents.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"

	"github.com/medmesh/medmesh/a2a"
)

// Client sends A2A envelopes to remote agents. The zero value is not
// usable; construct with New.
type Client struct {
	hc     *http.Client
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client.
func New(opts ...ClientOption) *Client {
	c := &Client{
		hc:     &http.Client{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// response is the wire shape of a response envelope with the result left
// raw for the caller to decode.
type response struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Result  jsontext.Value `json:"result,omitzero"`
	Error   *a2a.Error     `json:"error,omitzero"`
}

// SendMessage sends a message/send envelope to the agent at url and returns
// the task from the response. The context governs the whole round-trip;
// pass a deadline for per-call timeouts.
//
// An error-shaped envelope is returned as a *a2a.Error even when the HTTP
// transport reported success: callers must treat it as a failed call, never
// as a success carrying no data.
func (c *Client) SendMessage(ctx context.Context, url string, msg *a2a.Message) (*a2a.Task, error) {
	resp, err := c.post(ctx, url, a2a.MethodMessageSend, msg, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("agent returned HTTP %d", resp.StatusCode)
	}

	var envelope response
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	if envelope.Error != nil {
		return nil, envelope.Error
	}

	var t a2a.Task
	if err := json.Unmarshal(envelope.Result, &t); err != nil {
		return nil, fmt.Errorf("decode task result: %w", err)
	}
	return &t, nil
}

func (c *Client) post(ctx context.Context, url, method string, msg *a2a.Message, accept string) (*http.Response, error) {
	req := &a2a.Request{
		JSONRPC: a2a.JSONRPCVersion,
		ID:      uuid.NewString(),
		Method:  method,
	}
	params, err := json.Marshal(a2a.MessageSendParams{Message: msg})
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	req.Params = params

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request envelope: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", accept)

	c.logger.DebugContext(ctx, "outbound call", "url", url, "method", method)
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", url, err)
	}
	return resp, nil
}

// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"io"
	"net/http"

	"github.com/go-json-experiment/json"

	"github.com/medmesh/medmesh/a2a"
)

// maxRequestBytes bounds inbound envelope size.
const maxRequestBytes = 4 << 20

// handleRPC is the JSON-RPC dispatch layer. It decodes the envelope, routes
// message/send and message/stream, and rejects everything else. Every
// response, success or error, echoes the request id unchanged. Envelope
// errors never create a task.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	for _, intercept := range s.interceptors {
		if rpcErr := intercept(r); rpcErr != nil {
			s.logger.Warn("request intercepted", "code", rpcErr.Code, "message", rpcErr.Message)
			s.writeResponse(w, a2a.NewErrorResponse(nil, rpcErr))
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		s.writeResponse(w, a2a.NewErrorResponse(nil, a2a.NewError(a2a.ErrorCodeInternalError, "internal error: "+err.Error())))
		return
	}

	req, err := a2a.DecodeRequest(body)
	if err != nil {
		var id any
		if req != nil {
			id = req.ID
		}
		s.writeResponse(w, a2a.NewErrorResponse(id, a2a.NewError(a2a.ErrorCodeInternalError, "internal error: "+err.Error())))
		return
	}

	switch req.Method {
	case a2a.MethodMessageSend:
		s.handleMessageSend(r.Context(), w, req)
	case a2a.MethodMessageStream:
		runner, ok := s.handler.(StageRunner)
		if !ok || !s.Card().Streaming() {
			s.writeResponse(w, a2a.NewErrorResponse(req.ID, a2a.NewError(a2a.ErrorCodeMethodNotFound, "method not found")))
			return
		}
		s.handleMessageStream(r.Context(), w, req, runner)
	default:
		s.writeResponse(w, a2a.NewErrorResponse(req.ID, a2a.NewError(a2a.ErrorCodeMethodNotFound, "method not found")))
	}
}

// handleMessageSend runs the synchronous path: create the task, invoke the
// handler, and terminate the task as completed or failed. Handler failures
// still produce a JSON-RPC success envelope carrying the failed task; only
// envelope-level problems produce an error envelope.
func (s *Server) handleMessageSend(ctx context.Context, w http.ResponseWriter, req *a2a.Request) {
	params, err := a2a.DecodeMessageSendParams(req.Params)
	if err != nil {
		s.writeResponse(w, a2a.NewErrorResponse(req.ID, a2a.NewError(a2a.ErrorCodeInternalError, "internal error: "+err.Error())))
		return
	}

	t, err := s.manager.Create(ctx, params.Message)
	if err != nil {
		s.logger.ErrorContext(ctx, "create task", "error", err)
		s.writeResponse(w, a2a.NewErrorResponse(req.ID, a2a.NewError(a2a.ErrorCodeInternalError, "internal error: "+err.Error())))
		return
	}

	reply, handlerErr := s.handler.Handle(ctx, params.Message, t)
	if handlerErr != nil {
		if err := s.manager.Fail(ctx, t, reply, handlerErr.Error()); err != nil {
			s.logger.ErrorContext(ctx, "fail task", "task_id", t.ID, "error", err)
			s.writeResponse(w, a2a.NewErrorResponse(req.ID, a2a.NewError(a2a.ErrorCodeInternalError, "internal error: "+err.Error())))
			return
		}
	} else {
		if err := s.manager.Complete(ctx, t, reply); err != nil {
			s.logger.ErrorContext(ctx, "complete task", "task_id", t.ID, "error", err)
			s.writeResponse(w, a2a.NewErrorResponse(req.ID, a2a.NewError(a2a.ErrorCodeInternalError, "internal error: "+err.Error())))
			return
		}
	}

	s.writeResponse(w, a2a.NewResponse(req.ID, t))
}

func (s *Server) writeResponse(w http.ResponseWriter, resp *a2a.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("marshal response", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

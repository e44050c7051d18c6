// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/medmesh/medmesh/a2a"
)

// handleMessageStream runs the streaming path over server-sent events: one
// working event on acceptance, one working event per handler stage, then
// exactly one terminal event with final=true. All events share the task and
// context IDs and echo the request id. Stages are emitted strictly in
// order, each flushed before the next starts; the stream is not
// restartable.
func (s *Server) handleMessageStream(ctx context.Context, w http.ResponseWriter, req *a2a.Request, runner StageRunner) {
	params, err := a2a.DecodeMessageSendParams(req.Params)
	if err != nil {
		s.writeResponse(w, a2a.NewErrorResponse(req.ID, a2a.NewError(a2a.ErrorCodeInternalError, "internal error: "+err.Error())))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeResponse(w, a2a.NewErrorResponse(req.ID, a2a.NewError(a2a.ErrorCodeInternalError, "internal error: streaming unsupported by connection")))
		return
	}

	t, err := s.manager.Create(ctx, params.Message)
	if err != nil {
		s.logger.ErrorContext(ctx, "create task", "error", err)
		s.writeResponse(w, a2a.NewErrorResponse(req.ID, a2a.NewError(a2a.ErrorCodeInternalError, "internal error: "+err.Error())))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Acceptance event.
	t.Status = a2a.TaskStatus{State: a2a.TaskStateWorking, Timestamp: time.Now().UTC()}
	if err := s.manager.Store().Save(ctx, t); err != nil {
		s.logger.ErrorContext(ctx, "save working task", "task_id", t.ID, "error", err)
	}
	if err := s.writeEvent(w, flusher, req.ID, workingEvent(t, nil)); err != nil {
		return
	}

	for _, stage := range runner.Stages(params.Message) {
		if err := s.stagePause(ctx); err != nil {
			s.failStream(ctx, w, flusher, req.ID, t, err.Error())
			return
		}
		progress := a2a.NewAgentMessage(t.ID, t.ContextID, a2a.NewTextPart(stage))
		if err := s.writeEvent(w, flusher, req.ID, workingEvent(t, progress)); err != nil {
			return
		}
	}

	reply, handlerErr := runner.Handle(ctx, params.Message, t)
	if handlerErr != nil {
		s.failStream(ctx, w, flusher, req.ID, t, handlerErr.Error())
		return
	}
	if err := s.manager.Complete(ctx, t, reply); err != nil {
		s.failStream(ctx, w, flusher, req.ID, t, err.Error())
		return
	}
	s.writeEvent(w, flusher, req.ID, a2a.NewStatusUpdateEvent(t.ID, t.ContextID, t.Status, true))
}

// stagePause suspends between stages for the configured delay, honoring
// cancellation.
func (s *Server) stagePause(ctx context.Context) error {
	if s.stageDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.stageDelay):
		return nil
	}
}

func (s *Server) failStream(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, id any, t *a2a.Task, reason string) {
	if err := s.manager.Fail(ctx, t, nil, reason); err != nil {
		s.logger.ErrorContext(ctx, "fail streamed task", "task_id", t.ID, "error", err)
	}
	s.writeEvent(w, flusher, id, a2a.NewStatusUpdateEvent(t.ID, t.ContextID, t.Status, true))
}

func workingEvent(t *a2a.Task, progress *a2a.Message) *a2a.StatusUpdateEvent {
	status := a2a.TaskStatus{
		State:     a2a.TaskStateWorking,
		Message:   progress,
		Timestamp: time.Now().UTC(),
	}
	return a2a.NewStatusUpdateEvent(t.ID, t.ContextID, status, false)
}

// writeEvent writes one response envelope as an SSE data frame and flushes
// it before returning, so no two events can be reordered in transit.
func (s *Server) writeEvent(w http.ResponseWriter, flusher http.Flusher, id any, event *a2a.StatusUpdateEvent) error {
	data, err := json.Marshal(a2a.NewResponse(id, event))
	if err != nil {
		s.logger.Error("marshal stream event", "error", err)
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

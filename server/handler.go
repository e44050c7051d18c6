// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"

	"github.com/medmesh/medmesh/a2a"
)

// Handler is the capability handler extension point: given the inbound
// message and the task just created for it, produce a reply message or fail
// with a domain error.
//
// The runtime is agnostic to how a handler interprets message content;
// keyword matching, structured fields, or a richer parser are all handler
// concerns. A handler may itself issue outbound calls to other agents (the
// coordinator is built exactly this way).
//
// Handlers must be safe for concurrent use: multiple inbound requests may
// be in flight against one agent at a time, and handlers must not rely on
// ambient mutable globals beyond what the owning agent instance provides.
//
// On error the task is failed and the returned reply, when non-nil, becomes
// the failure message recorded in the task history; a nil reply makes the
// runtime synthesize one from the error text.
type Handler interface {
	Handle(ctx context.Context, msg *a2a.Message, task *a2a.Task) (*a2a.Message, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg *a2a.Message, task *a2a.Task) (*a2a.Message, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, msg *a2a.Message, task *a2a.Task) (*a2a.Message, error) {
	return f(ctx, msg, task)
}

// StageRunner is implemented by handlers that support the streaming
// extension. Stages returns the ordered, human-readable descriptions of the
// processing stages for the given message; the runtime emits one working
// status update per stage before invoking Handle for the terminal event.
type StageRunner interface {
	Handler

	Stages(msg *a2a.Message) []string
}

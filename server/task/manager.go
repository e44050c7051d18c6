// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/medmesh/medmesh/a2a"
)

// Manager is the task lifecycle engine. It owns the one transition rule of
// the synchronous path, submitted -> completed|failed, decided solely by
// whether the bound handler reported an error. Terminal states are never
// transitioned out of.
//
// Each Task is exclusively owned by the request that created it, so writes
// to one task never interleave; the shared table behind the Store handles
// concurrent insertion and lookup.
type Manager struct {
	store  Store
	logger *slog.Logger
}

// NewManager creates a lifecycle engine on top of the given store.
func NewManager(store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		logger: logger,
	}
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

// Create allocates a new task in the submitted state for the inbound
// message and records it in the store.
func (m *Manager) Create(ctx context.Context, inbound *a2a.Message) (*a2a.Task, error) {
	task, err := a2a.NewTask(inbound)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	m.logger.DebugContext(ctx, "task created", "task_id", task.ID, "context_id", task.ContextID)
	return task, nil
}

// Complete transitions the task to the completed state, appending the
// agent's reply as the final history entry.
func (m *Manager) Complete(ctx context.Context, task *a2a.Task, reply *a2a.Message) error {
	if err := m.checkTransition(task); err != nil {
		return err
	}
	if err := reply.Validate(); err != nil {
		return fmt.Errorf("complete task %s: %w", task.ID, err)
	}

	reply.TaskID = task.ID
	reply.ContextID = task.ContextID
	task.History = append(task.History, reply)
	task.Status = a2a.TaskStatus{
		State:     a2a.TaskStateCompleted,
		Message:   reply,
		Timestamp: time.Now().UTC(),
	}

	if err := m.store.Save(ctx, task); err != nil {
		return fmt.Errorf("complete task %s: %w", task.ID, err)
	}
	m.logger.DebugContext(ctx, "task completed", "task_id", task.ID)
	return nil
}

// Fail transitions the task to the failed state. When reply is nil, an
// agent message carrying the failure reason is synthesized so the failure
// stays visible in conversation history, not just in the envelope. A
// non-nil reply (for example a coordinator reply carrying partial step
// results) is used as-is.
func (m *Manager) Fail(ctx context.Context, task *a2a.Task, reply *a2a.Message, reason string) error {
	if err := m.checkTransition(task); err != nil {
		return err
	}

	if reply == nil {
		reply = a2a.NewAgentMessage(task.ID, task.ContextID, a2a.NewTextPart(reason))
	} else {
		reply.TaskID = task.ID
		reply.ContextID = task.ContextID
	}
	task.History = append(task.History, reply)
	task.Status = a2a.TaskStatus{
		State:     a2a.TaskStateFailed,
		Message:   reply,
		Timestamp: time.Now().UTC(),
	}

	if err := m.store.Save(ctx, task); err != nil {
		return fmt.Errorf("fail task %s: %w", task.ID, err)
	}
	m.logger.DebugContext(ctx, "task failed", "task_id", task.ID, "reason", reason)
	return nil
}

// Cancel transitions a stored task to the canceled state. Cancellation is
// never invoked automatically by the protocol engine; it exists for
// deliberate operator or handler use.
func (m *Manager) Cancel(ctx context.Context, taskID string) (*a2a.Task, error) {
	task, err := m.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := m.checkTransition(task); err != nil {
		return nil, err
	}

	task.Status = a2a.TaskStatus{
		State:     a2a.TaskStateCanceled,
		Timestamp: time.Now().UTC(),
	}
	if err := m.store.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("cancel task %s: %w", taskID, err)
	}
	m.logger.DebugContext(ctx, "task canceled", "task_id", taskID)
	return task, nil
}

func (m *Manager) checkTransition(task *a2a.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if task.Status.State.IsTerminal() {
		return a2a.TerminalStateError{TaskID: task.ID, State: task.Status.State}
	}
	return nil
}

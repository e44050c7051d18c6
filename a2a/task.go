// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskState represents the lifecycle state of a Task.
type TaskState string

// Valid task states.
const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateCanceled      TaskState = "canceled"
	TaskStateFailed        TaskState = "failed"
	TaskStateRejected      TaskState = "rejected"
	TaskStateAuthRequired  TaskState = "auth-required"
	TaskStateUnknown       TaskState = "unknown"
)

// IsTerminal reports whether the state permits no further transitions.
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateCanceled, TaskStateFailed, TaskStateRejected:
		return true
	}
	return false
}

// TaskStatus describes the current state of a task, optionally with the
// message that produced it.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitzero"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// TaskKind is the wire discriminator carried by every task.
const TaskKind = "task"

// Task is the server-side record of one unit of requested work. A Task is
// exclusively owned by the agent that created it; ContextID correlates tasks
// that belong to one logical conversation across round-trips.
//
// Invariant: History is append-only, and once the task reaches a terminal
// state its last history entry is the message reflected in Status.Message
// (when present).
type Task struct {
	Kind      string         `json:"kind"`
	ID        string         `json:"id"`
	ContextID string         `json:"contextId"`
	Status    TaskStatus     `json:"status"`
	History   []*Message     `json:"history,omitzero"`
	Artifacts []any          `json:"artifacts,omitzero"`
	Metadata  map[string]any `json:"metadata,omitzero"`
}

// NewTask creates a Task in the submitted state for the given inbound
// message. A fresh task ID is always allocated; the inbound message's
// context ID is reused when present so multi-task conversations stay
// correlated, otherwise a fresh one is allocated. The inbound message is
// recorded (stamped with the task and context IDs) as the first history
// entry.
func NewTask(inbound *Message) (*Task, error) {
	if err := inbound.Validate(); err != nil {
		return nil, fmt.Errorf("invalid inbound message: %w", err)
	}

	contextID := inbound.ContextID
	if contextID == "" {
		contextID = uuid.NewString()
	}

	recorded := inbound.Clone()
	task := &Task{
		Kind:      TaskKind,
		ID:        uuid.NewString(),
		ContextID: contextID,
		Status: TaskStatus{
			State:     TaskStateSubmitted,
			Timestamp: time.Now().UTC(),
		},
	}
	recorded.TaskID = task.ID
	recorded.ContextID = contextID
	task.History = []*Message{recorded}

	return task, nil
}

// Validate ensures the task is well formed.
func (t *Task) Validate() error {
	if t == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if t.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if t.ContextID == "" {
		return fmt.Errorf("task context ID cannot be empty")
	}
	if t.Status.State == "" {
		return fmt.Errorf("task state cannot be empty")
	}
	return nil
}

// Clone returns a deep copy of the task. Stores hand out clones so callers
// can never mutate the owned record.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	out := *t
	out.Status.Message = t.Status.Message.Clone()
	out.History = make([]*Message, len(t.History))
	for i, m := range t.History {
		out.History[i] = m.Clone()
	}
	if t.Artifacts != nil {
		out.Artifacts = append([]any(nil), t.Artifacts...)
	}
	if t.Metadata != nil {
		out.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

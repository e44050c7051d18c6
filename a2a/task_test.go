// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"testing"
)

func TestNewTask(t *testing.T) {
	inbound := NewUserMessage(NewTextPart("book appointment"))

	task, err := NewTask(inbound)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if task.Kind != TaskKind {
		t.Errorf("Kind = %q, want %q", task.Kind, TaskKind)
	}
	if task.ID == "" {
		t.Error("ID should not be empty")
	}
	if task.ContextID == "" {
		t.Error("ContextID should not be empty")
	}
	if task.Status.State != TaskStateSubmitted {
		t.Errorf("State = %q, want %q", task.Status.State, TaskStateSubmitted)
	}
	if task.Status.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if len(task.History) != 1 {
		t.Fatalf("len(History) = %d, want 1", len(task.History))
	}
	recorded := task.History[0]
	if recorded.MessageID != inbound.MessageID {
		t.Errorf("recorded MessageID = %q, want %q", recorded.MessageID, inbound.MessageID)
	}
	if recorded.TaskID != task.ID {
		t.Errorf("recorded TaskID = %q, want %q", recorded.TaskID, task.ID)
	}
	if recorded.ContextID != task.ContextID {
		t.Errorf("recorded ContextID = %q, want %q", recorded.ContextID, task.ContextID)
	}
}

func TestNewTask_ReusesInboundContextID(t *testing.T) {
	inbound := NewUserMessage(NewTextPart("follow-up"))
	inbound.ContextID = "ctx-conversation-1"

	task, err := NewTask(inbound)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if task.ContextID != "ctx-conversation-1" {
		t.Errorf("ContextID = %q, want %q", task.ContextID, "ctx-conversation-1")
	}
}

func TestNewTask_FreshIDs(t *testing.T) {
	first, err := NewTask(NewUserMessage(NewTextPart("one")))
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewTask(NewUserMessage(NewTextPart("two")))
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == second.ID {
		t.Error("task IDs must never be reused")
	}
}

func TestNewTask_InvalidMessage(t *testing.T) {
	if _, err := NewTask(nil); err == nil {
		t.Error("NewTask(nil) should fail")
	}
	if _, err := NewTask(&Message{}); err == nil {
		t.Error("NewTask with empty message should fail")
	}
}

func TestTaskStateIsTerminal(t *testing.T) {
	terminal := []TaskState{TaskStateCompleted, TaskStateCanceled, TaskStateFailed, TaskStateRejected}
	for _, state := range terminal {
		if !state.IsTerminal() {
			t.Errorf("%q.IsTerminal() = false, want true", state)
		}
	}
	nonTerminal := []TaskState{TaskStateSubmitted, TaskStateWorking, TaskStateInputRequired, TaskStateAuthRequired, TaskStateUnknown}
	for _, state := range nonTerminal {
		if state.IsTerminal() {
			t.Errorf("%q.IsTerminal() = true, want false", state)
		}
	}
}

func TestTaskClone(t *testing.T) {
	task, err := NewTask(NewUserMessage(NewTextPart("original")))
	if err != nil {
		t.Fatal(err)
	}

	clone := task.Clone()
	clone.History[0].Parts[0] = NewTextPart("mutated")
	clone.Status.State = TaskStateFailed

	if task.History[0].Parts[0].Text != "original" {
		t.Error("clone mutation leaked into original history")
	}
	if task.Status.State != TaskStateSubmitted {
		t.Error("clone mutation leaked into original status")
	}
}

// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import "fmt"

// TaskNotFoundError is returned by stores when a task id is unknown.
type TaskNotFoundError struct {
	TaskID string
}

// Error returns the error message.
func (e TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// TerminalStateError is returned when a transition is attempted on a task
// that already reached a terminal state.
type TerminalStateError struct {
	TaskID string
	State  TaskState
}

// Error returns the error message.
func (e TerminalStateError) Error() string {
	return fmt.Sprintf("task %s is already in terminal state %q", e.TaskID, e.State)
}

// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package task owns task persistence and the lifecycle engine that drives
// the submitted -> completed/failed transition used by the synchronous
// message path.
package task

import (
	"context"

	"github.com/medmesh/medmesh/a2a"
)

// Store abstracts task persistence so different backends can sit behind the
// lifecycle engine. The reference deployment is in-memory only; durability
// is a deployment concern, not a protocol concern.
type Store interface {
	// Save persists a task. An existing task with the same ID is replaced.
	Save(ctx context.Context, task *a2a.Task) error

	// Get retrieves a task by ID. Returns a2a.TaskNotFoundError if the task
	// does not exist.
	Get(ctx context.Context, taskID string) (*a2a.Task, error)

	// List retrieves tasks, optionally filtered by context ID. An empty
	// contextID matches all tasks.
	List(ctx context.Context, contextID string) ([]*a2a.Task, error)

	// Count returns the number of tasks, optionally filtered by context ID.
	Count(ctx context.Context, contextID string) (int, error)

	// Delete removes a task. Returns a2a.TaskNotFoundError if the task does
	// not exist.
	Delete(ctx context.Context, taskID string) error

	// Close releases store resources.
	Close() error
}

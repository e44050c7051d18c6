// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/medmesh/medmesh/a2a"
)

// InMemoryStore is an in-memory implementation of Store. Task data is lost
// when the process stops. All operations are safe for concurrent use; the
// table is guarded by a single RWMutex, which is sufficient because it is
// not a contended hot path.
//
// By default tasks are retained for the life of the process. That is an
// unbounded-growth risk under sustained load, so an opt-in TTL sweep can be
// enabled with WithTTL: terminal tasks whose status timestamp is older than
// the TTL are evicted in the background.
type InMemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*a2a.Task

	ttl      time.Duration
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

var _ Store = (*InMemoryStore)(nil)

// StoreOption configures an InMemoryStore.
type StoreOption func(*InMemoryStore)

// WithTTL enables eviction of terminal tasks older than ttl.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *InMemoryStore) {
		s.ttl = ttl
	}
}

// WithSweepInterval sets how often the eviction sweep runs. Only meaningful
// together with WithTTL. Defaults to one minute.
func WithSweepInterval(interval time.Duration) StoreOption {
	return func(s *InMemoryStore) {
		s.interval = interval
	}
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore(opts ...StoreOption) *InMemoryStore {
	s := &InMemoryStore{
		tasks:    make(map[string]*a2a.Task),
		interval: time.Minute,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl > 0 {
		go s.sweepLoop()
	}
	return s
}

// Save persists a task. The stored record is a deep copy, so later caller
// mutations never reach the table.
func (s *InMemoryStore) Save(ctx context.Context, task *a2a.Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if err := task.Validate(); err != nil {
		return fmt.Errorf("save task: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task.Clone()
	return nil
}

// Get retrieves a deep copy of a task by ID.
func (s *InMemoryStore) Get(ctx context.Context, taskID string) (*a2a.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, a2a.TaskNotFoundError{TaskID: taskID}
	}
	return task.Clone(), nil
}

// List retrieves tasks, optionally filtered by context ID.
func (s *InMemoryStore) List(ctx context.Context, contextID string) ([]*a2a.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*a2a.Task
	for _, task := range s.tasks {
		if contextID != "" && task.ContextID != contextID {
			continue
		}
		tasks = append(tasks, task.Clone())
	}
	return tasks, nil
}

// Count returns the number of tasks, optionally filtered by context ID.
func (s *InMemoryStore) Count(ctx context.Context, contextID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if contextID == "" {
		return len(s.tasks), nil
	}
	n := 0
	for _, task := range s.tasks {
		if task.ContextID == contextID {
			n++
		}
	}
	return n, nil
}

// Delete removes a task.
func (s *InMemoryStore) Delete(ctx context.Context, taskID string) error {
	if taskID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[taskID]; !ok {
		return a2a.TaskNotFoundError{TaskID: taskID}
	}
	delete(s.tasks, taskID)
	return nil
}

// Close stops the eviction sweep, if any.
func (s *InMemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	return nil
}

func (s *InMemoryStore) sweepLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

// sweep evicts terminal tasks older than the TTL. Non-terminal tasks are
// never evicted: an in-flight request still owns them.
func (s *InMemoryStore) sweep(now time.Time) {
	cutoff := now.Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, task := range s.tasks {
		if task.Status.State.IsTerminal() && task.Status.Timestamp.Before(cutoff) {
			delete(s.tasks, id)
		}
	}
}

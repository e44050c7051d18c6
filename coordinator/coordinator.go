// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package coordinator implements the orchestrating agent: a capability
// handler that sequences message/send calls across the downstream hospital
// agents and aggregates their results into one reply.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/medmesh/medmesh/a2a"
	"github.com/medmesh/medmesh/client"
)

// DefaultStepTimeout bounds each outbound call when no option overrides it.
const DefaultStepTimeout = 30 * time.Second

// Step is one stage of the pipeline: an outbound message/send call to a
// named downstream agent. Prompt builds the outbound text from the original
// inbound text; no structured parameters are passed between steps, so later
// steps re-derive what they need from the original request.
type Step struct {
	// Description is the human-readable step label reported in replies.
	Description string

	// URL is the downstream agent's RPC endpoint.
	URL string

	// Prompt builds the outbound message text from the original inbound
	// text.
	Prompt func(original string) string
}

// Coordinator runs a fixed, strictly sequential pipeline. Steps execute in
// order because later steps conceptually depend on earlier ones; there is
// no parallelism and no retry. A failed step short-circuits the remainder:
// booking-style actions are not idempotent, so a silent retry could double
// their effect.
type Coordinator struct {
	steps       []Step
	client      *client.Client
	stepTimeout time.Duration
	logger      *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithStepTimeout sets the per-step outbound call timeout.
func WithStepTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.stepTimeout = d
	}
}

// WithLogger sets the coordinator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// New creates a Coordinator running the given pipeline.
func New(cl *client.Client, steps []Step, opts ...Option) (*Coordinator, error) {
	if cl == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("pipeline must have at least one step")
	}

	c := &Coordinator{
		steps:       steps,
		client:      cl,
		stepTimeout: DefaultStepTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BookingSteps is the reference appointment workflow: verify the patient
// record, query the doctor roster, then reserve the appointment slot. Each
// step's outbound text is built from the original request text.
func BookingSteps(registryURL, rosterURL, bookingURL string) []Step {
	return []Step{
		{
			Description: "Checking patient information...",
			URL:         registryURL,
			Prompt: func(original string) string {
				return "lookup patient in: " + original
			},
		},
		{
			Description: "Finding available doctors...",
			URL:         rosterURL,
			Prompt: func(original string) string {
				return "find doctors for: " + original
			},
		},
		{
			Description: "Booking appointment...",
			URL:         bookingURL,
			Prompt: func(original string) string {
				return "book appointment: " + original
			},
		},
	}
}

// Handle runs the pipeline for one inbound message. On success the reply
// aggregates every step's result in step order and the coordinator's task
// completes. On the first failing step the remaining steps are skipped and
// the returned error fails the task; the reply still carries the results
// already obtained, so the caller sees partial progress rather than
// silence.
func (c *Coordinator) Handle(ctx context.Context, msg *a2a.Message, task *a2a.Task) (*a2a.Message, error) {
	original := msg.TextContent()

	completed := make([]string, 0, len(c.steps))
	results := make([]any, 0, len(c.steps))

	for _, step := range c.steps {
		c.logger.InfoContext(ctx, "running step", "step", step.Description, "url", step.URL)

		downstream, err := c.callStep(ctx, step, original)
		if err != nil {
			c.logger.WarnContext(ctx, "step failed", "step", step.Description, "error", err)
			reason := fmt.Sprintf("workflow step %q failed: %v", step.Description, err)
			return c.failureReply(task, reason, completed, results), fmt.Errorf("%s", reason)
		}

		completed = append(completed, step.Description)
		results = append(results, downstream)
	}

	reply := a2a.NewAgentMessage(task.ID, task.ContextID,
		a2a.NewTextPart("Appointment booking workflow completed successfully!"),
		a2a.NewDataPart(map[string]any{
			"workflow_steps": completed,
			"results":        results,
			"status":         "completed",
		}),
	)
	return reply, nil
}

// callStep issues one outbound message/send with its own timeout. An
// error-shaped downstream envelope surfaces as an error from SendMessage
// and is treated exactly like a transport failure.
func (c *Coordinator) callStep(ctx context.Context, step Step, original string) (*a2a.Task, error) {
	stepCtx, cancel := context.WithTimeout(ctx, c.stepTimeout)
	defer cancel()

	out := a2a.NewUserMessage(a2a.NewTextPart(step.Prompt(original)))
	downstream, err := c.client.SendMessage(stepCtx, step.URL, out)
	if err != nil {
		return nil, err
	}
	if downstream.Status.State != a2a.TaskStateCompleted {
		reason := "no details"
		if downstream.Status.Message != nil {
			reason = downstream.Status.Message.TextContent()
		}
		return nil, fmt.Errorf("downstream task %s: %s", downstream.Status.State, reason)
	}
	return downstream, nil
}

// failureReply carries the failure description plus the results of the
// steps that did run.
func (c *Coordinator) failureReply(task *a2a.Task, reason string, completed []string, results []any) *a2a.Message {
	return a2a.NewAgentMessage(task.ID, task.ContextID,
		a2a.NewTextPart("Error in appointment booking workflow: "+reason),
		a2a.NewDataPart(map[string]any{
			"workflow_steps": completed,
			"results":        results,
			"status":         "failed",
		}),
	)
}

// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package analysis implements the streaming medical analysis agent. It is
// the reference user of the streaming extension: one request fans out into
// an ordered sequence of progress events before the terminal event.
package analysis

import (
	"context"

	"github.com/medmesh/medmesh/a2a"
)

// defaultStages are the processing stages reported while an analysis runs.
var defaultStages = []string{
	"Analyzing patient demographics...",
	"Processing medical history...",
	"Evaluating diagnostic patterns...",
	"Generating risk assessment...",
	"Finalizing recommendations...",
}

// Agent is the streaming analysis capability handler.
type Agent struct {
	stages []string
}

// New creates an analysis agent with the reference stages.
func New() *Agent {
	return &Agent{stages: defaultStages}
}

// NewWithStages creates an analysis agent with custom stages.
func NewWithStages(stages []string) *Agent {
	return &Agent{stages: stages}
}

// Skills returns the analysis agent's capability metadata.
func (a *Agent) Skills() []a2a.AgentSkill {
	return []a2a.AgentSkill{
		{
			ID:          "long-running-analysis",
			Name:        "Long-Running Medical Analysis",
			Description: "Perform complex medical data analysis with streaming updates",
			Tags:        []string{"analysis", "streaming", "medical"},
			Examples:    []string{"Analyze patient medical history with real-time updates"},
		},
	}
}

// Stages implements server.StageRunner.
func (a *Agent) Stages(msg *a2a.Message) []string {
	return a.stages
}

// Handle produces the terminal analysis summary after all stages have been
// streamed. It also serves the synchronous message/send path.
func (a *Agent) Handle(ctx context.Context, msg *a2a.Message, task *a2a.Task) (*a2a.Message, error) {
	return a2a.NewAgentMessage(task.ID, task.ContextID,
		a2a.NewTextPart("Medical analysis complete."),
		a2a.NewDataPart(map[string]any{
			"stages_completed": len(a.stages),
			"status":           "complete",
		}),
	), nil
}

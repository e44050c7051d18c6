// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

// Valid message roles.
const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is one turn in a task's conversation. Messages are immutable and
// append-only: once recorded in a task history they are never mutated or
// reordered.
type Message struct {
	Kind      string         `json:"kind"`
	Role      Role           `json:"role"`
	Parts     []Part         `json:"parts"`
	MessageID string         `json:"messageId"`
	TaskID    string         `json:"taskId,omitzero"`
	ContextID string         `json:"contextId,omitzero"`
	Metadata  map[string]any `json:"metadata,omitzero"`
}

// MessageKind is the wire discriminator carried by every message.
const MessageKind = "message"

// NewUserMessage creates a user-role message with a fresh message ID.
func NewUserMessage(parts ...Part) *Message {
	return &Message{
		Kind:      MessageKind,
		Role:      RoleUser,
		Parts:     parts,
		MessageID: uuid.NewString(),
	}
}

// NewAgentMessage creates an agent-role reply bound to the given task and
// context.
func NewAgentMessage(taskID, contextID string, parts ...Part) *Message {
	return &Message{
		Kind:      MessageKind,
		Role:      RoleAgent,
		Parts:     parts,
		MessageID: uuid.NewString(),
		TaskID:    taskID,
		ContextID: contextID,
	}
}

// TextContent returns the concatenated text of all text parts, separated by
// newlines. Data parts are skipped.
func (m *Message) TextContent() string {
	var texts []string
	for _, p := range m.Parts {
		if p.Kind == PartKindText {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// DataContent returns the payload of the first data part, or nil if the
// message has none.
func (m *Message) DataContent() map[string]any {
	for _, p := range m.Parts {
		if p.Kind == PartKindData {
			return p.Data
		}
	}
	return nil
}

// Validate ensures the message is well formed.
func (m *Message) Validate() error {
	if m == nil {
		return fmt.Errorf("message cannot be nil")
	}
	if m.Role != RoleUser && m.Role != RoleAgent {
		return fmt.Errorf("invalid message role: %q", m.Role)
	}
	if m.MessageID == "" {
		return fmt.Errorf("message ID cannot be empty")
	}
	if len(m.Parts) == 0 {
		return fmt.Errorf("message must have at least one part")
	}
	return nil
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	out := *m
	out.Parts = make([]Part, len(m.Parts))
	for i, p := range m.Parts {
		out.Parts[i] = p.clone()
	}
	if m.Metadata != nil {
		out.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"

	"github.com/go-json-experiment/json"
)

// AgentSkill describes one declared, named function an agent claims to
// perform. Skill metadata is static for the process lifetime.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Examples    []string `json:"examples,omitzero"`
	InputModes  []string `json:"inputModes,omitzero"`
	OutputModes []string `json:"outputModes,omitzero"`
}

// Validate ensures the skill is well formed.
func (s AgentSkill) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("agent skill ID cannot be empty")
	}
	if s.Name == "" {
		return fmt.Errorf("agent skill name cannot be empty")
	}
	return nil
}

// SecurityScheme describes one accepted authentication mechanism, published
// on the card when the agent's gatekeeper is enabled.
type SecurityScheme struct {
	Type         string `json:"type"`
	Description  string `json:"description,omitzero"`
	In           string `json:"in,omitzero"`
	Name         string `json:"name,omitzero"`
	Scheme       string `json:"scheme,omitzero"`
	BearerFormat string `json:"bearerFormat,omitzero"`
}

// AgentCard is the complete self-description of one agent, served at the
// well-known discovery path. Cards are generated on demand from static
// configuration and never persisted.
type AgentCard struct {
	Name               string                    `json:"name"`
	Description        string                    `json:"description"`
	URL                string                    `json:"url"`
	Version            string                    `json:"version"`
	DefaultInputModes  []string                  `json:"defaultInputModes"`
	DefaultOutputModes []string                  `json:"defaultOutputModes"`
	Skills             []AgentSkill              `json:"skills"`
	Capabilities       map[string]bool           `json:"capabilities,omitzero"`
	DocumentationURL   string                    `json:"documentationUrl,omitzero"`
	SecuritySchemes    map[string]SecurityScheme `json:"securitySchemes,omitzero"`
	Security           []map[string][]string     `json:"security,omitzero"`
}

// Validate ensures the card is well formed.
func (c *AgentCard) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("agent card name cannot be empty")
	}
	if c.URL == "" {
		return fmt.Errorf("agent card URL cannot be empty")
	}
	if c.Version == "" {
		return fmt.Errorf("agent card version cannot be empty")
	}
	for _, skill := range c.Skills {
		if err := skill.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Streaming reports whether the card advertises the streaming capability.
func (c *AgentCard) Streaming() bool {
	return c.Capabilities[CapabilityStreaming]
}

// MarshalCard encodes the card deterministically: repeated calls with an
// unchanged card yield byte-identical documents, so callers can cache the
// discovery response by content.
func MarshalCard(card *AgentCard) ([]byte, error) {
	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("marshal agent card: %w", err)
	}
	return json.Marshal(card, json.Deterministic(true))
}

// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package a2a provides the wire types for the Agent-to-Agent (A2A) protocol
// used between MedMesh services: message parts, tasks and their lifecycle
// states, agent cards, and the JSON-RPC 2.0 envelope.
//
// The package is transport-agnostic and side-effect free. The server and
// client packages build the HTTP surface on top of these types.
package a2a

// JSONRPCVersion is the protocol version carried by every envelope.
const JSONRPCVersion = "2.0"

// A2A protocol path constants.
const (
	// AgentCardWellKnownPath is the standard path for retrieving an agent's
	// public AgentCard.
	//
	// Example usage: http://registry.hospital.local/.well-known/agent.json
	AgentCardWellKnownPath = "/.well-known/agent.json"

	// DefaultRPCPath is the path for the A2A JSON-RPC endpoint. POST requests
	// carrying a request envelope are handled here.
	DefaultRPCPath = "/a2a/v1"
)

// CapabilityStreaming is the AgentCard capability flag that advertises
// support for the message/stream method.
const CapabilityStreaming = "streaming"

// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// A2A RPC method names.
const (
	// MethodMessageSend is the synchronous message exchange method.
	MethodMessageSend = "message/send"
	// MethodMessageStream is the streaming variant, available only when the
	// agent card advertises the streaming capability.
	MethodMessageStream = "message/stream"
)

// JSON-RPC 2.0 error codes used on the wire.
const (
	ErrorCodeJSONParse      = -32700
	ErrorCodeInvalidRequest = -32600
	ErrorCodeMethodNotFound = -32601
	ErrorCodeInvalidParams  = -32602
	ErrorCodeInternalError  = -32603

	// ErrorCodeAuthRequired is the agent-defined code returned when the
	// optional authentication gatekeeper rejects a request before dispatch.
	ErrorCodeAuthRequired = -32001
)

// Request is a JSON-RPC 2.0 request envelope. ID is the request correlation
// token and may be a string or a number; it is echoed back unchanged on
// every response.
type Request struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Method  string         `json:"method"`
	Params  jsontext.Value `json:"params,omitzero"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitzero"`
}

// Error implements the error interface so envelope errors can travel
// through ordinary error returns.
func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewError creates an Error with the given code and message.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Response is a JSON-RPC 2.0 response envelope. Result and Error are
// mutually exclusive: exactly one is set.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitzero"`
	Error   *Error `json:"error,omitzero"`
}

// NewResponse creates a success response echoing the request id.
func NewResponse(id, result any) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse creates an error response echoing the request id.
func NewErrorResponse(id any, rpcErr *Error) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   rpcErr,
	}
}

// MessageSendParams is the params payload of message/send and
// message/stream requests.
type MessageSendParams struct {
	Message  *Message       `json:"message"`
	Metadata map[string]any `json:"metadata,omitzero"`
}

// StatusUpdateEventKind is the wire discriminator for streamed status
// updates.
const StatusUpdateEventKind = "status-update"

// StatusUpdateEvent is one event in a message/stream response sequence. All
// events of one stream share the same TaskID and ContextID; exactly one
// event per stream carries Final=true and it is always the last.
type StatusUpdateEvent struct {
	Kind      string     `json:"kind"`
	TaskID    string     `json:"taskId"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	Final     bool       `json:"final"`
}

// NewStatusUpdateEvent creates a status-update event for the given task.
func NewStatusUpdateEvent(taskID, contextID string, status TaskStatus, final bool) *StatusUpdateEvent {
	return &StatusUpdateEvent{
		Kind:      StatusUpdateEventKind,
		TaskID:    taskID,
		ContextID: contextID,
		Status:    status,
		Final:     final,
	}
}

// DecodeRequest decodes an inbound payload into a request envelope.
// Malformed JSON or a missing method or id is a client error the caller
// must surface as an internal-error envelope; the partially decoded request
// is still returned so a known id can be echoed.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse request envelope: %w", err)
	}
	if req.Method == "" {
		return &req, fmt.Errorf("request envelope missing method")
	}
	if req.ID == nil {
		return &req, fmt.Errorf("request envelope missing id")
	}
	return &req, nil
}

// DecodeMessageSendParams decodes the params of a message/send or
// message/stream request.
func DecodeMessageSendParams(raw jsontext.Value) (*MessageSendParams, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing params")
	}
	var params MessageSendParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("parse message params: %w", err)
	}
	if err := params.Message.Validate(); err != nil {
		return nil, err
	}
	return &params, nil
}

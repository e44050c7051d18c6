// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/medmesh/medmesh/a2a"
	"github.com/medmesh/medmesh/server/task"
)

func echoHandler() Handler {
	return HandlerFunc(func(ctx context.Context, msg *a2a.Message, t *a2a.Task) (*a2a.Message, error) {
		return a2a.NewAgentMessage("", "", a2a.NewTextPart("echo: "+msg.TextContent())), nil
	})
}

func failingHandler(reason string) Handler {
	return HandlerFunc(func(ctx context.Context, msg *a2a.Message, t *a2a.Task) (*a2a.Message, error) {
		return nil, fmt.Errorf("%s", reason)
	})
}

func newTestServer(t *testing.T, handler Handler, opts ...Option) *Server {
	t.Helper()
	s, err := New(Config{
		Name:        "Test Agent",
		Description: "test fixture",
		Host:        "localhost",
		Port:        8099,
	}, handler, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.store.Close() })
	return s
}

// rpcResponse mirrors the wire envelope with the result left raw.
type rpcResponse struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Result  jsontext.Value `json:"result,omitzero"`
	Error   *a2a.Error     `json:"error,omitzero"`
}

func postRPC(t *testing.T, h http.Handler, body string) *rpcResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, a2a.DefaultRPCPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST %s status = %d, want 200", a2a.DefaultRPCPath, rec.Code)
	}
	var resp rpcResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
	return &resp
}

func sendBody(id, text string) string {
	return fmt.Sprintf(`{"jsonrpc":"2.0","id":%s,"method":"message/send","params":{"message":{"kind":"message","role":"user","parts":[{"kind":"text","text":%q}],"messageId":"m1"}}}`, id, text)
}

func decodeTask(t *testing.T, raw jsontext.Value) *a2a.Task {
	t.Helper()
	var tk a2a.Task
	if err := json.Unmarshal(raw, &tk); err != nil {
		t.Fatalf("decode task result: %v", err)
	}
	return &tk
}

func TestHandleMessageSend(t *testing.T) {
	s := newTestServer(t, echoHandler())
	resp := postRPC(t, s.HTTPHandler(), sendBody(`"req-1"`, "hello"))

	if resp.Error != nil {
		t.Fatalf("unexpected envelope error: %v", resp.Error)
	}
	if resp.ID != "req-1" {
		t.Errorf("echoed id = %v, want req-1", resp.ID)
	}
	tk := decodeTask(t, resp.Result)
	if tk.Status.State != a2a.TaskStateCompleted {
		t.Errorf("task state = %q, want %q", tk.Status.State, a2a.TaskStateCompleted)
	}
	if len(tk.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(tk.History))
	}
	if got := tk.History[1].TextContent(); got != "echo: hello" {
		t.Errorf("reply text = %q, want %q", got, "echo: hello")
	}
}

func TestHandleMessageSendNumericID(t *testing.T) {
	s := newTestServer(t, echoHandler())
	resp := postRPC(t, s.HTTPHandler(), sendBody(`7`, "hello"))

	if resp.Error != nil {
		t.Fatalf("unexpected envelope error: %v", resp.Error)
	}
	if resp.ID != float64(7) {
		t.Errorf("echoed id = %v (%T), want 7", resp.ID, resp.ID)
	}
}

func TestHandlerErrorProducesFailedTask(t *testing.T) {
	s := newTestServer(t, failingHandler("ward is full"))
	resp := postRPC(t, s.HTTPHandler(), sendBody(`"req-2"`, "admit patient"))

	// Domain failures travel inside a success envelope as a failed task.
	if resp.Error != nil {
		t.Fatalf("unexpected envelope error: %v", resp.Error)
	}
	tk := decodeTask(t, resp.Result)
	if tk.Status.State != a2a.TaskStateFailed {
		t.Errorf("task state = %q, want %q", tk.Status.State, a2a.TaskStateFailed)
	}
	if got := tk.History[len(tk.History)-1].TextContent(); got != "ward is full" {
		t.Errorf("failure text = %q, want the handler error", got)
	}
}

func TestUnknownMethod(t *testing.T) {
	store := task.NewInMemoryStore()
	s := newTestServer(t, echoHandler(), WithStore(store))

	body := `{"jsonrpc":"2.0","id":"req-3","method":"message/delete","params":{}}`
	resp := postRPC(t, s.HTTPHandler(), body)

	if resp.Error == nil || resp.Error.Code != a2a.ErrorCodeMethodNotFound {
		t.Fatalf("error = %v, want code %d", resp.Error, a2a.ErrorCodeMethodNotFound)
	}
	if resp.ID != "req-3" {
		t.Errorf("echoed id = %v, want req-3", resp.ID)
	}
	if n, _ := store.Count(context.Background(), ""); n != 0 {
		t.Errorf("task count = %d, rejected envelopes must not create tasks", n)
	}
}

func TestStreamMethodWithoutStageRunner(t *testing.T) {
	s := newTestServer(t, echoHandler())
	body := `{"jsonrpc":"2.0","id":"req-4","method":"message/stream","params":{"message":{"kind":"message","role":"user","parts":[{"kind":"text","text":"hi"}],"messageId":"m1"}}}`
	resp := postRPC(t, s.HTTPHandler(), body)

	if resp.Error == nil || resp.Error.Code != a2a.ErrorCodeMethodNotFound {
		t.Errorf("error = %v, want code %d", resp.Error, a2a.ErrorCodeMethodNotFound)
	}
}

func TestMalformedEnvelope(t *testing.T) {
	store := task.NewInMemoryStore()
	s := newTestServer(t, echoHandler(), WithStore(store))

	tests := []struct {
		name   string
		body   string
		wantID any
	}{
		{name: "invalid JSON", body: `{"jsonrpc":`, wantID: nil},
		{name: "missing method", body: `{"jsonrpc":"2.0","id":"req-5"}`, wantID: "req-5"},
		{name: "missing id", body: `{"jsonrpc":"2.0","method":"message/send"}`, wantID: nil},
		{name: "bad params", body: `{"jsonrpc":"2.0","id":"req-6","method":"message/send","params":{"message":null}}`, wantID: "req-6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postRPC(t, s.HTTPHandler(), tt.body)
			if resp.Error == nil || resp.Error.Code != a2a.ErrorCodeInternalError {
				t.Fatalf("error = %v, want code %d", resp.Error, a2a.ErrorCodeInternalError)
			}
			if resp.ID != tt.wantID {
				t.Errorf("echoed id = %v, want %v", resp.ID, tt.wantID)
			}
		})
	}
	if n, _ := store.Count(context.Background(), ""); n != 0 {
		t.Errorf("task count = %d, malformed envelopes must not create tasks", n)
	}
}

func TestInterceptorRejectsBeforeDispatch(t *testing.T) {
	store := task.NewInMemoryStore()
	deny := func(r *http.Request) *a2a.Error {
		if r.Header.Get("X-API-Key") == "" {
			rpcErr := a2a.NewError(a2a.ErrorCodeAuthRequired, "Authentication required")
			rpcErr.Data = map[string]any{"required_auth": []string{"apiKey"}}
			return rpcErr
		}
		return nil
	}
	s := newTestServer(t, echoHandler(), WithStore(store), WithInterceptor(deny))

	resp := postRPC(t, s.HTTPHandler(), sendBody(`"req-7"`, "hello"))
	if resp.Error == nil || resp.Error.Code != a2a.ErrorCodeAuthRequired {
		t.Fatalf("error = %v, want code %d", resp.Error, a2a.ErrorCodeAuthRequired)
	}
	if n, _ := store.Count(context.Background(), ""); n != 0 {
		t.Errorf("task count = %d, intercepted requests must not create tasks", n)
	}

	req := httptest.NewRequest(http.MethodPost, a2a.DefaultRPCPath, strings.NewReader(sendBody(`"req-8"`, "hello")))
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	s.HTTPHandler().ServeHTTP(rec, req)
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"result"`)) {
		t.Errorf("authenticated request should dispatch normally, got %s", rec.Body.String())
	}
}

func TestRPCRequiresPost(t *testing.T) {
	s := newTestServer(t, echoHandler())
	req := httptest.NewRequest(http.MethodGet, a2a.DefaultRPCPath, nil)
	rec := httptest.NewRecorder()
	s.HTTPHandler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestAgentCardEndpoint(t *testing.T) {
	s := newTestServer(t, echoHandler())
	h := s.HTTPHandler()

	req := httptest.NewRequest(http.MethodGet, a2a.AgentCardWellKnownPath, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET card status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}

	var card a2a.AgentCard
	if err := json.Unmarshal(rec.Body.Bytes(), &card); err != nil {
		t.Fatalf("decode card: %v", err)
	}
	if card.Name != "Test Agent" {
		t.Errorf("card name = %q, want Test Agent", card.Name)
	}
	if card.URL != "http://localhost:8099/a2a/v1" {
		t.Errorf("card url = %q", card.URL)
	}
	if card.Streaming() {
		t.Error("card must not advertise streaming without a stage runner")
	}

	// Repeated requests serve byte-identical documents.
	again := httptest.NewRecorder()
	h.ServeHTTP(again, httptest.NewRequest(http.MethodGet, a2a.AgentCardWellKnownPath, nil))
	if !bytes.Equal(rec.Body.Bytes(), again.Body.Bytes()) {
		t.Error("card responses are not byte-identical")
	}

	post := httptest.NewRecorder()
	h.ServeHTTP(post, httptest.NewRequest(http.MethodPost, a2a.AgentCardWellKnownPath, nil))
	if post.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST card status = %d, want %d", post.Code, http.StatusMethodNotAllowed)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{}, echoHandler()); err == nil {
		t.Error("New() without a name should fail")
	}
	if _, err := New(Config{Name: "x"}, nil); err == nil {
		t.Error("New() without a handler should fail")
	}
}

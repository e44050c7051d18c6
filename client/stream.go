// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bufio"
	"bytes"
	"context"
	"fmt"

	"github.com/go-json-experiment/json"

	"github.com/medmesh/medmesh/a2a"
)

var sseDataPrefix = []byte("data: ")

// SendMessageStream sends a message/stream envelope and delivers the
// status-update events on the returned channel in arrival order. The
// channel is closed after the final event, on stream end, or when the
// context is canceled. A disconnected stream cannot be resumed; issue a new
// call instead.
func (c *Client) SendMessageStream(ctx context.Context, url string, msg *a2a.Message) (<-chan *a2a.StatusUpdateEvent, error) {
	resp, err := c.post(ctx, url, a2a.MethodMessageStream, msg, "text/event-stream")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("agent returned HTTP %d", resp.StatusCode)
	}

	events := make(chan *a2a.StatusUpdateEvent)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxEventBytes)
		for scanner.Scan() {
			line := scanner.Bytes()
			if !bytes.HasPrefix(line, sseDataPrefix) {
				continue
			}

			var envelope response
			if err := json.Unmarshal(bytes.TrimPrefix(line, sseDataPrefix), &envelope); err != nil {
				c.logger.Warn("skip malformed stream event", "error", err)
				continue
			}
			if envelope.Error != nil {
				c.logger.Warn("stream error envelope", "code", envelope.Error.Code, "message", envelope.Error.Message)
				return
			}

			var event a2a.StatusUpdateEvent
			if err := json.Unmarshal(envelope.Result, &event); err != nil {
				c.logger.Warn("skip undecodable stream event", "error", err)
				continue
			}

			select {
			case events <- &event:
			case <-ctx.Done():
				return
			}
			if event.Final {
				return
			}
		}
	}()

	return events, nil
}

// maxEventBytes bounds one SSE frame.
const maxEventBytes = 1 << 20

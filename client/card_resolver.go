// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/medmesh/medmesh/a2a"
)

// CardResolver fetches agent cards from the well-known discovery path.
type CardResolver struct {
	hc *http.Client
}

// NewCardResolver creates a CardResolver.
func NewCardResolver(hc *http.Client) *CardResolver {
	if hc == nil {
		hc = &http.Client{}
	}
	return &CardResolver{hc: hc}
}

// Resolve fetches the agent card published under baseURL.
func (r *CardResolver) Resolve(ctx context.Context, baseURL string) (*a2a.AgentCard, error) {
	targetURL := strings.TrimRight(baseURL, "/") + a2a.AgentCardWellKnownPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := r.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch agent card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch agent card from %s: HTTP %d", targetURL, resp.StatusCode)
	}

	var card a2a.AgentCard
	dec := jsontext.NewDecoder(resp.Body)
	if err := json.UnmarshalDecode(dec, &card); err != nil {
		return nil, fmt.Errorf("decode agent card: %w", err)
	}
	return &card, nil
}

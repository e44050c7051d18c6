// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

// Package auth implements the optional security extension: gatekeepers that
// inspect transport-level credentials before dispatch and short-circuit
// with the agent-defined authentication-required envelope error. The
// protocol engine only exposes the interception point; all policy lives
// here.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/medmesh/medmesh/a2a"
)

// APIKeyHeader is the header carrying API-key credentials.
const APIKeyHeader = "X-API-Key"

// Authenticator validates transport-level credentials on an inbound
// request.
type Authenticator interface {
	// Authenticate returns nil when the request carries acceptable
	// credentials for this scheme.
	Authenticate(r *http.Request) error

	// SchemeName is the key under which the scheme appears in the agent
	// card's securitySchemes.
	SchemeName() string

	// Scheme describes the mechanism for the agent card.
	Scheme() a2a.SecurityScheme
}

// APIKeyAuthenticator accepts requests carrying one of a static set of API
// keys in the X-API-Key header.
type APIKeyAuthenticator struct {
	keys map[string]struct{}
}

var _ Authenticator = (*APIKeyAuthenticator)(nil)

// NewAPIKeyAuthenticator creates an authenticator accepting the given keys.
func NewAPIKeyAuthenticator(keys ...string) *APIKeyAuthenticator {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return &APIKeyAuthenticator{keys: set}
}

// Authenticate implements Authenticator.
func (a *APIKeyAuthenticator) Authenticate(r *http.Request) error {
	key := r.Header.Get(APIKeyHeader)
	if key == "" {
		return fmt.Errorf("missing %s header", APIKeyHeader)
	}
	if _, ok := a.keys[key]; !ok {
		return fmt.Errorf("unknown API key")
	}
	return nil
}

// SchemeName implements Authenticator.
func (a *APIKeyAuthenticator) SchemeName() string { return "apiKey" }

// Scheme implements Authenticator.
func (a *APIKeyAuthenticator) Scheme() a2a.SecurityScheme {
	return a2a.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: APIKeyHeader,
	}
}

// TokenAuthenticator accepts requests carrying a bearer JWT signed with a
// shared HS256 secret and issued by the expected issuer.
type TokenAuthenticator struct {
	secret []byte
	issuer string
}

var _ Authenticator = (*TokenAuthenticator)(nil)

// NewTokenAuthenticator creates a JWT bearer authenticator.
func NewTokenAuthenticator(secret []byte, issuer string) *TokenAuthenticator {
	return &TokenAuthenticator{
		secret: secret,
		issuer: issuer,
	}
}

// Authenticate implements Authenticator.
func (a *TokenAuthenticator) Authenticate(r *http.Request) error {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return fmt.Errorf("missing bearer token")
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256(), a.secret),
		jwt.WithValidate(true),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if _, err := jwt.Parse([]byte(raw), opts...); err != nil {
		return fmt.Errorf("invalid bearer token: %w", err)
	}
	return nil
}

// SchemeName implements Authenticator.
func (a *TokenAuthenticator) SchemeName() string { return "bearer" }

// Scheme implements Authenticator.
func (a *TokenAuthenticator) Scheme() a2a.SecurityScheme {
	return a2a.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
}

// Interceptor builds a pre-dispatch gatekeeper from the given
// authenticators. A request passes when any one authenticator accepts it;
// otherwise the request is rejected with the authentication-required
// envelope error and never reaches dispatch, so no task is created. With no
// authenticators the gatekeeper admits everything.
func Interceptor(authenticators ...Authenticator) func(r *http.Request) *a2a.Error {
	return func(r *http.Request) *a2a.Error {
		if len(authenticators) == 0 {
			return nil
		}
		for _, a := range authenticators {
			if err := a.Authenticate(r); err == nil {
				return nil
			}
		}

		schemes := make([]string, 0, len(authenticators))
		for _, a := range authenticators {
			schemes = append(schemes, a.SchemeName())
		}
		return &a2a.Error{
			Code:    a2a.ErrorCodeAuthRequired,
			Message: "Authentication required",
			Data:    map[string]any{"required_auth": schemes},
		}
	}
}

// SecuritySchemes builds the card securitySchemes block for the given
// authenticators.
func SecuritySchemes(authenticators ...Authenticator) map[string]a2a.SecurityScheme {
	if len(authenticators) == 0 {
		return nil
	}
	schemes := make(map[string]a2a.SecurityScheme, len(authenticators))
	for _, a := range authenticators {
		schemes[a.SchemeName()] = a.Scheme()
	}
	return schemes
}

// SecurityRequirements builds the card security block for the given
// authenticators: each scheme is an alternative.
func SecurityRequirements(authenticators ...Authenticator) []map[string][]string {
	if len(authenticators) == 0 {
		return nil
	}
	reqs := make([]map[string][]string, 0, len(authenticators))
	for _, a := range authenticators {
		reqs = append(reqs, map[string][]string{a.SchemeName(): {}})
	}
	return reqs
}

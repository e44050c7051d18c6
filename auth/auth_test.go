// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medmesh/medmesh/a2a"
)

func newRequest(headers map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/a2a/v1", nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

func TestAPIKeyAuthenticator(t *testing.T) {
	a := NewAPIKeyAuthenticator("key-one", "key-two")

	assert.NoError(t, a.Authenticate(newRequest(map[string]string{APIKeyHeader: "key-one"})))
	assert.NoError(t, a.Authenticate(newRequest(map[string]string{APIKeyHeader: "key-two"})))
	assert.Error(t, a.Authenticate(newRequest(map[string]string{APIKeyHeader: "wrong"})))
	assert.Error(t, a.Authenticate(newRequest(nil)))
}

func signToken(t *testing.T, secret []byte, issuer string) string {
	t.Helper()
	token, err := jwt.NewBuilder().
		Issuer(issuer).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour)).
		Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), secret))
	require.NoError(t, err)
	return string(signed)
}

func TestTokenAuthenticator(t *testing.T) {
	secret := []byte("hospital-shared-secret")
	a := NewTokenAuthenticator(secret, "medmesh")

	valid := signToken(t, secret, "medmesh")
	assert.NoError(t, a.Authenticate(newRequest(map[string]string{"Authorization": "Bearer " + valid})))

	t.Run("missing header", func(t *testing.T) {
		assert.Error(t, a.Authenticate(newRequest(nil)))
	})
	t.Run("not bearer", func(t *testing.T) {
		assert.Error(t, a.Authenticate(newRequest(map[string]string{"Authorization": "Basic abc"})))
	})
	t.Run("wrong secret", func(t *testing.T) {
		forged := signToken(t, []byte("other-secret"), "medmesh")
		assert.Error(t, a.Authenticate(newRequest(map[string]string{"Authorization": "Bearer " + forged})))
	})
	t.Run("wrong issuer", func(t *testing.T) {
		other := signToken(t, secret, "someone-else")
		assert.Error(t, a.Authenticate(newRequest(map[string]string{"Authorization": "Bearer " + other})))
	})
	t.Run("expired", func(t *testing.T) {
		token, err := jwt.NewBuilder().
			Issuer("medmesh").
			Expiration(time.Now().Add(-time.Hour)).
			Build()
		require.NoError(t, err)
		signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), secret))
		require.NoError(t, err)
		assert.Error(t, a.Authenticate(newRequest(map[string]string{"Authorization": "Bearer " + string(signed)})))
	})
}

func TestInterceptor(t *testing.T) {
	apiKey := NewAPIKeyAuthenticator("key-one")
	secret := []byte("hospital-shared-secret")
	bearer := NewTokenAuthenticator(secret, "medmesh")

	intercept := Interceptor(apiKey, bearer)

	t.Run("no credentials", func(t *testing.T) {
		rpcErr := intercept(newRequest(nil))
		require.NotNil(t, rpcErr)
		assert.Equal(t, a2a.ErrorCodeAuthRequired, rpcErr.Code)
		assert.Equal(t, "Authentication required", rpcErr.Message)

		data, ok := rpcErr.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, []string{"apiKey", "bearer"}, data["required_auth"])
	})

	t.Run("api key passes", func(t *testing.T) {
		assert.Nil(t, intercept(newRequest(map[string]string{APIKeyHeader: "key-one"})))
	})

	t.Run("bearer passes", func(t *testing.T) {
		token := signToken(t, secret, "medmesh")
		assert.Nil(t, intercept(newRequest(map[string]string{"Authorization": "Bearer " + token})))
	})

	t.Run("any one scheme suffices", func(t *testing.T) {
		headers := map[string]string{
			APIKeyHeader:    "wrong",
			"Authorization": "Bearer " + signToken(t, secret, "medmesh"),
		}
		assert.Nil(t, intercept(newRequest(headers)))
	})

	t.Run("no authenticators admits everything", func(t *testing.T) {
		assert.Nil(t, Interceptor()(newRequest(nil)))
	})
}

func TestCardBlocks(t *testing.T) {
	apiKey := NewAPIKeyAuthenticator("key-one")
	bearer := NewTokenAuthenticator([]byte("secret"), "medmesh")

	schemes := SecuritySchemes(apiKey, bearer)
	require.Len(t, schemes, 2)
	assert.Equal(t, "apiKey", schemes["apiKey"].Type)
	assert.Equal(t, APIKeyHeader, schemes["apiKey"].Name)
	assert.Equal(t, "bearer", schemes["bearer"].Scheme)
	assert.Equal(t, "JWT", schemes["bearer"].BearerFormat)

	reqs := SecurityRequirements(apiKey, bearer)
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs, map[string][]string{"apiKey": {}})
	assert.Contains(t, reqs, map[string][]string{"bearer": {}})

	assert.Nil(t, SecuritySchemes())
	assert.Nil(t, SecurityRequirements())
}

package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "reclamacidade/pkg/domain-errors"
)

func newTestService() *JWTService {
	return NewJWTService("test-signing-key", "reclamacidade", "reclamacidade-api")
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateAccessToken("alice@example.com", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateAccessToken("alice@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateTokenWrongKey(t *testing.T) {
	token, err := newTestService().GenerateAccessToken("alice@example.com", time.Hour)
	require.NoError(t, err)

	other := NewJWTService("different-key", "reclamacidade", "reclamacidade-api")
	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateGarbageToken(t *testing.T) {
	_, err := newTestService().ValidateToken("not-a-jwt")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestMiddlewareAdapter(t *testing.T) {
	svc := newTestService()
	adapter := NewMiddlewareAdapter(svc)

	token, err := svc.GenerateAccessToken("bob@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := adapter.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", claims.Identity)
	assert.NotEmpty(t, claims.JTI)
}

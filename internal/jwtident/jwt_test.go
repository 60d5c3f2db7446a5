package jwtident

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "certledger/pkg/domain"
	dErrors "certledger/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "certledger")

	token, err := svc.GenerateToken("0xuniversity", time.Minute)
	require.NoError(t, err)

	identity, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id.Identity("0xuniversity"), identity)
}

func TestValidateToken_Failures(t *testing.T) {
	svc := NewService("test-signing-key", "certledger")

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.GenerateToken("0xuniversity", -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewService("other-key", "certledger")
		token, err := other.GenerateToken("0xuniversity", time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.jwt")
		require.Error(t, err)
	})
}

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifyPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("walkies"), bcrypt.MinCost)
	require.NoError(t, err)

	a := NewAuthenticator(string(hash), "", "secret", 60)
	assert.True(t, a.HasPasswordAuth())
	assert.NoError(t, a.VerifyPassword("walkies"))
	assert.ErrorIs(t, a.VerifyPassword("wrong"), ErrInvalidCredentials)
}

func TestVerifyStaticToken(t *testing.T) {
	a := NewAuthenticator("", "shared-token", "", 0)
	assert.NoError(t, a.VerifyStaticToken("shared-token"))
	assert.ErrorIs(t, a.VerifyStaticToken("nope"), ErrInvalidCredentials)
	assert.ErrorIs(t, a.VerifyStaticToken(""), ErrInvalidCredentials)
}

func TestVerifyStaticTokenUnconfigured(t *testing.T) {
	a := NewAuthenticator("", "", "secret", 0)
	assert.ErrorIs(t, a.VerifyStaticToken(""), ErrInvalidCredentials)
}

func TestUnprotected(t *testing.T) {
	assert.True(t, NewAuthenticator("", "", "", 0).Unprotected())
	assert.False(t, NewAuthenticator("hash", "", "", 0).Unprotected())
	assert.False(t, NewAuthenticator("", "token", "", 0).Unprotected())
	assert.False(t, NewAuthenticator("", "", "secret", 0).Unprotected())
}

func TestGenerateAndValidateToken(t *testing.T) {
	a := NewAuthenticator("", "", "secret", 60)

	token, err := a.GenerateToken()
	require.NoError(t, err)
	assert.NoError(t, a.ValidateToken(token))
	assert.ErrorIs(t, a.ValidateToken(token+"x"), ErrInvalidToken)

	other := NewAuthenticator("", "", "different", 60)
	assert.ErrorIs(t, other.ValidateToken(token), ErrInvalidToken)
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	a := NewAuthenticator("", "", "", 60)
	_, err := a.GenerateToken()
	require.Error(t, err)
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "a@x.com", "Ada", "Lovelace", "customer")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := ParseToken(token)
	assert.NoError(t, err)
	assert.Equal(t, uint(42), claims.CustomerID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "Ada", claims.FirstName)
	assert.Equal(t, "Lovelace", claims.LastName)
	assert.Equal(t, "customer", claims.Role)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	token, err := GenerateToken(42, "a@x.com", "Ada", "Lovelace", "customer")
	assert.NoError(t, err)

	_, err = ParseToken(token + "x")
	assert.Error(t, err)

	_, err = ParseToken("not-a-jwt")
	assert.Error(t, err)
}

func TestBlacklist(t *testing.T) {
	token, err := GenerateToken(7, "b@x.com", "Grace", "Hopper", "customer")
	assert.NoError(t, err)

	assert.False(t, IsTokenBlacklisted(token))
	BlacklistToken(token)
	assert.True(t, IsTokenBlacklisted(token))
}

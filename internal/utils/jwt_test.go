package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	tok, err := NewSessionToken("secret", 42, "ana@example.com", 7)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), tok.Exp, time.Minute)

	claims, err := ParseSessionToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
}

func TestParseSessionTokenWrongSecret(t *testing.T) {
	tok, err := NewSessionToken("secret", 1, "a@b.com", 7)
	require.NoError(t, err)

	_, err = ParseSessionToken("other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseSessionTokenExpired(t *testing.T) {
	tok, err := NewSessionToken("secret", 1, "a@b.com", -1)
	require.NoError(t, err)

	_, err = ParseSessionToken("secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseSessionTokenGarbage(t *testing.T) {
	_, err := ParseSessionToken("secret", "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseSessionToken("secret", "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

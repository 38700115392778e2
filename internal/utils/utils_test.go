package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessToken_RoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 42, "MECHANIC", 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

	uid, role, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
	assert.Equal(t, "MECHANIC", role)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	good, err := NewAccessToken("s3cret", 1, "DRIVER", 15)
	require.NoError(t, err)
	_, _, err = ParseAccessToken("other", good.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewAccessToken("s3cret", 1, "DRIVER", -1)
	require.NoError(t, err)
	_, _, err = ParseAccessToken("s3cret", expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "DRIVER"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, _, err = ParseAccessToken("s3cret", noSub)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = ParseAccessToken("s3cret", "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(7)
	require.NoError(t, err)
	b, err := NewRefreshToken(7)
	require.NoError(t, err)

	assert.Len(t, a.Raw, 96)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.Len(t, HashRefreshRaw(a.Raw), 64)
	assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
}

func TestResetToken(t *testing.T) {
	tok, err := NewResetToken(time.Hour)
	require.NoError(t, err)
	assert.Len(t, tok.Raw, 64)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, 5*time.Second)
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("correct horse", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "correct horse"))
	assert.False(t, VerifyPassword(h, "wrong"))

	assert.ErrorIs(t, CheckPassword("12345"), ErrPasswordTooShort)
	assert.ErrorIs(t, CheckPassword(strings.Repeat("x", 73)), ErrPasswordTooLong)
	assert.NoError(t, CheckPassword("secret123"))
}

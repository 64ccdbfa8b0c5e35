package catalog

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenMaker_RoundTrip(t *testing.T) {
	tm := NewTokenMaker(testSecret)

	tok, err := tm.New("alice", RoleEditor, time.Minute)
	require.NoError(t, err)

	c, err := tm.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", c.Subject)
	assert.Equal(t, RoleEditor, c.Role)
	assert.Equal(t, "productdesk", c.Issuer)
}

func TestTokenMaker_Rejects(t *testing.T) {
	tm := NewTokenMaker(testSecret)

	expired, err := tm.New("alice", RoleEditor, -time.Minute)
	require.NoError(t, err)

	foreign, err := NewTokenMaker("fedcba9876543210fedcba9876543210").New("alice", RoleEditor, time.Minute)
	require.NoError(t, err)

	otherIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             RoleEditor,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"garbage":      "not-a-token",
		"expired":      expired,
		"wrong secret": foreign,
		"wrong issuer": otherIssuer,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tm.Parse(tok)
			assert.Error(t, err)
		})
	}
}

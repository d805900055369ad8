package server

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/memorychain/internal/testutil"
)

func TestParseRequestToken(t *testing.T) {
	tok, err := SignRequest(testutil.Keypair("alice"), "req-1", time.Now().Add(time.Minute))
	require.NoError(t, err)

	signer, requestID, err := parseRequestToken(tok)
	require.NoError(t, err)
	assert.Equal(t, testutil.Address("alice"), signer)
	assert.Equal(t, "req-1", requestID)
}

func TestParseRequestToken_Rejects(t *testing.T) {
	future := jwt.NewNumericDate(time.Now().Add(time.Minute))
	alice := testutil.Address("alice").String()

	signed := func(claims jwt.RegisteredClaims, signer string) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(testutil.Keypair(signer))
		require.NoError(t, err)
		return tok
	}
	hmac, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: alice, ID: "req-1", ExpiresAt: future,
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", signed(jwt.RegisteredClaims{Subject: alice, ID: "r", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}, "alice")},
		{"no expiry", signed(jwt.RegisteredClaims{Subject: alice, ID: "r"}, "alice")},
		{"no jti", signed(jwt.RegisteredClaims{Subject: alice, ExpiresAt: future}, "alice")},
		{"signed by someone else", signed(jwt.RegisteredClaims{Subject: alice, ID: "r", ExpiresAt: future}, "mallory")},
		{"bad subject", signed(jwt.RegisteredClaims{Subject: "alice", ID: "r", ExpiresAt: future}, "alice")},
		{"hmac", hmac},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseRequestToken(tt.token)
			assert.Error(t, err)
		})
	}
}

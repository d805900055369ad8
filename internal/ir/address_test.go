package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress_Base58RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		addr Address
		text string
	}{
		{"zero", Address{}, "11111111111111111111111111111111"},
		{"ones", func() (a Address) {
			for i := range a {
				a[i] = 1
			}
			return
		}(), "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.text, tt.addr.String())

			parsed, err := ParseAddress(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.addr, parsed)
		})
	}
}

func TestParseAddress_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"bad alphabet", "0OIl"},
		{"too short", "4vJ9JU1bJJE96FWS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddress(tt.input)
			assert.ErrorIs(t, err, ErrInvalidAddress)
		})
	}
}

func TestAddress_JSON(t *testing.T) {
	a := MustParseAddress("BYBWXdJzR8tUhwnRLTzDSvCk7B8DY87wqm4Hdzwfn6bn")

	b, err := json.Marshal(map[string]Address{"program": a})
	require.NoError(t, err)
	assert.JSONEq(t, `{"program":"BYBWXdJzR8tUhwnRLTzDSvCk7B8DY87wqm4Hdzwfn6bn"}`, string(b))

	var out map[string]Address
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, a, out["program"])
	assert.False(t, a.IsZero())
}

func TestParseHash(t *testing.T) {
	const hello = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

	h, err := ParseHash(hello)
	require.NoError(t, err)
	assert.Equal(t, SumHash([]byte("hello")), h)

	prefixed, err := ParseHash("0x" + hello)
	require.NoError(t, err)
	assert.Equal(t, h, prefixed)
	assert.Equal(t, hello, h.String())
}

func TestParseHash_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"short", "abcd"},
		{"not hex", "zz" + "11111111111111111111111111111111111111111111111111111111111111"},
		{"too long", "0x" + "1111111111111111111111111111111111111111111111111111111111111111" + "00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHash(tt.input)
			assert.ErrorIs(t, err, ErrInvalidHash)
		})
	}
}

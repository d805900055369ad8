package derive

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/memorychain/internal/ir"
)

// programID is the id the original deployment was published under.
var programID = ir.MustParseAddress("BYBWXdJzR8tUhwnRLTzDSvCk7B8DY87wqm4Hdzwfn6bn")

func TestKnownAnswerVectors(t *testing.T) {
	s := NewScheme(programID)

	tests := []struct {
		name    string
		derive  func() (Derivation, error)
		address string
		bump    uint8
	}{
		{
			name:    "memory sha256(hello)",
			derive:  func() (Derivation, error) { return s.Memory(ir.SumHash([]byte("hello"))) },
			address: "BqfCTpoAU2TZ3Pr1ZQP6GDR4sqrUBvdMrpcyGY7TsrSg",
			bump:    254,
		},
		{
			name:    "memory 0x11 repeated",
			derive:  func() (Derivation, error) { return s.Memory(ir.MustParseHash("0x" + repeat("11", 32))) },
			address: "EzRb6cfRCMFi9ENHn5zWPD4Spk86NBFCWGxtwhAM1Bx6",
			bump:    255,
		},
		{
			name:    "memory sha256(0x01) needs two retries",
			derive:  func() (Derivation, error) { return s.Memory(ir.Hash(sha256.Sum256([]byte{1}))) },
			address: "BsAfmakLtTQBHL5oYSpicsG5aRoXxWgmvxEzSVppNVgf",
			bump:    253,
		},
		{
			name:    "vault authority",
			derive:  s.VaultAuthority,
			address: "2U77djZQmhXXcxp5hqqokpNvvfE5LBkNSP2pUTBxkUh4",
			bump:    254,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.derive()
			require.NoError(t, err)
			assert.Equal(t, tt.address, d.Address.String())
			assert.Equal(t, tt.bump, d.Bump)
			assert.False(t, IsOnCurve(d.Address))
		})
	}
}

func TestMemory_Deterministic(t *testing.T) {
	s := NewScheme(programID)
	h := ir.SumHash([]byte("determinism"))

	first, err := s.Memory(h)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := s.Memory(h)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMemory_Unique(t *testing.T) {
	s := NewScheme(programID)
	seen := make(map[ir.Address]int)

	for i := 0; i < 200; i++ {
		d, err := s.Memory(ir.SumHash([]byte{byte(i), byte(i >> 8)}))
		require.NoError(t, err)
		prev, dup := seen[d.Address]
		require.False(t, dup, "hash %d collides with hash %d", i, prev)
		seen[d.Address] = i
	}

	authority, err := s.VaultAuthority()
	require.NoError(t, err)
	_, clash := seen[authority.Address]
	assert.False(t, clash, "vault authority must not collide with any record address")
}

func TestScheme_ProgramIDScoping(t *testing.T) {
	h := ir.SumHash([]byte("hello"))
	other := ir.MustParseAddress("4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi")

	a, err := NewScheme(programID).Memory(h)
	require.NoError(t, err)
	b, err := NewScheme(other).Memory(h)
	require.NoError(t, err)

	assert.NotEqual(t, a.Address, b.Address)
	assert.Equal(t, programID, NewScheme(programID).ProgramID())
}

func TestCreateProgramAddress_OnCurveBump(t *testing.T) {
	s := NewScheme(programID)
	// For sha256("hello") the 255 candidate is a curve point, which is why
	// the canonical bump is 254.
	_, err := CreateProgramAddress(programID, 255, s.MemorySeeds(ir.SumHash([]byte("hello")))...)
	assert.ErrorIs(t, err, ErrOnCurve)
}

func TestProve(t *testing.T) {
	s := NewScheme(programID)
	authority, err := s.VaultAuthority()
	require.NoError(t, err)

	t.Run("canonical proof", func(t *testing.T) {
		assert.NoError(t, Prove(programID, authority, s.AuthoritySeeds()...))
	})

	t.Run("wrong bump", func(t *testing.T) {
		forged := Derivation{Address: authority.Address, Bump: authority.Bump - 1}
		assert.Error(t, Prove(programID, forged, s.AuthoritySeeds()...))
	})

	t.Run("wrong namespace", func(t *testing.T) {
		assert.ErrorIs(t, Prove(programID, authority, []byte("memory")), ErrOnCurve)
	})

	t.Run("wrong program", func(t *testing.T) {
		other := ir.MustParseAddress("4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi")
		assert.ErrorIs(t, Prove(other, authority, s.AuthoritySeeds()...), ErrProofMismatch)
	})
}

func TestSeedLimits(t *testing.T) {
	tooLong := make([]byte, MaxSeedLength+1)
	_, err := FindProgramAddress(programID, tooLong)
	assert.ErrorIs(t, err, ErrMaxSeedLength)

	many := make([][]byte, MaxSeeds+1)
	_, err = FindProgramAddress(programID, many...)
	assert.ErrorIs(t, err, ErrTooManySeeds)

	exact := make([][]byte, MaxSeeds)
	for i := range exact {
		exact[i] = make([]byte, MaxSeedLength)
	}
	_, err = FindProgramAddress(programID, exact...)
	assert.NoError(t, err)
}

func TestIsOnCurve(t *testing.T) {
	// An ordinary keypair public key is a curve point.
	assert.True(t, IsOnCurve(programID))
}

func TestAssociatedTokenAddress(t *testing.T) {
	authority, err := NewScheme(programID).VaultAuthority()
	require.NoError(t, err)
	mint := ir.MustParseAddress("4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi")

	ata, err := AssociatedTokenAddress(authority.Address, mint)
	require.NoError(t, err)
	assert.Equal(t, "v9gushzsWvj5HJkbJvXTtdp4A6t4tF3msYi1ktgT8Qk", ata.String())

	again, err := AssociatedTokenAddress(authority.Address, mint)
	require.NoError(t, err)
	assert.Equal(t, ata, again)
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}

package derive

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	"github.com/roach88/memorychain/internal/ir"
)

const (
	// MaxSeeds is the maximum number of seeds, not counting the bump.
	MaxSeeds = 16

	// MaxSeedLength is the maximum byte length of a single seed.
	MaxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	// ErrOnCurve means the candidate is a valid Ed25519 point and so could be
	// controlled by a private key. It is never an acceptable derived address.
	ErrOnCurve = errors.New("derived address lies on the ed25519 curve")

	// ErrNoViableBump means no bump in [0, 255] produced an off-curve address.
	// It signals a pathological seed choice and is a configuration error.
	ErrNoViableBump = errors.New("no viable bump seed")

	// ErrTooManySeeds is returned for more than MaxSeeds seeds.
	ErrTooManySeeds = errors.New("too many seeds")

	// ErrMaxSeedLength is returned for a seed longer than MaxSeedLength.
	ErrMaxSeedLength = errors.New("seed exceeds max length")

	// ErrProofMismatch means seeds and bump re-derive to a different address.
	ErrProofMismatch = errors.New("derivation proof mismatch")
)

// Derivation is the result of a derivation: the address and the bump that
// produced it. The bump is the proof presented when acting as the address.
type Derivation struct {
	Address ir.Address `json:"address"`
	Bump    uint8      `json:"bump"`
}

// IsOnCurve reports whether b decodes as a point on the Ed25519 curve.
func IsOnCurve(b [32]byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b[:])
	return err == nil
}

func checkSeeds(seeds [][]byte) error {
	if len(seeds) > MaxSeeds {
		return fmt.Errorf("%w: %d > %d", ErrTooManySeeds, len(seeds), MaxSeeds)
	}
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return fmt.Errorf("%w: seed %d is %d bytes", ErrMaxSeedLength, i, len(s))
		}
	}
	return nil
}

// CreateProgramAddress derives the address for seeds and an explicit bump.
// It fails with ErrOnCurve if that candidate is a curve point.
func CreateProgramAddress(programID ir.Address, bump uint8, seeds ...[]byte) (ir.Address, error) {
	if err := checkSeeds(seeds); err != nil {
		return ir.Address{}, err
	}

	h := sha256.New()
	for _, s := range seeds {
		h.Write(s)
	}
	h.Write([]byte{bump})
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	var candidate [32]byte
	copy(candidate[:], h.Sum(nil))
	if IsOnCurve(candidate) {
		return ir.Address{}, ErrOnCurve
	}
	return ir.Address(candidate), nil
}

// FindProgramAddress searches bumps from 255 down to 0 and returns the first
// off-curve address with its bump. Roughly half of all candidates are on the
// curve, so exhaustion is astronomically unlikely for sane seeds.
func FindProgramAddress(programID ir.Address, seeds ...[]byte) (Derivation, error) {
	if err := checkSeeds(seeds); err != nil {
		return Derivation{}, err
	}
	for bump := 255; bump >= 0; bump-- {
		addr, err := CreateProgramAddress(programID, uint8(bump), seeds...)
		if errors.Is(err, ErrOnCurve) {
			continue
		}
		if err != nil {
			return Derivation{}, err
		}
		return Derivation{Address: addr, Bump: uint8(bump)}, nil
	}
	return Derivation{}, ErrNoViableBump
}

// Prove re-derives the address from seeds and the claimed bump and checks it
// matches d.Address. It is the capability check behind delegated signing.
func Prove(programID ir.Address, d Derivation, seeds ...[]byte) error {
	addr, err := CreateProgramAddress(programID, d.Bump, seeds...)
	if err != nil {
		return err
	}
	if addr != d.Address {
		return fmt.Errorf("%w: seeds yield %s, claimed %s", ErrProofMismatch, addr, d.Address)
	}
	return nil
}

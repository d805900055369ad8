package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// AddressSize is the byte length of an Address.
const AddressSize = 32

// HashSize is the byte length of a content Hash.
const HashSize = 32

var (
	// ErrInvalidAddress is returned when a base58 string is not a 32-byte address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidHash is returned when a hex string is not a 32-byte digest.
	ErrInvalidHash = errors.New("invalid hash")
)

// Address identifies an account on the ledger. Text form is base58.
//
// An Address is either an Ed25519 public key (controlled by a private key)
// or a derived address that lies off the curve and has no key at all.
type Address [AddressSize]byte

// ParseAddress decodes a base58 address.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	if len(raw) != AddressSize {
		return a, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidAddress, s, len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// MustParseAddress is like ParseAddress but panics on error.
// Use only for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the base58 form.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// IsZero reports whether the address is all zero bytes.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Bytes returns a copy of the address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressSize)
	copy(b, a[:])
	return b
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Hash is a 32-byte content digest. Text form is lower-case hex.
type Hash [HashSize]byte

// SumHash returns the SHA-256 digest of data.
func SumHash(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// ParseHash decodes a 64-digit hex string, with or without a 0x prefix.
func ParseHash(s string) (Hash, error) {
	var h Hash
	clean := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(clean) != 2*HashSize {
		return h, fmt.Errorf("%w: want %d hex digits, got %d", ErrInvalidHash, 2*HashSize, len(clean))
	}
	if _, err := hex.Decode(h[:], []byte(clean)); err != nil {
		return h, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	return h, nil
}

// MustParseHash is like ParseHash but panics on error.
func MustParseHash(s string) Hash {
	h, err := ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

// String returns the lower-case hex form without prefix.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Package derive computes program-derived addresses.
//
// A derived address is SHA-256 over the seeds, a one-byte bump, the program
// id and the marker "ProgramDerivedAddress". A candidate is accepted only if
// it does NOT decode as an Ed25519 point, so no private key can ever sign
// for it. The bump that yields the first off-curve candidate (searching from
// 255 down) is the canonical bump.
//
// The pair (address, bump) is a capability: the runtime lets a program act
// as a derived address only after re-deriving it from the same seeds and
// bump under that program's own id (see CreateProgramAddress).
//
// Everything here is pure. Namespace tags and the program id are explicit
// values carried by Scheme, never package state.
package derive

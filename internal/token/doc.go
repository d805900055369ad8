// Package token is the typed balance ledger the program pays rewards from.
//
// It is a local rendition of the host ledger's token program: mints,
// associated token accounts, minting and transfers. All operations run
// inside the caller's store transaction, so a failed instruction leaves
// every balance untouched.
//
// Authorization is by signer set. A transfer is accepted only if the
// source account's owner is among the signers; derived (off-curve)
// owners sign by having their derivation proven by the runtime first.
package token

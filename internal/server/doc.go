// Package server exposes the program over HTTP.
//
// Reads are public. Every mutating route requires a bearer token signed
// with EdDSA by the transaction signer: the token's subject is the signer
// address and its id becomes the transaction's request id, so a replayed
// token is rejected as a duplicate transaction.
package server

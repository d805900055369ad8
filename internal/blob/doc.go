// Package blob archives the content behind stored memory hashes.
//
// The ledger keeps only a 32-byte digest. The archive keeps the bytes,
// keyed by that digest, so a verifier can fetch the content and check it
// still hashes to the recorded value. Every Put and Get re-hashes the
// bytes; an archive can never hand out content under the wrong key.
package blob

// Package ir provides the foundation types shared by every memorychain layer.
//
// This package imports nothing internal. Derivation, storage, the program and
// the engine all speak in terms of these types:
//   - Address and Hash: 32-byte identities and content digests
//   - MemoryRecord: the 80-byte persisted record layout
//   - Instruction, Transaction, Receipt, Event: the execution envelope
//   - IRValue / IRObject: the constrained value model for results and events
//
// Key design constraints:
//   - NO float types in IRValue; integers are int64
//   - Content-addressed IDs use RFC 8785 canonical JSON and SHA-256 with
//     domain separation (see hash.go)
//   - All JSON tags use snake_case
package ir

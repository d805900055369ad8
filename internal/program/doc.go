// Package program implements the memorychain instructions.
//
// The program persists exactly one kind of entity, the memory record,
// at an address derived from its content hash. It can also pay rewards
// out of a vault whose owner is a derived identity with no private key.
//
// Every handler follows the same pipeline: resolve derived addresses,
// load the accounts it needs or fail, assert ownership and equality
// constraints, and only then mutate. Handlers return *Error for every
// expected failure; the runtime discards all effects of a failed
// instruction.
package program

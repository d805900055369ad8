// Package cli implements the memorychain command line.
//
// Every command writes its result through OutputFormatter, as text or as a
// JSON envelope, and maps failures to exit codes: 1 when the ledger refused
// (a failed receipt, a replay mismatch), 2 for command errors.
package cli

// Package engine is the memorychain host runtime.
//
// The engine authenticates transactions, assigns them a place in the log
// and executes them against the program one at a time.
//
// ARCHITECTURE:
//
// Single-Writer Executor:
// Transactions are executed strictly one after another. Concurrent callers
// either call Execute, which serializes on a mutex, or Submit to the FIFO
// queue drained by Run. In both cases:
//   - Each transaction runs inside one store transaction
//   - A failing instruction rolls back every write it made
//   - A receipt is written for every executed transaction, failed or not
//
// Logical Clock:
// Every receipt is stamped with a strictly increasing seq from Clock. A seq
// is consumed only when its receipt commits, so the log has no gaps. The
// clock resumes from the store's last seq on restart.
//
// Host Time:
// created_at values come from a TimeSource, never from the caller. Replay
// substitutes the recorded timestamps so re-execution is exact.
//
// Duplicate transactions (same content-addressed id) are rejected without
// consuming a seq.
package engine

package engine

import (
	"context"
	"fmt"

	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/store"
)

// ReplayMismatch describes a receipt that re-executed differently.
type ReplayMismatch struct {
	Seq      int64  `json:"seq"`
	TxID     string `json:"tx_id"`
	WantHash string `json:"want_hash"`
	GotHash  string `json:"got_hash,omitempty"`
	Reason   string `json:"reason"`
}

// ReplayResult summarizes a replay run.
type ReplayResult struct {
	Replayed   int              `json:"replayed"`
	Mismatches []ReplayMismatch `json:"mismatches"`
}

// OK reports whether every receipt was reproduced exactly.
func (r ReplayResult) OK() bool {
	return len(r.Mismatches) == 0
}

// Replay re-executes receipts on target in seq order and compares receipt
// hashes. Each transaction runs at its recorded timestamp.
//
// target must start from the same genesis state as the log's ledger and
// must not have executed anything else; seqs are then reproduced too.
func Replay(ctx context.Context, target *Engine, receipts []ir.Receipt) (ReplayResult, error) {
	var result ReplayResult

	for _, want := range receipts {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		wantHash, err := ir.ReceiptHash(want)
		if err != nil {
			return result, fmt.Errorf("hash receipt seq=%d: %w", want.Seq, err)
		}

		got, err := target.execute(ctx, want.Transaction(), fixedTime(want.Timestamp))
		result.Replayed++
		if err != nil {
			result.Mismatches = append(result.Mismatches, ReplayMismatch{
				Seq:      want.Seq,
				TxID:     want.TxID,
				WantHash: wantHash,
				Reason:   err.Error(),
			})
			continue
		}

		gotHash, err := ir.ReceiptHash(got)
		if err != nil {
			return result, fmt.Errorf("hash replayed receipt seq=%d: %w", got.Seq, err)
		}
		if gotHash != wantHash {
			result.Mismatches = append(result.Mismatches, ReplayMismatch{
				Seq:      want.Seq,
				TxID:     want.TxID,
				WantHash: wantHash,
				GotHash:  gotHash,
				Reason:   describeDiff(want, got),
			})
		}
	}

	target.logger.Info("replay complete",
		"replayed", result.Replayed,
		"mismatches", len(result.Mismatches),
	)
	return result, nil
}

// ReplayStore replays the full receipt log of src on target.
func ReplayStore(ctx context.Context, src *store.Store, target *Engine) (ReplayResult, error) {
	receipts, err := src.ReadReceipts(ctx, 0, 0)
	if err != nil {
		return ReplayResult{}, err
	}
	return Replay(ctx, target, receipts)
}

func describeDiff(want, got ir.Receipt) string {
	switch {
	case want.Seq != got.Seq:
		return fmt.Sprintf("seq %d, replayed as %d", want.Seq, got.Seq)
	case want.Status != got.Status:
		return fmt.Sprintf("status %s, replayed as %s", want.Status, got.Status)
	case want.ErrorCode != got.ErrorCode:
		return fmt.Sprintf("error code %q, replayed as %q", want.ErrorCode, got.ErrorCode)
	case len(want.Logs) != len(got.Logs):
		return fmt.Sprintf("%d logs, replayed with %d", len(want.Logs), len(got.Logs))
	}
	return "logs, events or result differ"
}

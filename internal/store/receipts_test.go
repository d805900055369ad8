package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/memorychain/internal/ir"
)

func testReceipt(seq int64, requestID string, status ir.Status) ir.Receipt {
	tx, err := ir.NewTransaction(requestID, ir.StoreMemory(ir.SumHash([]byte(requestID))), ir.Address{1})
	if err != nil {
		panic(err)
	}
	r := ir.Receipt{
		TxID:        tx.ID,
		Seq:         seq,
		Timestamp:   1_700_000_000 + seq,
		RequestID:   requestID,
		Signers:     tx.Signers,
		Instruction: tx.Instruction,
		Status:      status,
		Logs:        []string{"store_memory"},
		Events: []ir.Event{{
			Name: "MemoryStored",
			Data: ir.IRObject{"seq": ir.IRInt(seq)},
		}},
		Result: ir.IRObject{"ok": ir.IRBool(true)},
	}
	if status == ir.StatusFailed {
		r.ErrorCode = "ALREADY_EXISTS"
		r.Error = "memory already recorded"
		r.Events = nil
		r.Result = nil
	}
	return r
}

func TestWriteReceipt_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := testReceipt(1, "req-1", ir.StatusOK)
	if err := s.WriteReceipt(ctx, want); err != nil {
		t.Fatalf("WriteReceipt() failed: %v", err)
	}

	got, err := s.ReadReceipt(ctx, want.TxID)
	if err != nil {
		t.Fatalf("ReadReceipt() failed: %v", err)
	}

	wantHash, _ := ir.ReceiptHash(want)
	gotHash, _ := ir.ReceiptHash(got)
	if gotHash != wantHash {
		t.Errorf("receipt hash changed through the store: got %s, want %s", gotHash, wantHash)
	}
	if got.Instruction.Memory == nil || got.Instruction.Memory.Hash != want.Instruction.Memory.Hash {
		t.Errorf("instruction = %+v, want %+v", got.Instruction, want.Instruction)
	}
	if len(got.Signers) != 1 || got.Signers[0] != (ir.Address{1}) {
		t.Errorf("signers = %v", got.Signers)
	}
}

func TestWriteReceipt_Failed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := testReceipt(1, "req-1", ir.StatusFailed)
	if err := s.WriteReceipt(ctx, want); err != nil {
		t.Fatalf("WriteReceipt() failed: %v", err)
	}

	got, err := s.ReadReceipt(ctx, want.TxID)
	if err != nil {
		t.Fatalf("ReadReceipt() failed: %v", err)
	}
	if got.OK() || got.ErrorCode != "ALREADY_EXISTS" {
		t.Errorf("got status=%s code=%s", got.Status, got.ErrorCode)
	}
	if len(got.Events) != 0 || got.Result != nil {
		t.Errorf("failed receipt should carry no events or result: %+v", got)
	}
}

func TestWriteReceipt_Duplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := testReceipt(1, "req-1", ir.StatusOK)
	if err := s.WriteReceipt(ctx, r); err != nil {
		t.Fatalf("WriteReceipt() failed: %v", err)
	}

	r.Seq = 2
	err := s.WriteReceipt(ctx, r)
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("duplicate WriteReceipt() error = %v, want ErrDuplicateTransaction", err)
	}

	ok, err := s.HasTransaction(ctx, r.TxID)
	if err != nil || !ok {
		t.Fatalf("HasTransaction() = %v, %v", ok, err)
	}
}

func TestReadReceipts_OrderAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	if err != nil || seq != 0 {
		t.Fatalf("LastSeq() on empty log = %d, %v", seq, err)
	}

	// Written out of order on purpose
	for _, n := range []int64{3, 1, 2} {
		if err := s.WriteReceipt(ctx, testReceipt(n, "req-"+string(rune('a'+n)), ir.StatusOK)); err != nil {
			t.Fatalf("WriteReceipt(%d) failed: %v", n, err)
		}
	}

	all, err := s.ReadReceipts(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ReadReceipts() failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ReadReceipts() returned %d receipts, want 3", len(all))
	}
	for i, r := range all {
		if r.Seq != int64(i+1) {
			t.Errorf("receipt %d has seq %d", i, r.Seq)
		}
	}

	page, err := s.ReadReceipts(ctx, 1, 1)
	if err != nil {
		t.Fatalf("ReadReceipts(1, 1) failed: %v", err)
	}
	if len(page) != 1 || page[0].Seq != 2 {
		t.Errorf("ReadReceipts(1, 1) = %+v", page)
	}

	seq, err = s.LastSeq(ctx)
	if err != nil || seq != 3 {
		t.Errorf("LastSeq() = %d, %v, want 3", seq, err)
	}
}

func TestReadReceipt_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ReadReceipt(context.Background(), "deadbeef")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ReadReceipt() error = %v, want ErrNotFound", err)
	}
}

package program

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/store"
)

// EventMemoryStored is emitted when a new record is written.
const EventMemoryStored = "MemoryStored"

// StoreMemory writes a record for content hash h owned by the payer.
// A hash can be stored once; later attempts fail with ALREADY_EXISTS and
// leave the original record untouched.
func (p *Program) StoreMemory(ctx context.Context, rt Runtime, h ir.Hash) (ir.IRObject, error) {
	owner, err := payer(rt)
	if err != nil {
		return nil, err
	}

	d, err := p.scheme.Memory(h)
	if err != nil {
		return nil, newError(ErrCodeDerivationFailure, err, "derive memory address")
	}

	accounts := rt.Accounts()
	_, err = accounts.GetAccount(ctx, d.Address)
	switch {
	case err == nil:
		return nil, newError(ErrCodeAlreadyExists, nil, "memory %s already stored at %s", h, d.Address)
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("load memory account: %w", err)
	}

	record := ir.MemoryRecord{
		Owner:       owner,
		ContentHash: h,
		CreatedAt:   rt.Now(),
	}
	data, err := record.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	err = accounts.CreateAccount(ctx, store.Account{
		Address:    d.Address,
		Owner:      p.ID(),
		Data:       data,
		CreatedSeq: rt.Seq(),
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return nil, newError(ErrCodeAlreadyExists, err, "memory %s already stored at %s", h, d.Address)
	}
	if err != nil {
		return nil, fmt.Errorf("create memory account: %w", err)
	}

	rt.Log(fmt.Sprintf("Stored memory: %s", h))
	rt.Emit(EventMemoryStored, ir.IRObject{
		"address": ir.IRString(d.Address.String()),
		"hash":    ir.IRString(h.String()),
		"owner":   ir.IRString(owner.String()),
	})

	result := record.Object()
	result["address"] = ir.IRString(d.Address.String())
	result["bump"] = ir.IRInt(d.Bump)
	return result, nil
}

// VerifyMemory checks that a record exists for h and that it is intact.
// Any signer may verify; the record is returned unchanged.
func (p *Program) VerifyMemory(ctx context.Context, rt Runtime, h ir.Hash) (ir.IRObject, error) {
	if _, err := payer(rt); err != nil {
		return nil, err
	}

	record, err := p.LoadMemory(ctx, rt.Accounts(), h)
	if err != nil {
		return nil, err
	}

	rt.Log(fmt.Sprintf("Verified memory: hash=%s, owner=%s, timestamp=%d",
		record.ContentHash, record.Owner, record.CreatedAt))
	return record.Object(), nil
}

// MemoryReader is the read side of Accounts.
type MemoryReader interface {
	GetAccount(ctx context.Context, addr ir.Address) (store.Account, error)
}

// LoadMemory reads and validates the record for h without a transaction.
// It applies the same checks as VerifyMemory.
func (p *Program) LoadMemory(ctx context.Context, accounts MemoryReader, h ir.Hash) (ir.MemoryRecord, error) {
	d, err := p.scheme.Memory(h)
	if err != nil {
		return ir.MemoryRecord{}, newError(ErrCodeDerivationFailure, err, "derive memory address")
	}

	acct, err := accounts.GetAccount(ctx, d.Address)
	if errors.Is(err, store.ErrNotFound) {
		return ir.MemoryRecord{}, newError(ErrCodeNotFound, nil, "no memory stored for %s", h)
	}
	if err != nil {
		return ir.MemoryRecord{}, fmt.Errorf("load memory account: %w", err)
	}

	if acct.Owner != p.ID() {
		return ir.MemoryRecord{}, newError(ErrCodeIntegrityViolation, nil,
			"account %s is owned by %s, not the program", d.Address, acct.Owner)
	}
	record, err := ir.DecodeRecord(acct.Data)
	if err != nil {
		return ir.MemoryRecord{}, newError(ErrCodeIntegrityViolation, err, "account %s is not a memory record", d.Address)
	}
	if record.ContentHash != h {
		return ir.MemoryRecord{}, newError(ErrCodeIntegrityViolation, nil,
			"stored hash %s does not match %s", record.ContentHash, h)
	}
	return record, nil
}

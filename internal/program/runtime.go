package program

import (
	"context"

	"github.com/roach88/memorychain/internal/derive"
	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/store"
)

// Accounts is the ledger state visible to an instruction.
// *store.Tx satisfies it.
type Accounts interface {
	GetAccount(ctx context.Context, addr ir.Address) (store.Account, error)
	CreateAccount(ctx context.Context, a store.Account) error
	GetTokenAccount(ctx context.Context, addr ir.Address) (store.TokenAccount, error)
}

// Transfer is a token transfer requested by the program.
type Transfer struct {
	From   ir.Address
	To     ir.Address
	Amount uint64
}

// Runtime is the host environment of one executing instruction.
// All effects made through it are committed or discarded together.
type Runtime interface {
	// Signers returns the identities whose authorization was verified.
	Signers() []ir.Address

	// Now returns the host time in unix seconds.
	Now() int64

	// Seq returns the logical clock value of the executing transaction.
	Seq() int64

	// Accounts returns the transaction's ledger state.
	Accounts() Accounts

	// Log appends a line to the receipt.
	Log(msg string)

	// Emit records an advisory event.
	Emit(name string, data ir.IRObject)

	// InvokeSigned performs a token transfer with the derived identity
	// proven by seeds and the bump in proof added to the signer set.
	// The runtime re-derives the address under the executing program's id
	// and rejects the call if it does not match proof.Address.
	InvokeSigned(ctx context.Context, t Transfer, proof derive.Derivation, seeds [][]byte) error
}

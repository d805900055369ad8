package engine

import (
	"context"

	"github.com/roach88/memorychain/internal/derive"
	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/program"
	"github.com/roach88/memorychain/internal/store"
	"github.com/roach88/memorychain/internal/token"
)

// txRuntime is the program.Runtime of one executing transaction.
// It lives exactly as long as its store transaction.
type txRuntime struct {
	tx        *store.Tx
	programID ir.Address
	signers   []ir.Address
	now       int64
	seq       int64
	logs      []string
	events    []ir.Event
}

var _ program.Runtime = (*txRuntime)(nil)

func newTxRuntime(tx *store.Tx, programID ir.Address, r ir.Receipt) *txRuntime {
	return &txRuntime{
		tx:        tx,
		programID: programID,
		signers:   r.Signers,
		now:       r.Timestamp,
		seq:       r.Seq,
	}
}

func (r *txRuntime) Signers() []ir.Address      { return r.signers }
func (r *txRuntime) Now() int64                 { return r.now }
func (r *txRuntime) Seq() int64                 { return r.seq }
func (r *txRuntime) Accounts() program.Accounts { return r.tx }
func (r *txRuntime) Log(msg string)             { r.logs = append(r.logs, msg) }
func (r *txRuntime) Emit(n string, d ir.IRObject) {
	r.events = append(r.events, ir.Event{Name: n, Data: d})
}

// InvokeSigned proves the derived identity under the executing program's
// id and then performs the transfer with it as an additional signer.
func (r *txRuntime) InvokeSigned(ctx context.Context, t program.Transfer, proof derive.Derivation, seeds [][]byte) error {
	if err := derive.Prove(r.programID, proof, seeds...); err != nil {
		return err
	}

	signers := make([]ir.Address, 0, len(r.signers)+1)
	signers = append(signers, r.signers...)
	signers = append(signers, proof.Address)

	return token.New(r.tx).Transfer(ctx, t.From, t.To, t.Amount, signers)
}

package program

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/memorychain/internal/derive"
	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/store"
	"github.com/roach88/memorychain/internal/token"
)

var programID = ir.MustParseAddress("BYBWXdJzR8tUhwnRLTzDSvCk7B8DY87wqm4Hdzwfn6bn")

// testRuntime runs instructions against an open store transaction.
type testRuntime struct {
	tx      *store.Tx
	signers []ir.Address
	now     int64
	seq     int64
	logs    []string
	events  []ir.Event
}

func (r *testRuntime) Signers() []ir.Address { return r.signers }
func (r *testRuntime) Now() int64            { return r.now }
func (r *testRuntime) Seq() int64            { return r.seq }
func (r *testRuntime) Accounts() Accounts    { return r.tx }
func (r *testRuntime) Log(msg string)        { r.logs = append(r.logs, msg) }

func (r *testRuntime) Emit(name string, data ir.IRObject) {
	r.events = append(r.events, ir.Event{Name: name, Data: data})
}

func (r *testRuntime) InvokeSigned(ctx context.Context, t Transfer, proof derive.Derivation, seeds [][]byte) error {
	if err := derive.Prove(programID, proof, seeds...); err != nil {
		return err
	}
	signers := append(append([]ir.Address(nil), r.signers...), proof.Address)
	return token.New(r.tx).Transfer(ctx, t.From, t.To, t.Amount, signers)
}

type fixture struct {
	store   *store.Store
	program *Program
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "program.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return &fixture{store: s, program: New(derive.NewScheme(programID))}
}

// run executes ix as signer at time now and commits only on success.
func (f *fixture) run(t *testing.T, ix ir.Instruction, now int64, signers ...ir.Address) (*testRuntime, ir.IRObject, error) {
	t.Helper()
	ctx := context.Background()
	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	rt := &testRuntime{tx: tx, signers: signers, now: now, seq: 1}
	result, err := f.program.Execute(ctx, rt, ix)
	if err != nil {
		return rt, nil, err
	}
	require.NoError(t, tx.Commit())
	return rt, result, nil
}

// withLedger runs fn in a committed transaction against the token ledger.
func (f *fixture) withLedger(t *testing.T, fn func(ctx context.Context, l *token.Ledger)) {
	t.Helper()
	ctx := context.Background()
	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()
	fn(ctx, token.New(tx))
	require.NoError(t, tx.Commit())
}

func (f *fixture) balance(t *testing.T, addr ir.Address) uint64 {
	t.Helper()
	acct, err := f.store.GetTokenAccount(context.Background(), addr)
	require.NoError(t, err)
	return uint64(acct.Amount)
}

package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/memorychain/internal/ir"
)

// runHistory executes a mixed log: successes and program failures.
func runHistory(t *testing.T, env *testEnv) []ir.Receipt {
	t.Helper()
	ctx := context.Background()

	txs := []ir.Transaction{
		env.tx(t, ir.Initialize(), "operator"),
		env.tx(t, ir.StoreMemory(hello), "alice"),
		env.tx(t, ir.StoreMemory(hello), "bob"), // ALREADY_EXISTS
		env.tx(t, ir.VerifyMemory(hello), "bob"),
		env.tx(t, ir.VerifyMemory(ir.SumHash([]byte("missing"))), "bob"), // NOT_FOUND
		env.tx(t, ir.RewardMiner(env.rewardArgs(t, "alice", 30)), "operator"),
		env.tx(t, ir.RewardMiner(env.rewardArgs(t, "alice", 1000)), "operator"), // INSUFFICIENT_FUNDS
	}

	receipts := make([]ir.Receipt, 0, len(txs))
	for _, tx := range txs {
		r, err := env.engine.Execute(ctx, tx)
		require.NoError(t, err)
		receipts = append(receipts, r)
	}
	return receipts
}

func TestReplay_ReproducesReceipts(t *testing.T) {
	src := newTestEnv(t, 100)
	receipts := runHistory(t, src)
	require.Len(t, receipts, 7)
	assert.Equal(t, ir.StatusFailed, receipts[2].Status)
	assert.Equal(t, ir.StatusFailed, receipts[6].Status)

	// Same genesis, fresh ledger, a different wall clock
	dst := newTestEnv(t, 100)
	dst.time.Set(startTime + 99_999)
	dst.recipientAccount(t, "alice")

	result, err := ReplayStore(context.Background(), src.store, dst.engine)
	require.NoError(t, err)
	assert.True(t, result.OK(), "mismatches: %+v", result.Mismatches)
	assert.Equal(t, 7, result.Replayed)

	assert.Equal(t, src.balance(t, src.vault.VaultAccount), dst.balance(t, dst.vault.VaultAccount))
}

func TestReplay_DetectsDivergence(t *testing.T) {
	src := newTestEnv(t, 100)
	receipts := runHistory(t, src)

	// Vault funded differently: the small reward now fails
	dst := newTestEnv(t, 10)
	dst.recipientAccount(t, "alice")

	result, err := Replay(context.Background(), dst.engine, receipts)
	require.NoError(t, err)
	require.False(t, result.OK())
	require.Len(t, result.Mismatches, 1)
	assert.Equal(t, int64(6), result.Mismatches[0].Seq)
	assert.Contains(t, result.Mismatches[0].Reason, "status")
}

func TestReplay_OntoSameLedgerReportsDuplicates(t *testing.T) {
	env := newTestEnv(t, 100)
	receipts := runHistory(t, env)

	result, err := Replay(context.Background(), env.engine, receipts[:2])
	require.NoError(t, err)
	require.Len(t, result.Mismatches, 2)
	assert.Contains(t, result.Mismatches[0].Reason, string(ErrCodeDuplicateTransaction))
}

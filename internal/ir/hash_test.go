package ir

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstructionDiscriminators(t *testing.T) {
	tests := []struct {
		name     InstructionName
		expected string
	}{
		{InstructionInitialize, "afaf6d1f0d989bed"},
		{InstructionStoreMemory, "a86758f05db91eeb"},
		{InstructionVerifyMemory, "38a854bc6be2207f"},
		{InstructionRewardMiner, "0bd6980abc243e7d"},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			d := tt.name.Discriminator()
			assert.Equal(t, tt.expected, hex.EncodeToString(d[:]))
			assert.True(t, tt.name.Valid())
		})
	}
	assert.False(t, InstructionName("drain_vault").Valid())
}

func TestInstructionData(t *testing.T) {
	h := SumHash([]byte("hello"))

	data := StoreMemory(h).Data()
	require.Len(t, data, 40)
	assert.Equal(t, h[:], data[8:])

	reward := RewardMiner(RewardArgs{Amount: 0x0102}).Data()
	require.Len(t, reward, 16)
	assert.Equal(t, []byte{0x02, 0x01, 0, 0, 0, 0, 0, 0}, reward[8:])

	assert.Len(t, Initialize().Data(), 8)
}

func TestInstructionValidate(t *testing.T) {
	h := SumHash([]byte("x"))

	assert.NoError(t, Initialize().Validate())
	assert.NoError(t, StoreMemory(h).Validate())
	assert.NoError(t, VerifyMemory(h).Validate())
	assert.NoError(t, RewardMiner(RewardArgs{Amount: 1}).Validate())

	assert.Error(t, Instruction{Name: InstructionStoreMemory}.Validate())
	assert.Error(t, Instruction{Name: InstructionRewardMiner, Memory: &MemoryArgs{}}.Validate())
	assert.Error(t, Instruction{Name: InstructionInitialize, Memory: &MemoryArgs{}}.Validate())
	assert.Error(t, Instruction{Name: "unknown"}.Validate())
}

func TestTransactionID_Deterministic(t *testing.T) {
	signer := MustParseAddress("4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi")
	ix := StoreMemory(SumHash([]byte("hello")))

	tx1, err := NewTransaction("req-1", ix, signer)
	require.NoError(t, err)
	tx2, err := NewTransaction("req-1", ix, signer)
	require.NoError(t, err)

	assert.Equal(t, tx1.ID, tx2.ID)
	assert.Len(t, tx1.ID, 64)
}

func TestTransactionID_Distinguishes(t *testing.T) {
	signer := MustParseAddress("4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi")
	base := MustTransactionID(Transaction{RequestID: "r", Signers: []Address{signer}, Instruction: StoreMemory(SumHash([]byte("a")))})

	variants := map[string]Transaction{
		"request id":  {RequestID: "r2", Signers: []Address{signer}, Instruction: StoreMemory(SumHash([]byte("a")))},
		"hash":        {RequestID: "r", Signers: []Address{signer}, Instruction: StoreMemory(SumHash([]byte("b")))},
		"instruction": {RequestID: "r", Signers: []Address{signer}, Instruction: VerifyMemory(SumHash([]byte("a")))},
		"signers":     {RequestID: "r", Signers: []Address{{}}, Instruction: StoreMemory(SumHash([]byte("a")))},
	}

	for name, tx := range variants {
		t.Run(name, func(t *testing.T) {
			assert.NotEqual(t, base, MustTransactionID(tx))
		})
	}
}

func TestReceiptHash_CoversOutcome(t *testing.T) {
	r := Receipt{TxID: "t", Seq: 1, Timestamp: 10, Status: StatusOK, Logs: []string{"a"}}
	h1, err := ReceiptHash(r)
	require.NoError(t, err)

	r.Status = StatusFailed
	r.ErrorCode = "NOT_FOUND"
	h2, err := ReceiptHash(r)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestTransaction_Payer(t *testing.T) {
	_, ok := Transaction{}.Payer()
	assert.False(t, ok)

	a := MustParseAddress("4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi")
	tx := Transaction{Signers: []Address{a}}
	payer, ok := tx.Payer()
	assert.True(t, ok)
	assert.Equal(t, a, payer)
	assert.True(t, tx.HasSigner(a))
	assert.False(t, tx.HasSigner(Address{}))
}

package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// InstructionName identifies one of the program's operations.
type InstructionName string

const (
	InstructionInitialize   InstructionName = "initialize"
	InstructionStoreMemory  InstructionName = "store_memory"
	InstructionVerifyMemory InstructionName = "verify_memory"
	InstructionRewardMiner  InstructionName = "reward_miner"
)

// Valid reports whether n names a known instruction.
func (n InstructionName) Valid() bool {
	switch n {
	case InstructionInitialize, InstructionStoreMemory, InstructionVerifyMemory, InstructionRewardMiner:
		return true
	}
	return false
}

// Discriminator returns the 8-byte instruction selector,
// the first 8 bytes of SHA-256("global:<name>").
func (n InstructionName) Discriminator() [8]byte {
	sum := sha256.Sum256([]byte("global:" + string(n)))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// MemoryArgs carries the content hash for store_memory and verify_memory.
type MemoryArgs struct {
	Hash Hash `json:"hash"`
}

// RewardArgs carries the amount and the accounts for reward_miner.
type RewardArgs struct {
	Amount           uint64  `json:"amount"`
	Recipient        Address `json:"recipient"`
	VaultAccount     Address `json:"vault_account"`
	RecipientAccount Address `json:"recipient_account"`
	Mint             Address `json:"mint"`
}

// Instruction is a single program call. Exactly one of the argument
// blocks is set, matching Name; initialize takes none.
type Instruction struct {
	Name   InstructionName `json:"name"`
	Memory *MemoryArgs     `json:"memory,omitempty"`
	Reward *RewardArgs     `json:"reward,omitempty"`
}

// Initialize builds an initialize instruction.
func Initialize() Instruction {
	return Instruction{Name: InstructionInitialize}
}

// StoreMemory builds a store_memory instruction.
func StoreMemory(h Hash) Instruction {
	return Instruction{Name: InstructionStoreMemory, Memory: &MemoryArgs{Hash: h}}
}

// VerifyMemory builds a verify_memory instruction.
func VerifyMemory(h Hash) Instruction {
	return Instruction{Name: InstructionVerifyMemory, Memory: &MemoryArgs{Hash: h}}
}

// RewardMiner builds a reward_miner instruction.
func RewardMiner(args RewardArgs) Instruction {
	return Instruction{Name: InstructionRewardMiner, Reward: &args}
}

// Validate checks that the argument block matches the instruction name.
func (ix Instruction) Validate() error {
	switch ix.Name {
	case InstructionInitialize:
		if ix.Memory != nil || ix.Reward != nil {
			return fmt.Errorf("instruction %s takes no arguments", ix.Name)
		}
	case InstructionStoreMemory, InstructionVerifyMemory:
		if ix.Memory == nil || ix.Reward != nil {
			return fmt.Errorf("instruction %s requires memory arguments only", ix.Name)
		}
	case InstructionRewardMiner:
		if ix.Reward == nil || ix.Memory != nil {
			return fmt.Errorf("instruction %s requires reward arguments only", ix.Name)
		}
	default:
		return fmt.Errorf("unknown instruction %q", ix.Name)
	}
	return nil
}

// Data encodes the instruction payload: discriminator followed by
// the 32-byte hash or the little-endian u64 amount.
func (ix Instruction) Data() []byte {
	d := ix.Name.Discriminator()
	data := append([]byte(nil), d[:]...)
	switch {
	case ix.Memory != nil:
		data = append(data, ix.Memory.Hash[:]...)
	case ix.Reward != nil:
		data = binary.LittleEndian.AppendUint64(data, ix.Reward.Amount)
	}
	return data
}

// Accounts lists the addresses the instruction references besides its signers.
func (ix Instruction) Accounts() []Address {
	if ix.Reward == nil {
		return nil
	}
	r := ix.Reward
	return []Address{r.Recipient, r.VaultAccount, r.RecipientAccount, r.Mint}
}

// Package harness runs scripted scenarios against a fresh ledger.
//
// A scenario is a YAML file naming a vault setup, a flow of signed
// instructions and assertions on the result:
//
//	name: store_verify_reward
//	description: Store a memory, verify it, reward the miner
//	vault:
//	  supply: 100
//	accounts: [miner]
//	flow:
//	  - signer: alice
//	    invoke: store_memory
//	    args: {content: hello}
//	  - signer: alice
//	    invoke: reward_miner
//	    args: {recipient: miner, amount: 10}
//	assertions:
//	  - type: balance
//	    account: miner
//	    amount: 10
//
// Every step is executed by the real engine with a deterministic clock
// and request ids. Signer names map to fixed test keys (see
// testutil.Keypair), and every address in the trace is replaced by its
// alias: the signer name, "program", "vault_authority", "mint", "vault",
// "account:<name>" for a reward token account, or "memory:<content>" for
// a record address. Traces are therefore stable and can be compared
// against golden files with RunWithGolden.
package harness

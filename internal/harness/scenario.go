package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/memorychain/internal/ir"
)

// Scenario is a scripted run against a fresh ledger: optional vault
// genesis, a flow of signed instructions with expected outcomes, and
// assertions on the resulting trace and ledger state.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// StartTime is the host time of the first transaction (unix seconds).
	// Each transaction advances it by one. Default: DefaultStartTime.
	StartTime int64 `yaml:"start_time,omitempty"`

	// Vault runs genesis before the flow. Without it no reward can succeed.
	Vault *VaultSetup `yaml:"vault,omitempty"`

	// Accounts are identities whose reward token accounts are opened
	// before the flow. Requires Vault.
	Accounts []string `yaml:"accounts,omitempty"`

	// Flow is the list of transactions to execute, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// VaultSetup configures genesis.
type VaultSetup struct {
	Supply uint64 `yaml:"supply"`
}

// FlowStep is one transaction.
type FlowStep struct {
	// Signer is the identity alias signing the transaction. Empty means
	// no signer at all.
	Signer string `yaml:"signer,omitempty"`

	// Invoke is the instruction name (e.g. "store_memory").
	Invoke string `yaml:"invoke"`

	// Args holds the instruction arguments.
	Args StepArgs `yaml:"args,omitempty"`

	// Expect specifies the expected receipt. If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// StepArgs are instruction arguments in scenario terms.
type StepArgs struct {
	// Content is hashed with SHA-256 to give the memory hash.
	Content string `yaml:"content,omitempty"`

	// Hash is a hex content hash, used when Content is empty.
	Hash string `yaml:"hash,omitempty"`

	// Recipient is the identity alias paid by reward_miner.
	Recipient string `yaml:"recipient,omitempty"`

	Amount uint64 `yaml:"amount,omitempty"`
}

// ExpectClause specifies the expected receipt.
type ExpectClause struct {
	// Status is "ok" or "failed".
	Status string `yaml:"status"`

	// ErrorCode is the expected program error code of a failed receipt.
	ErrorCode string `yaml:"error_code,omitempty"`

	// Result contains expected result fields, with addresses written as
	// aliases. Subset match.
	Result map[string]interface{} `yaml:"result,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type selects the assertion:
	// - "trace_contains": a step with Instruction (and Status/ErrorCode) ran
	// - "trace_order": Instructions ran in this relative order
	// - "trace_count": Instruction ran exactly Count times (filtered by Status)
	// - "memory": the record for Content is owned by Owner, or is Absent
	// - "balance": the token account of Account holds Amount
	Type string `yaml:"type"`

	Instruction  string   `yaml:"instruction,omitempty"`
	Status       string   `yaml:"status,omitempty"`
	ErrorCode    string   `yaml:"error_code,omitempty"`
	Instructions []string `yaml:"instructions,omitempty"`
	Count        int      `yaml:"count,omitempty"`

	Content string `yaml:"content,omitempty"`
	Owner   string `yaml:"owner,omitempty"`
	Absent  bool   `yaml:"absent,omitempty"`

	// Account is "vault" or an identity alias.
	Account string `yaml:"account,omitempty"`
	Amount  int64  `yaml:"amount,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertMemory        = "memory"
	AssertBalance       = "balance"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if len(s.Accounts) > 0 && s.Vault == nil {
		return fmt.Errorf("accounts require a vault")
	}

	for i, step := range s.Flow {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step FlowStep) error {
	name := ir.InstructionName(step.Invoke)
	if !name.Valid() {
		return fmt.Errorf("flow[%d]: unknown instruction %q", i, step.Invoke)
	}

	switch name {
	case ir.InstructionStoreMemory, ir.InstructionVerifyMemory:
		if (step.Args.Content == "") == (step.Args.Hash == "") {
			return fmt.Errorf("flow[%d]: exactly one of content or hash is required", i)
		}
		if step.Args.Hash != "" {
			if _, err := ir.ParseHash(step.Args.Hash); err != nil {
				return fmt.Errorf("flow[%d]: %w", i, err)
			}
		}
	case ir.InstructionRewardMiner:
		if step.Args.Recipient == "" {
			return fmt.Errorf("flow[%d]: recipient is required", i)
		}
	}

	if step.Expect != nil {
		switch step.Expect.Status {
		case string(ir.StatusOK):
			if step.Expect.ErrorCode != "" {
				return fmt.Errorf("flow[%d].expect: error_code needs status failed", i)
			}
		case string(ir.StatusFailed):
		default:
			return fmt.Errorf("flow[%d].expect: status must be ok or failed", i)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Instruction == "" {
			return fmt.Errorf("assertions[%d]: instruction is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Instructions) == 0 {
			return fmt.Errorf("assertions[%d]: instructions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Instruction == "" {
			return fmt.Errorf("assertions[%d]: instruction is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertMemory:
		if a.Content == "" {
			return fmt.Errorf("assertions[%d]: content is required for memory", index)
		}
		if (a.Owner == "") == !a.Absent {
			return fmt.Errorf("assertions[%d]: memory needs exactly one of owner or absent", index)
		}
	case AssertBalance:
		if a.Account == "" {
			return fmt.Errorf("assertions[%d]: account is required for balance", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

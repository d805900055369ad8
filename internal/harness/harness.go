package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/memorychain/internal/config"
	"github.com/roach88/memorychain/internal/derive"
	"github.com/roach88/memorychain/internal/engine"
	"github.com/roach88/memorychain/internal/genesis"
	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/program"
	"github.com/roach88/memorychain/internal/store"
	"github.com/roach88/memorychain/internal/testutil"
	"github.com/roach88/memorychain/internal/token"
)

// DefaultStartTime is the host time of the first transaction when a
// scenario does not set one.
const DefaultStartTime = 1_700_000_000

// Identity names reserved by the harness.
const (
	OperatorName = "operator"
	MintName     = "mint"
)

// Harness runs one scenario against a fresh in-memory ledger.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	program *program.Program
	mint    ir.Address
	aliases *aliases
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with the default
// program id, a deterministic clock and sequential request ids, so the
// trace is reproducible byte for byte. Every step goes through the real
// engine; expect clauses and assertions are checked against what it
// produced.
//
// A returned error means the scenario could not be executed at all.
// Expectation failures are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h, err := newHarness(ctx, st, scenario)
	if err != nil {
		return nil, err
	}

	if err := h.setup(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{
		Ctx:     ctx,
		Store:   st,
		Program: h.program,
		Resolve: h.tokenAccount,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(ctx context.Context, st *store.Store, scenario *Scenario) (*Harness, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg, err := config.Default()
	if err != nil {
		return nil, err
	}
	programID, err := cfg.ProgramAddress()
	if err != nil {
		return nil, err
	}
	scheme := derive.NewScheme(programID)
	prog := program.New(scheme, program.WithLogger(logger))

	start := scenario.StartTime
	if start == 0 {
		start = DefaultStartTime
	}
	eng, err := engine.New(ctx, st, prog,
		engine.WithTimeSource(testutil.NewDeterministicTime(start, 1)),
		engine.WithRequestIDGenerator(testutil.NewSequentialRequestIDs(scenario.Name)),
		engine.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	h := &Harness{
		store:   st,
		engine:  eng,
		program: prog,
		mint:    testutil.Address(MintName),
		aliases: newAliases(),
		logger:  logger,
	}

	authority, err := scheme.VaultAuthority()
	if err != nil {
		return nil, err
	}
	vault, err := derive.AssociatedTokenAddress(authority.Address, h.mint)
	if err != nil {
		return nil, err
	}
	h.aliases.add("program", programID)
	h.aliases.add("vault_authority", authority.Address)
	h.aliases.add(MintName, h.mint)
	h.aliases.add("vault", vault)
	h.aliases.add(OperatorName, testutil.Address(OperatorName))
	return h, nil
}

// setup runs genesis and opens the scenario's token accounts.
func (h *Harness) setup(ctx context.Context, scenario *Scenario) error {
	if scenario.Vault == nil {
		return nil
	}
	_, err := genesis.Apply(ctx, h.store, h.program.Scheme(), genesis.Params{
		Operator:      testutil.Address(OperatorName),
		Mint:          h.mint,
		Decimals:      genesis.DefaultDecimals,
		InitialSupply: scenario.Vault.Supply,
	}, h.logger)
	if err != nil {
		return err
	}

	tx, err := h.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ledger := token.New(tx)
	for _, name := range scenario.Accounts {
		if _, err := ledger.CreateAssociatedAccount(ctx, h.identity(name), h.mint); err != nil {
			return fmt.Errorf("open account for %s: %w", name, err)
		}
		if _, err := h.tokenAccount(name); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// identity returns the address of a named signer or recipient.
func (h *Harness) identity(name string) ir.Address {
	addr := testutil.Address(name)
	h.aliases.add(name, addr)
	return addr
}

// tokenAccount returns the reward token account of a named identity.
// "vault" names the vault's account.
func (h *Harness) tokenAccount(name string) (ir.Address, error) {
	if name == "vault" {
		return h.aliases.byName["vault"], nil
	}
	addr, err := derive.AssociatedTokenAddress(h.identity(name), h.mint)
	if err != nil {
		return ir.Address{}, err
	}
	h.aliases.add("account:"+name, addr)
	return addr, nil
}

// memoryHash resolves content or hex hash arguments, and registers an
// alias for the derived record address.
func (h *Harness) memoryHash(args StepArgs) (ir.Hash, error) {
	var (
		hash  ir.Hash
		label string
	)
	if args.Content != "" {
		hash = ir.SumHash([]byte(args.Content))
		label = args.Content
	} else {
		var err error
		if hash, err = ir.ParseHash(args.Hash); err != nil {
			return ir.Hash{}, err
		}
		label = hash.String()
	}

	d, err := h.program.Scheme().Memory(hash)
	if err != nil {
		return ir.Hash{}, err
	}
	h.aliases.add("memory:"+label, d.Address)
	return hash, nil
}

// instruction builds the engine instruction and the trace arguments for a step.
func (h *Harness) instruction(step FlowStep) (ir.Instruction, ir.IRObject, error) {
	switch name := ir.InstructionName(step.Invoke); name {
	case ir.InstructionInitialize:
		return ir.Initialize(), nil, nil

	case ir.InstructionStoreMemory, ir.InstructionVerifyMemory:
		hash, err := h.memoryHash(step.Args)
		if err != nil {
			return ir.Instruction{}, nil, err
		}
		args := ir.IRObject{"hash": ir.IRString(step.Args.Hash)}
		if step.Args.Content != "" {
			args = ir.IRObject{"content": ir.IRString(step.Args.Content)}
		}
		if name == ir.InstructionStoreMemory {
			return ir.StoreMemory(hash), args, nil
		}
		return ir.VerifyMemory(hash), args, nil

	case ir.InstructionRewardMiner:
		recipient := h.identity(step.Args.Recipient)
		if _, err := h.tokenAccount(step.Args.Recipient); err != nil {
			return ir.Instruction{}, nil, err
		}
		reward, err := h.program.RewardAccounts(h.mint, recipient, step.Args.Amount)
		if err != nil {
			return ir.Instruction{}, nil, err
		}
		return ir.RewardMiner(reward), ir.IRObject{
			"recipient": ir.IRString(step.Args.Recipient),
			"amount":    ir.IRInt(step.Args.Amount),
		}, nil
	}
	return ir.Instruction{}, nil, fmt.Errorf("unknown instruction %q", step.Invoke)
}

// executeFlow runs all flow steps through the engine and validates
// expect clauses.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		ix, args, err := h.instruction(step)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		var signers []ir.Address
		if step.Signer != "" {
			signers = append(signers, h.identity(step.Signer))
		}

		tx, err := h.engine.NewTransaction(ix, signers...)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}
		receipt, err := h.engine.Execute(ctx, tx)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		ev := h.traceEvent(step, args, receipt)
		result.AddTrace(ev)

		for _, msg := range checkExpect(step.Expect, ev) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Invoke, msg))
		}

		h.logger.Info("flow step completed",
			"step", i,
			"instruction", step.Invoke,
			"tx_id", receipt.TxID,
			"status", receipt.Status,
		)
	}
	return nil
}

// traceEvent renders a receipt in alias form.
func (h *Harness) traceEvent(step FlowStep, args ir.IRObject, r ir.Receipt) TraceEvent {
	ev := TraceEvent{
		Seq:         r.Seq,
		Timestamp:   r.Timestamp,
		Signer:      step.Signer,
		Instruction: string(r.Instruction.Name),
		Args:        args,
		Status:      string(r.Status),
		ErrorCode:   r.ErrorCode,
	}
	for _, l := range r.Logs {
		ev.Logs = append(ev.Logs, h.aliases.rewrite(l))
	}
	for _, e := range r.Events {
		ev.Events = append(ev.Events, ir.Event{Name: e.Name, Data: h.aliases.object(e.Data)})
	}
	if r.Result != nil {
		ev.Result = h.aliases.object(r.Result)
	}
	return ev
}

// checkExpect compares a step's outcome with its expect clause. A step
// without one must succeed.
func checkExpect(expect *ExpectClause, ev TraceEvent) []string {
	if expect == nil {
		if ev.Status != string(ir.StatusOK) {
			return []string{fmt.Sprintf("expected ok, got %s (%s)", ev.Status, ev.ErrorCode)}
		}
		return nil
	}

	var errs []string
	if ev.Status != expect.Status {
		errs = append(errs, fmt.Sprintf("expected status %s, got %s (%s)", expect.Status, ev.Status, ev.ErrorCode))
	}
	if expect.ErrorCode != "" && ev.ErrorCode != expect.ErrorCode {
		errs = append(errs, fmt.Sprintf("expected error_code %s, got %q", expect.ErrorCode, ev.ErrorCode))
	}

	keys := make([]string, 0, len(expect.Result))
	for k := range expect.Result {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		want, err := ir.ToIRValue(expect.Result[k])
		if err != nil {
			errs = append(errs, fmt.Sprintf("result.%s: %v", k, err))
			continue
		}
		got, ok := ev.Result[k]
		if !ok {
			errs = append(errs, fmt.Sprintf("result.%s missing", k))
			continue
		}
		if !reflect.DeepEqual(want, got) {
			errs = append(errs, fmt.Sprintf("result.%s: expected %v, got %v", k, want, got))
		}
	}
	return errs
}

// aliases maps addresses to scenario names so traces do not depend on
// key material.
type aliases struct {
	byName map[string]ir.Address
	byAddr map[ir.Address]string
}

func newAliases() *aliases {
	return &aliases{
		byName: make(map[string]ir.Address),
		byAddr: make(map[ir.Address]string),
	}
}

// add registers name for addr. The first name wins.
func (a *aliases) add(name string, addr ir.Address) {
	if _, ok := a.byAddr[addr]; ok {
		return
	}
	a.byAddr[addr] = name
	a.byName[name] = addr
}

// rewrite replaces every known base58 address in s with its alias.
func (a *aliases) rewrite(s string) string {
	addrs := make([]string, 0, len(a.byAddr))
	names := make(map[string]string, len(a.byAddr))
	for addr, name := range a.byAddr {
		enc := addr.String()
		addrs = append(addrs, enc)
		names[enc] = name
	}
	// Longest first, so no encoding is clobbered by a prefix of another.
	sort.Slice(addrs, func(i, j int) bool {
		if len(addrs[i]) != len(addrs[j]) {
			return len(addrs[i]) > len(addrs[j])
		}
		return addrs[i] < addrs[j]
	})
	for _, enc := range addrs {
		s = strings.ReplaceAll(s, enc, names[enc])
	}
	return s
}

func (a *aliases) value(v ir.IRValue) ir.IRValue {
	switch val := v.(type) {
	case ir.IRString:
		if addr, err := ir.ParseAddress(string(val)); err == nil {
			if name, ok := a.byAddr[addr]; ok {
				return ir.IRString(name)
			}
		}
		return val
	case ir.IRArray:
		out := make(ir.IRArray, len(val))
		for i, item := range val {
			out[i] = a.value(item)
		}
		return out
	case ir.IRObject:
		return a.object(val)
	}
	return v
}

func (a *aliases) object(obj ir.IRObject) ir.IRObject {
	out := make(ir.IRObject, len(obj))
	for k, v := range obj {
		out[k] = a.value(v)
	}
	return out
}

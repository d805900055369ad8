package program

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/memorychain/internal/derive"
	"github.com/roach88/memorychain/internal/ir"
)

// Program executes instructions for one deployed program id.
type Program struct {
	scheme derive.Scheme
	logger *slog.Logger
}

// Option configures a Program.
type Option func(*Program)

// WithLogger sets the logger used for per-instruction diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Program) {
		p.logger = l
	}
}

// New creates a Program deriving addresses under scheme.
func New(scheme derive.Scheme, opts ...Option) *Program {
	p := &Program{
		scheme: scheme,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID returns the program id.
func (p *Program) ID() ir.Address {
	return p.scheme.ProgramID()
}

// Scheme returns the program's derivation scheme.
func (p *Program) Scheme() derive.Scheme {
	return p.scheme
}

// Execute dispatches ix to its handler. The returned object is recorded as
// the receipt result.
func (p *Program) Execute(ctx context.Context, rt Runtime, ix ir.Instruction) (ir.IRObject, error) {
	if err := ix.Validate(); err != nil {
		return nil, newError(ErrCodeUnknownInstruction, err, "invalid instruction")
	}

	p.logger.Debug("executing instruction",
		"instruction", ix.Name,
		"seq", rt.Seq())

	switch ix.Name {
	case ir.InstructionInitialize:
		return p.Initialize(ctx, rt)
	case ir.InstructionStoreMemory:
		return p.StoreMemory(ctx, rt, ix.Memory.Hash)
	case ir.InstructionVerifyMemory:
		return p.VerifyMemory(ctx, rt, ix.Memory.Hash)
	case ir.InstructionRewardMiner:
		return p.RewardMiner(ctx, rt, *ix.Reward)
	}
	return nil, newError(ErrCodeUnknownInstruction, nil, "unknown instruction %q", ix.Name)
}

// payer returns the first verified signer.
func payer(rt Runtime) (ir.Address, error) {
	signers := rt.Signers()
	if len(signers) == 0 {
		return ir.Address{}, newError(ErrCodeMissingSignature, nil, "instruction requires a signer")
	}
	return signers[0], nil
}

// vaultAuthority derives the vault authority or fails with DERIVATION_FAILURE.
func (p *Program) vaultAuthority() (derive.Derivation, error) {
	d, err := p.scheme.VaultAuthority()
	if err != nil {
		return derive.Derivation{}, newError(ErrCodeDerivationFailure, err, "derive vault authority")
	}
	return d, nil
}

// Initialize checks that the program can act as its vault authority.
// It changes no state and may be repeated.
func (p *Program) Initialize(ctx context.Context, rt Runtime) (ir.IRObject, error) {
	if _, err := payer(rt); err != nil {
		return nil, err
	}
	authority, err := p.vaultAuthority()
	if err != nil {
		return nil, err
	}

	rt.Log(fmt.Sprintf("Program initialized: program_id=%s, vault_authority=%s", p.ID(), authority.Address))
	return ir.IRObject{
		"program_id":      ir.IRString(p.ID().String()),
		"vault_authority": ir.IRString(authority.Address.String()),
		"bump":            ir.IRInt(authority.Bump),
	}, nil
}

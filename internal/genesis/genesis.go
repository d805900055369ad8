// Package genesis sets up the reward vault of a fresh ledger.
//
// It creates the reward mint with the operator as mint authority, opens
// the vault's token account owned by the vault authority, and mints the
// initial supply into it. Re-running against a ledger that already has
// the mint changes nothing.
package genesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/memorychain/internal/derive"
	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/store"
	"github.com/roach88/memorychain/internal/token"
)

// Defaults match the original reward token: 6 decimals, 1,000 tokens.
const (
	DefaultDecimals      = 6
	DefaultInitialSupply = 1_000_000_000
)

// ErrMissingMint is returned when Params has no mint address.
var ErrMissingMint = errors.New("genesis: reward mint address is required")

// Params configures the vault.
type Params struct {
	Operator      ir.Address // Mint authority
	Mint          ir.Address
	Decimals      uint8
	InitialSupply uint64
}

// Result describes the vault after genesis.
type Result struct {
	Mint           ir.Address `json:"mint"`
	VaultAuthority ir.Address `json:"vault_authority"`
	AuthorityBump  uint8      `json:"authority_bump"`
	VaultAccount   ir.Address `json:"vault_account"`
	MintCreated    bool       `json:"mint_created"`
	VaultBalance   uint64     `json:"vault_balance"`
}

// Apply runs genesis in a single store transaction.
func Apply(ctx context.Context, s *store.Store, scheme derive.Scheme, p Params, logger *slog.Logger) (Result, error) {
	if p.Mint.IsZero() {
		return Result{}, ErrMissingMint
	}
	if logger == nil {
		logger = slog.Default()
	}

	authority, err := scheme.VaultAuthority()
	if err != nil {
		return Result{}, fmt.Errorf("derive vault authority: %w", err)
	}

	tx, err := s.Begin(ctx)
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback()

	ledger := token.New(tx)
	res := Result{
		Mint:           p.Mint,
		VaultAuthority: authority.Address,
		AuthorityBump:  authority.Bump,
	}

	err = ledger.CreateMint(ctx, p.Mint, p.Operator, p.Decimals)
	switch {
	case err == nil:
		res.MintCreated = true
		logger.Info("created reward mint", "mint", p.Mint, "authority", p.Operator, "decimals", p.Decimals)
	case errors.Is(err, store.ErrAlreadyExists):
		logger.Info("reward mint exists", "mint", p.Mint)
	default:
		return Result{}, err
	}

	res.VaultAccount, err = ledger.CreateAssociatedAccount(ctx, authority.Address, p.Mint)
	if err != nil {
		return Result{}, fmt.Errorf("create vault account: %w", err)
	}

	if res.MintCreated && p.InitialSupply > 0 {
		if err := ledger.MintTo(ctx, p.Mint, res.VaultAccount, p.InitialSupply, []ir.Address{p.Operator}); err != nil {
			return Result{}, fmt.Errorf("mint initial supply: %w", err)
		}
		logger.Info("minted initial supply", "vault_account", res.VaultAccount, "amount", p.InitialSupply)
	}

	res.VaultBalance, err = ledger.Balance(ctx, res.VaultAccount)
	if err != nil {
		return Result{}, err
	}

	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	return res, nil
}

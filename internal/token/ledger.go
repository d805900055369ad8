package token

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/roach88/memorychain/internal/derive"
	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/store"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOwnerMismatch     = errors.New("owner does not match")
	ErrMintMismatch      = errors.New("mint does not match")
	ErrAccountNotFound   = errors.New("token account not found")
	ErrMintNotFound      = errors.New("mint not found")
	ErrOverflow          = errors.New("amount overflows")
)

// State is the slice of a store transaction the ledger needs.
// *store.Tx satisfies it.
type State interface {
	GetMint(ctx context.Context, addr ir.Address) (store.Mint, error)
	CreateMint(ctx context.Context, m store.Mint) error
	SetMintSupply(ctx context.Context, mint ir.Address, supply int64) error
	GetTokenAccount(ctx context.Context, addr ir.Address) (store.TokenAccount, error)
	CreateTokenAccount(ctx context.Context, a store.TokenAccount) error
	SetTokenAmount(ctx context.Context, addr ir.Address, amount int64) error
}

// Ledger applies balance operations to one transaction's state.
type Ledger struct {
	state State
}

// New returns a ledger over state.
func New(state State) *Ledger {
	return &Ledger{state: state}
}

func toAmount(amount uint64) (int64, error) {
	if amount > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d", ErrOverflow, amount)
	}
	return int64(amount), nil
}

func addChecked(a, b int64) (int64, error) {
	if a > math.MaxInt64-b {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, b)
	}
	return a + b, nil
}

func hasSigner(signers []ir.Address, a ir.Address) bool {
	for _, s := range signers {
		if s == a {
			return true
		}
	}
	return false
}

// CreateMint creates a mint with zero supply.
// Returns store.ErrAlreadyExists if the address is taken.
func (l *Ledger) CreateMint(ctx context.Context, mint, authority ir.Address, decimals uint8) error {
	err := l.state.CreateMint(ctx, store.Mint{
		Address:   mint,
		Authority: authority,
		Decimals:  decimals,
	})
	if err != nil {
		return fmt.Errorf("create mint: %w", err)
	}
	return nil
}

// Mint reads a mint.
func (l *Ledger) Mint(ctx context.Context, mint ir.Address) (store.Mint, error) {
	m, err := l.state.GetMint(ctx, mint)
	if errors.Is(err, store.ErrNotFound) {
		return store.Mint{}, fmt.Errorf("%w: %s", ErrMintNotFound, mint)
	}
	return m, err
}

// Account reads a token account.
func (l *Ledger) Account(ctx context.Context, addr ir.Address) (store.TokenAccount, error) {
	a, err := l.state.GetTokenAccount(ctx, addr)
	if errors.Is(err, store.ErrNotFound) {
		return store.TokenAccount{}, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return a, err
}

// CreateAssociatedAccount creates owner's canonical token account for mint
// and returns its address. If the account already exists with the same
// owner and mint it is returned unchanged.
func (l *Ledger) CreateAssociatedAccount(ctx context.Context, owner, mint ir.Address) (ir.Address, error) {
	if _, err := l.Mint(ctx, mint); err != nil {
		return ir.Address{}, err
	}

	addr, err := derive.AssociatedTokenAddress(owner, mint)
	if err != nil {
		return ir.Address{}, fmt.Errorf("associated token address: %w", err)
	}

	existing, err := l.state.GetTokenAccount(ctx, addr)
	switch {
	case err == nil:
		if existing.Owner != owner {
			return ir.Address{}, fmt.Errorf("%w: account %s", ErrOwnerMismatch, addr)
		}
		if existing.Mint != mint {
			return ir.Address{}, fmt.Errorf("%w: account %s", ErrMintMismatch, addr)
		}
		return addr, nil
	case !errors.Is(err, store.ErrNotFound):
		return ir.Address{}, err
	}

	if err := l.state.CreateTokenAccount(ctx, store.TokenAccount{Address: addr, Mint: mint, Owner: owner}); err != nil {
		return ir.Address{}, fmt.Errorf("create associated account: %w", err)
	}
	return addr, nil
}

// MintTo increases dest's balance and the mint's supply.
// The mint authority must be among signers.
func (l *Ledger) MintTo(ctx context.Context, mint, dest ir.Address, amount uint64, signers []ir.Address) error {
	n, err := toAmount(amount)
	if err != nil {
		return err
	}

	m, err := l.Mint(ctx, mint)
	if err != nil {
		return err
	}
	if !hasSigner(signers, m.Authority) {
		return fmt.Errorf("%w: mint authority %s did not sign", ErrOwnerMismatch, m.Authority)
	}

	acct, err := l.Account(ctx, dest)
	if err != nil {
		return err
	}
	if acct.Mint != mint {
		return fmt.Errorf("%w: account %s holds %s", ErrMintMismatch, dest, acct.Mint)
	}

	supply, err := addChecked(m.Supply, n)
	if err != nil {
		return err
	}
	balance, err := addChecked(acct.Amount, n)
	if err != nil {
		return err
	}

	if err := l.state.SetMintSupply(ctx, mint, supply); err != nil {
		return err
	}
	return l.state.SetTokenAmount(ctx, dest, balance)
}

// Transfer moves amount from one token account to another of the same mint.
// The source owner must be among signers.
func (l *Ledger) Transfer(ctx context.Context, from, to ir.Address, amount uint64, signers []ir.Address) error {
	n, err := toAmount(amount)
	if err != nil {
		return err
	}

	src, err := l.Account(ctx, from)
	if err != nil {
		return err
	}
	dst, err := l.Account(ctx, to)
	if err != nil {
		return err
	}

	if src.Mint != dst.Mint {
		return fmt.Errorf("%w: %s -> %s", ErrMintMismatch, src.Mint, dst.Mint)
	}
	if !hasSigner(signers, src.Owner) {
		return fmt.Errorf("%w: source owner %s did not sign", ErrOwnerMismatch, src.Owner)
	}
	if src.Amount < n {
		return fmt.Errorf("%w: balance %d, need %d", ErrInsufficientFunds, src.Amount, n)
	}
	if from == to {
		return nil
	}

	balance, err := addChecked(dst.Amount, n)
	if err != nil {
		return err
	}
	if err := l.state.SetTokenAmount(ctx, from, src.Amount-n); err != nil {
		return err
	}
	return l.state.SetTokenAmount(ctx, to, balance)
}

// Balance returns the amount held by a token account.
func (l *Ledger) Balance(ctx context.Context, addr ir.Address) (uint64, error) {
	acct, err := l.Account(ctx, addr)
	if err != nil {
		return 0, err
	}
	return uint64(acct.Amount), nil
}

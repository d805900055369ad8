package program

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/roach88/memorychain/internal/derive"
	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/store"
	"github.com/roach88/memorychain/internal/token"
)

// EventMinerRewarded is emitted after a successful reward transfer.
const EventMinerRewarded = "MinerRewarded"

// RewardMiner transfers args.Amount from the vault to the recipient's token
// account, signing as the vault authority. Any failure leaves every balance
// unchanged.
func (p *Program) RewardMiner(ctx context.Context, rt Runtime, args ir.RewardArgs) (ir.IRObject, error) {
	if _, err := payer(rt); err != nil {
		return nil, err
	}
	if args.Amount == 0 || args.Amount > math.MaxInt64 {
		return nil, newError(ErrCodeInvalidAmount, nil, "reward amount %d out of range", args.Amount)
	}

	authority, err := p.vaultAuthority()
	if err != nil {
		return nil, err
	}

	accounts := rt.Accounts()
	vault, err := loadTokenAccount(ctx, accounts, args.VaultAccount, "vault")
	if err != nil {
		return nil, err
	}
	if vault.Owner != authority.Address {
		return nil, newError(ErrCodeAccountMismatch, nil,
			"vault account %s is owned by %s, not the vault authority %s", vault.Address, vault.Owner, authority.Address)
	}
	if vault.Mint != args.Mint {
		return nil, newError(ErrCodeAccountMismatch, nil,
			"vault account %s holds mint %s, not %s", vault.Address, vault.Mint, args.Mint)
	}

	recipient, err := loadTokenAccount(ctx, accounts, args.RecipientAccount, "recipient")
	if err != nil {
		return nil, err
	}
	if recipient.Owner != args.Recipient {
		return nil, newError(ErrCodeAccountMismatch, nil,
			"recipient account %s is owned by %s, not %s", recipient.Address, recipient.Owner, args.Recipient)
	}
	if recipient.Mint != args.Mint {
		return nil, newError(ErrCodeAccountMismatch, nil,
			"recipient account %s holds mint %s, not %s", recipient.Address, recipient.Mint, args.Mint)
	}

	rt.Log(fmt.Sprintf("Reward miner invoked; amount=%d", args.Amount))

	err = rt.InvokeSigned(ctx, Transfer{
		From:   vault.Address,
		To:     recipient.Address,
		Amount: args.Amount,
	}, authority, p.scheme.AuthoritySeeds())
	if err != nil {
		return nil, transferError(err)
	}

	rt.Emit(EventMinerRewarded, ir.IRObject{
		"recipient": ir.IRString(args.Recipient.String()),
		"amount":    ir.IRInt(args.Amount),
	})
	return ir.IRObject{
		"recipient": ir.IRString(args.Recipient.String()),
		"amount":    ir.IRInt(args.Amount),
		"vault":     ir.IRString(vault.Address.String()),
	}, nil
}

func loadTokenAccount(ctx context.Context, accounts Accounts, addr ir.Address, role string) (store.TokenAccount, error) {
	acct, err := accounts.GetTokenAccount(ctx, addr)
	if errors.Is(err, store.ErrNotFound) {
		return store.TokenAccount{}, newError(ErrCodeAccountMismatch, err, "%s token account %s does not exist", role, addr)
	}
	if err != nil {
		return store.TokenAccount{}, fmt.Errorf("load %s token account: %w", role, err)
	}
	return acct, nil
}

// transferError maps ledger and capability failures to program errors.
func transferError(err error) error {
	switch {
	case errors.Is(err, token.ErrInsufficientFunds):
		return newError(ErrCodeInsufficientFunds, err, "vault cannot cover reward")
	case errors.Is(err, token.ErrOwnerMismatch),
		errors.Is(err, token.ErrMintMismatch),
		errors.Is(err, token.ErrAccountNotFound):
		return newError(ErrCodeAccountMismatch, err, "transfer rejected")
	case errors.Is(err, token.ErrOverflow):
		return newError(ErrCodeInvalidAmount, err, "transfer overflows")
	case errors.Is(err, derive.ErrProofMismatch),
		errors.Is(err, derive.ErrOnCurve),
		errors.Is(err, derive.ErrNoViableBump):
		return newError(ErrCodeDerivationFailure, err, "vault authority proof rejected")
	}
	return fmt.Errorf("transfer: %w", err)
}

// RewardAccounts fills in the token accounts for a reward of amount of mint
// to recipient: the vault authority's and the recipient's associated accounts.
func (p *Program) RewardAccounts(mint, recipient ir.Address, amount uint64) (ir.RewardArgs, error) {
	authority, err := p.vaultAuthority()
	if err != nil {
		return ir.RewardArgs{}, err
	}
	vault, err := derive.AssociatedTokenAddress(authority.Address, mint)
	if err != nil {
		return ir.RewardArgs{}, fmt.Errorf("vault token account: %w", err)
	}
	dest, err := derive.AssociatedTokenAddress(recipient, mint)
	if err != nil {
		return ir.RewardArgs{}, fmt.Errorf("recipient token account: %w", err)
	}
	return ir.RewardArgs{
		Amount:           amount,
		Recipient:        recipient,
		VaultAccount:     vault,
		RecipientAccount: dest,
		Mint:             mint,
	}, nil
}

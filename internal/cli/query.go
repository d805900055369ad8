package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/memorychain/internal/derive"
	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/program"
	"github.com/roach88/memorychain/internal/store"
)

type memoryResult struct {
	Address     ir.Address `json:"address"`
	ContentHash ir.Hash    `json:"content_hash"`
	Owner       ir.Address `json:"owner"`
	CreatedAt   int64      `json:"created_at"`
}

func (r memoryResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Address:    %s\nHash:       %s\nOwner:      %s\nCreated at: %d\n",
		r.Address, r.ContentHash, r.Owner, r.CreatedAt)
	return err
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <hash>",
		Short: "Read a stored record without a transaction",
		Long: `Read and check the record stored for a content hash. Unlike verify this
executes nothing and needs no keypair.

Examples:
  memorychain get 2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := ir.ParseHash(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid hash", err)
			}

			s, err := rootOpts.openSession(cmd.Context(), cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			record, err := s.program.LoadMemory(cmd.Context(), s.store, h)
			if err != nil {
				if program.CodeOf(err) != "" {
					return WrapExitError(ExitFailure, "no valid record", err)
				}
				return WrapExitError(ExitCommandError, "failed to read record", err)
			}
			d, err := s.program.Scheme().Memory(h)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to derive address", err)
			}

			return rootOpts.output(cmd).Success(memoryResult{
				Address:     d.Address,
				ContentHash: record.ContentHash,
				Owner:       record.Owner,
				CreatedAt:   record.CreatedAt,
			})
		},
	}
}

type derivationResult struct {
	Address ir.Address `json:"address"`
	Bump    *uint8     `json:"bump,omitempty"`
}

func (r derivationResult) WriteText(w io.Writer) error {
	if r.Bump == nil {
		_, err := fmt.Fprintf(w, "Address: %s\n", r.Address)
		return err
	}
	_, err := fmt.Fprintf(w, "Address: %s\nBump:    %d\n", r.Address, *r.Bump)
	return err
}

func derivationOf(d derive.Derivation) derivationResult {
	bump := d.Bump
	return derivationResult{Address: d.Address, Bump: &bump}
}

// NewDeriveCommand creates the derive command and its subcommands.
// Derivation is pure: only the program id from the config is used.
func NewDeriveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Compute derived addresses",
		Long: `Compute program-derived addresses offline.

Examples:
  memorychain derive memory 2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824
  memorychain derive authority
  memorychain derive account <owner> <mint>`,
	}

	scheme := func() (derive.Scheme, error) {
		cfg, err := rootOpts.loadConfig()
		if err != nil {
			return derive.Scheme{}, err
		}
		id, err := cfg.ProgramAddress()
		if err != nil {
			return derive.Scheme{}, WrapExitError(ExitCommandError, "invalid config", err)
		}
		return derive.NewScheme(id), nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "memory <hash>",
		Short: "Address of the record for a content hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := ir.ParseHash(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid hash", err)
			}
			sc, err := scheme()
			if err != nil {
				return err
			}
			d, err := sc.Memory(h)
			if err != nil {
				return WrapExitError(ExitFailure, "derivation failed", err)
			}
			return rootOpts.output(cmd).Success(derivationOf(d))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "authority",
		Short: "Address of the vault authority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scheme()
			if err != nil {
				return err
			}
			d, err := sc.VaultAuthority()
			if err != nil {
				return WrapExitError(ExitFailure, "derivation failed", err)
			}
			return rootOpts.output(cmd).Success(derivationOf(d))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "account <owner> <mint>",
		Short: "Associated token account of owner for mint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := ir.ParseAddress(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid owner", err)
			}
			mint, err := ir.ParseAddress(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid mint", err)
			}
			addr, err := derive.AssociatedTokenAddress(owner, mint)
			if err != nil {
				return WrapExitError(ExitFailure, "derivation failed", err)
			}
			return rootOpts.output(cmd).Success(derivationResult{Address: addr})
		},
	})

	return cmd
}

type balanceResult struct {
	Owner   ir.Address `json:"owner"`
	Mint    ir.Address `json:"mint"`
	Account ir.Address `json:"account"`
	Exists  bool       `json:"exists"`
	Amount  int64      `json:"amount"`
}

func (r balanceResult) WriteText(w io.Writer) error {
	state := ""
	if !r.Exists {
		state = " (account not opened)"
	}
	_, err := fmt.Fprintf(w, "Owner:   %s\nAccount: %s%s\nBalance: %d\n", r.Owner, r.Account, state, r.Amount)
	return err
}

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance [owner]",
		Short: "Show a reward token balance",
		Long: `Show the reward token balance of owner's associated account. Without an
owner the --keypair signer is used.

Examples:
  memorychain balance --keypair miner.json
  memorychain balance <owner>`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var owner ir.Address
			if len(args) == 1 {
				addr, err := ir.ParseAddress(args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid owner", err)
				}
				owner = addr
			} else {
				key, err := rootOpts.signer()
				if err != nil {
					return err
				}
				owner = AddressOf(key)
			}

			s, err := rootOpts.openSession(cmd.Context(), cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			mint, err := s.mint()
			if err != nil {
				return err
			}
			account, err := derive.AssociatedTokenAddress(owner, mint)
			if err != nil {
				return WrapExitError(ExitFailure, "derivation failed", err)
			}

			res := balanceResult{Owner: owner, Mint: mint, Account: account}
			acct, err := s.store.GetTokenAccount(cmd.Context(), account)
			switch {
			case errors.Is(err, store.ErrNotFound):
			case err != nil:
				return WrapExitError(ExitCommandError, "failed to read account", err)
			default:
				res.Exists = true
				res.Amount = acct.Amount
			}
			return rootOpts.output(cmd).Success(res)
		},
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/memorychain/internal/blob"
	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/token"
)

// NewInitializeCommand creates the initialize command.
func NewInitializeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "initialize",
		Short: "Check that the program can sign as its vault authority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstruction(rootOpts, cmd, func(context.Context, *session) (ir.Instruction, error) {
				return ir.Initialize(), nil
			})
		},
	}
}

// runInstruction executes the instruction built by build as the --keypair
// signer and reports the receipt.
func runInstruction(opts *RootOptions, cmd *cobra.Command, build func(context.Context, *session) (ir.Instruction, error)) error {
	ctx := cmd.Context()

	key, err := opts.signer()
	if err != nil {
		return err
	}
	s, err := opts.openSession(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer s.Close()

	ix, err := build(ctx, s)
	if err != nil {
		return err
	}
	receipt, err := s.execute(ctx, ix, key)
	if err != nil {
		return err
	}
	return opts.report(cmd, receipt)
}

// contentHash resolves the hash argument or the hash of --file.
func contentHash(args []string, file string) (ir.Hash, []byte, error) {
	switch {
	case file != "" && len(args) > 0:
		return ir.Hash{}, nil, NewExitError(ExitCommandError, "give either a hash or --file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return ir.Hash{}, nil, WrapExitError(ExitCommandError, "failed to read file", err)
		}
		return ir.SumHash(data), data, nil
	case len(args) == 1:
		h, err := ir.ParseHash(args[0])
		if err != nil {
			return ir.Hash{}, nil, WrapExitError(ExitCommandError, "invalid hash", err)
		}
		return h, nil, nil
	}
	return ir.Hash{}, nil, NewExitError(ExitCommandError, "a hash or --file is required")
}

// NewStoreCommand creates the store command.
func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "store [hash]",
		Short: "Store a content hash",
		Long: `Store a 32-byte content hash (hex) at its derived address, owned by the
--keypair signer. With --file the hash is the SHA-256 of the file, and the
file is uploaded to the content archive when one is configured.

Examples:
  memorychain store 2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824 --keypair miner.json
  memorychain store --file notes.txt --keypair miner.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, data, err := contentHash(args, file)
			if err != nil {
				return err
			}
			return runInstruction(rootOpts, cmd, func(ctx context.Context, s *session) (ir.Instruction, error) {
				if data == nil {
					return ir.StoreMemory(h), nil
				}
				archive, err := s.archive(ctx)
				if err != nil {
					return ir.Instruction{}, err
				}
				if archive != nil {
					// Content-addressed: archiving is harmless even if the store fails.
					if err := archive.Put(ctx, h, data); err != nil {
						return ir.Instruction{}, WrapExitError(ExitCommandError, "failed to archive content", err)
					}
					s.logger.Info("archived content", "hash", h, "size", len(data))
				}
				return ir.StoreMemory(h), nil
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "hash this file instead of taking a hash argument")
	return cmd
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		file  string
		fetch bool
	)

	cmd := &cobra.Command{
		Use:   "verify [hash]",
		Short: "Verify that a content hash is stored",
		Long: `Verify the record stored for a content hash and report its owner and
timestamp. With --fetch the archived content is downloaded and re-hashed
first.

Exit codes:
  0 - Record verified
  1 - No record, or the record does not match
  2 - Command error

Examples:
  memorychain verify 2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824 --keypair auditor.json
  memorychain verify --file notes.txt --fetch --keypair auditor.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, _, err := contentHash(args, file)
			if err != nil {
				return err
			}
			return runInstruction(rootOpts, cmd, func(ctx context.Context, s *session) (ir.Instruction, error) {
				if fetch {
					if err := fetchContent(ctx, s, h); err != nil {
						return ir.Instruction{}, err
					}
				}
				return ir.VerifyMemory(h), nil
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "hash this file instead of taking a hash argument")
	cmd.Flags().BoolVar(&fetch, "fetch", false, "download and re-hash the archived content")
	return cmd
}

func fetchContent(ctx context.Context, s *session, h ir.Hash) error {
	archive, err := s.archive(ctx)
	if err != nil {
		return err
	}
	if archive == nil {
		return NewExitError(ExitCommandError, "--fetch needs archive.minio in the config")
	}

	data, err := archive.Get(ctx, h)
	switch {
	case errors.Is(err, blob.ErrNotFound):
		return WrapExitError(ExitFailure, "content not archived", err)
	case errors.Is(err, blob.ErrHashMismatch):
		return WrapExitError(ExitFailure, "archived content is corrupt", err)
	case err != nil:
		return WrapExitError(ExitCommandError, "failed to fetch content", err)
	}
	s.logger.Info("archived content matches hash", "hash", h, "size", len(data))
	return nil
}

// NewRewardCommand creates the reward command.
func NewRewardCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reward <recipient> <amount>",
		Short: "Pay a miner from the vault",
		Long: `Transfer amount base units of the reward mint from the vault to the
recipient's associated token account, which is opened if missing. The
vault authority signs; the --keypair signer only pays for the request.

Examples:
  memorychain reward <miner-address> 100 --keypair operator.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipient, err := ir.ParseAddress(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid recipient", err)
			}
			amount, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid amount", err)
			}

			return runInstruction(rootOpts, cmd, func(ctx context.Context, s *session) (ir.Instruction, error) {
				mint, err := s.mint()
				if err != nil {
					return ir.Instruction{}, err
				}
				reward, err := s.program.RewardAccounts(mint, recipient, amount)
				if err != nil {
					return ir.Instruction{}, WrapExitError(ExitCommandError, "failed to derive reward accounts", err)
				}
				if err := openTokenAccount(ctx, s, recipient, mint); err != nil {
					return ir.Instruction{}, err
				}
				return ir.RewardMiner(reward), nil
			})
		},
	}
	return cmd
}

// openTokenAccount opens owner's associated account for mint if missing.
func openTokenAccount(ctx context.Context, s *session, owner, mint ir.Address) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open token account", err)
	}
	defer tx.Rollback()

	addr, err := token.New(tx).CreateAssociatedAccount(ctx, owner, mint)
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("failed to open token account for %s", owner), err)
	}
	if err := tx.Commit(); err != nil {
		return WrapExitError(ExitCommandError, "failed to open token account", err)
	}
	s.logger.Debug("token account ready", "owner", owner, "account", addr)
	return nil
}

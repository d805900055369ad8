package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/memorychain/internal/engine"
	"github.com/roach88/memorychain/internal/genesis"
	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/program"
	"github.com/roach88/memorychain/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Target string // optional path for the rebuilt ledger
}

// replayReport is the replay command's result.
type replayReport struct {
	engine.ReplayResult
	Target string `json:"target,omitempty"`
}

func (r replayReport) WriteText(w io.Writer) error {
	if r.OK() {
		_, err := fmt.Fprintf(w, "Replayed %d transactions: all receipts reproduced.\n", r.Replayed)
		return err
	}
	fmt.Fprintf(w, "Replayed %d transactions: %d mismatches\n", r.Replayed, len(r.Mismatches))
	for _, m := range r.Mismatches {
		fmt.Fprintf(w, "  seq %d tx %s: %s\n", m.Seq, m.TxID, m.Reason)
	}
	return nil
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-execute the transaction log and compare receipts",
		Long: `Rebuild the ledger from its genesis state by re-executing every logged
transaction at its recorded time, and compare each receipt hash with the
original.

The rebuilt ledger starts from the same vault (mint, authority, supply)
and the same empty recipient token accounts as the original.

Exit codes:
  0 - Every receipt reproduced
  1 - Mismatches found
  2 - Command error

Examples:
  memorychain replay --db ./memorychain.db
  memorychain replay --target ./rebuilt.db --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Target, "target", "", "SQLite path for the rebuilt ledger (default: temporary)")
	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	src, err := opts.openSession(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer src.Close()

	targetPath := opts.Target
	if targetPath == "" {
		dir, err := os.MkdirTemp("", "memorychain-replay-")
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create temp dir", err)
		}
		defer os.RemoveAll(dir)
		targetPath = filepath.Join(dir, "replay.db")
	} else if _, err := os.Stat(targetPath); err == nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("target %s already exists", targetPath))
	}

	target, err := store.Open(targetPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open target", err)
	}
	defer target.Close()

	receipts, err := src.store.ReadReceipts(ctx, 0, 0)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read receipts", err)
	}
	if err := seedTarget(ctx, src, target, receipts); err != nil {
		return WrapExitError(ExitCommandError, "failed to prepare target", err)
	}

	prog := program.New(src.program.Scheme(), program.WithLogger(src.logger))
	e, err := engine.New(ctx, target, prog, engine.WithLogger(src.logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start engine", err)
	}

	result, err := engine.Replay(ctx, e, receipts)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	report := replayReport{ReplayResult: result}
	if opts.Target != "" {
		report.Target = opts.Target
	}
	if report.Mismatches == nil {
		report.Mismatches = []engine.ReplayMismatch{}
	}

	out := opts.output(cmd)
	if result.OK() {
		return out.Success(report)
	}
	if err := out.Error("REPLAY_MISMATCH", fmt.Sprintf("%d receipts differ", len(result.Mismatches)), report); err != nil {
		return err
	}
	return &ExitError{Code: ExitFailure, Message: "replay mismatch", Reported: true}
}

// seedTarget recreates the state the log assumes but did not produce: the
// vault from the source's mint, and empty token accounts for every reward
// recipient account of that mint that exists on the source.
func seedTarget(ctx context.Context, src *session, target *store.Store, receipts []ir.Receipt) error {
	mintAddr, ok, err := src.cfg.MintAddress()
	if err != nil {
		return err
	}
	if ok {
		mint, err := src.store.GetMint(ctx, mintAddr)
		switch {
		case errors.Is(err, store.ErrNotFound):
			ok = false
		case err != nil:
			return err
		}
		if ok {
			if _, err := genesis.Apply(ctx, target, src.program.Scheme(), genesis.Params{
				Operator:      mint.Authority,
				Mint:          mint.Address,
				Decimals:      mint.Decimals,
				InitialSupply: uint64(mint.Supply),
			}, src.logger); err != nil {
				return fmt.Errorf("genesis: %w", err)
			}
		}
	}

	tx, err := target.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rc := range receipts {
		if rc.Instruction.Reward == nil {
			continue
		}
		acct, err := src.store.GetTokenAccount(ctx, rc.Instruction.Reward.RecipientAccount)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if !ok || acct.Mint != mintAddr {
			// Only the vault's mint exists on the target.
			continue
		}
		acct.Amount = 0
		if err := tx.CreateTokenAccount(ctx, acct); err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			return fmt.Errorf("recipient account %s: %w", acct.Address, err)
		}
	}
	return tx.Commit()
}

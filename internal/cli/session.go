package cli

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/roach88/memorychain/internal/blob"
	"github.com/roach88/memorychain/internal/config"
	"github.com/roach88/memorychain/internal/derive"
	"github.com/roach88/memorychain/internal/engine"
	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/program"
	"github.com/roach88/memorychain/internal/store"
)

// session is an open ledger for the duration of one command.
type session struct {
	cfg     *config.Config
	store   *store.Store
	program *program.Program
	engine  *engine.Engine
	logger  *slog.Logger
	lock    *flock.Flock // nil for read-only sessions and Postgres
}

// loadConfig reads --config and applies --db.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	return cfg, nil
}

// openSession opens the configured ledger. Writable sessions on SQLite
// hold an exclusive lock file next to the database until Close, so only
// one process executes transactions at a time.
func (o *RootOptions) openSession(ctx context.Context, cmd *cobra.Command, writable bool) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := o.logger(cmd.ErrOrStderr(), cfg)

	programID, err := cfg.ProgramAddress()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}

	s := &session{cfg: cfg, logger: logger}

	if writable && store.DialectFor(cfg.Database) == store.DialectSQLite {
		s.lock = flock.New(cfg.Database + ".lock")
		locked, err := s.lock.TryLock()
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to lock database", err)
		}
		if !locked {
			return nil, NewExitError(ExitCommandError,
				fmt.Sprintf("database %s is in use by another process", cfg.Database))
		}
		logger.Debug("database locked", "path", s.lock.Path())
	}

	s.store, err = store.Open(cfg.Database)
	if err != nil {
		s.unlock()
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	s.program = program.New(derive.NewScheme(programID), program.WithLogger(logger))
	s.engine, err = engine.New(ctx, s.store, s.program, engine.WithLogger(logger))
	if err != nil {
		s.Close()
		return nil, WrapExitError(ExitCommandError, "failed to start engine", err)
	}
	return s, nil
}

// Close releases the store and the lock.
func (s *session) Close() error {
	var err error
	if s.store != nil {
		err = s.store.Close()
	}
	s.unlock()
	return err
}

func (s *session) unlock() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release database lock", "path", s.lock.Path(), "error", err)
	}
}

// mint returns the configured reward mint.
func (s *session) mint() (ir.Address, error) {
	mint, ok, err := s.cfg.MintAddress()
	if err != nil {
		return ir.Address{}, WrapExitError(ExitCommandError, "invalid config", err)
	}
	if !ok {
		return ir.Address{}, NewExitError(ExitCommandError,
			"reward.mint is not configured; run init-vault first")
	}
	return mint, nil
}

// archive connects to the configured content archive, or returns nil.
func (s *session) archive(ctx context.Context) (blob.Archive, error) {
	mc := s.cfg.MinioArchive()
	if mc == nil {
		return nil, nil
	}
	a, err := blob.NewMinioArchive(ctx, *mc, s.logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to connect to archive", err)
	}
	return a, nil
}

// execute signs ix with key and runs it on the engine.
func (s *session) execute(ctx context.Context, ix ir.Instruction, key ed25519.PrivateKey) (ir.Receipt, error) {
	tx, err := s.engine.NewTransaction(ix, AddressOf(key))
	if err != nil {
		return ir.Receipt{}, WrapExitError(ExitCommandError, "failed to build transaction", err)
	}
	stx, err := engine.Sign(tx, key)
	if err != nil {
		return ir.Receipt{}, WrapExitError(ExitCommandError, "failed to sign transaction", err)
	}

	receipt, err := s.engine.ExecuteSigned(ctx, stx)
	if err != nil {
		var re *engine.RuntimeError
		if errors.As(err, &re) {
			return ir.Receipt{}, WrapExitError(ExitFailure, "transaction rejected", err)
		}
		return ir.Receipt{}, WrapExitError(ExitCommandError, "failed to execute transaction", err)
	}
	return receipt, nil
}

// report writes receipt. A failed receipt is written as an error and
// yields a reported ExitFailure.
func (o *RootOptions) report(cmd *cobra.Command, receipt ir.Receipt) error {
	out := o.output(cmd)
	view := receiptView{receipt}
	if receipt.OK() {
		return out.Success(view)
	}
	if err := out.Error(receipt.ErrorCode, receipt.Error, view); err != nil {
		return err
	}
	return &ExitError{Code: ExitFailure, Message: receipt.Error, Reported: true}
}

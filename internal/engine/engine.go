package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/program"
	"github.com/roach88/memorychain/internal/store"
)

// Engine is the single-writer transaction executor.
//
// Thread-safety model:
//   - Execute(): safe from any goroutine, serialized internally
//   - Submit(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - NewRequestID(): safe from any goroutine
type Engine struct {
	store      *store.Store
	program    *program.Program
	clock      *Clock
	time       TimeSource
	queue      *submissionQueue
	requestIDs RequestIDGenerator
	logger     *slog.Logger

	mu sync.Mutex // Held for the whole of each execution
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithTimeSource sets the host time oracle. Default: SystemTime.
func WithTimeSource(ts TimeSource) EngineOption {
	return func(e *Engine) {
		e.time = ts
	}
}

// WithRequestIDGenerator sets the request id generator. Default: UUIDv7Generator.
func WithRequestIDGenerator(g RequestIDGenerator) EngineOption {
	return func(e *Engine) {
		e.requestIDs = g
	}
}

// WithLogger sets the engine logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine executing prog against s.
// The logical clock resumes from the last seq in the store.
func New(ctx context.Context, s *store.Store, prog *program.Program, opts ...EngineOption) (*Engine, error) {
	last, err := s.LastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume clock: %w", err)
	}

	e := &Engine{
		store:      s,
		program:    prog,
		clock:      NewClockAt(last),
		time:       SystemTime{},
		queue:      newSubmissionQueue(),
		requestIDs: UUIDv7Generator{},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Program returns the program the engine executes.
func (e *Engine) Program() *program.Program {
	return e.program
}

// Store returns the engine's store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Seq returns the seq of the last committed receipt.
func (e *Engine) Seq() int64 {
	return e.clock.Current()
}

// NewRequestID generates a request id for a new transaction.
func (e *Engine) NewRequestID() string {
	return e.requestIDs.Generate()
}

// NewTransaction builds a transaction with a fresh request id.
func (e *Engine) NewTransaction(ix ir.Instruction, signers ...ir.Address) (ir.Transaction, error) {
	return ir.NewTransaction(e.NewRequestID(), ix, signers...)
}

// ExecuteSigned verifies the signatures of stx, then executes it.
func (e *Engine) ExecuteSigned(ctx context.Context, stx ir.SignedTransaction) (ir.Receipt, error) {
	tx, err := Verify(stx)
	if err != nil {
		return ir.Receipt{}, err
	}
	return e.Execute(ctx, tx)
}

// Execute runs one transaction whose signers were already authenticated.
//
// A program failure is not an error: it produces a receipt with status
// failed and the program's error code, and no other state changes.
// Errors are returned only for rejected transactions (*RuntimeError) and
// storage failures.
func (e *Engine) Execute(ctx context.Context, tx ir.Transaction) (ir.Receipt, error) {
	return e.execute(ctx, tx, e.time)
}

func (e *Engine) execute(ctx context.Context, tx ir.Transaction, ts TimeSource) (ir.Receipt, error) {
	if err := checkID(tx); err != nil {
		return ir.Receipt{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	seen, err := e.store.HasTransaction(ctx, tx.ID)
	if err != nil {
		return ir.Receipt{}, fmt.Errorf("check duplicate %s: %w", tx.ID, err)
	}
	if seen {
		e.logger.Debug("rejecting duplicate transaction", "tx_id", tx.ID)
		return ir.Receipt{}, NewDuplicateError(tx.ID)
	}

	receipt := ir.Receipt{
		TxID:        tx.ID,
		Seq:         e.clock.Peek(),
		Timestamp:   ts.Now(),
		RequestID:   tx.RequestID,
		Signers:     tx.Signers,
		Instruction: tx.Instruction,
		Status:      ir.StatusOK,
	}

	e.logger.Debug("executing transaction",
		"tx_id", tx.ID,
		"seq", receipt.Seq,
		"instruction", tx.Instruction.Name,
	)

	sqlTx, err := e.store.Begin(ctx)
	if err != nil {
		return ir.Receipt{}, err
	}
	defer sqlTx.Rollback()

	rt := newTxRuntime(sqlTx, e.program.ID(), receipt)
	result, execErr := e.program.Execute(ctx, rt, tx.Instruction)
	receipt.Logs = rt.logs

	if execErr == nil {
		receipt.Events = rt.events
		receipt.Result = result
		if err := sqlTx.WriteReceipt(ctx, receipt); err != nil {
			return ir.Receipt{}, e.receiptError(tx.ID, err)
		}
		if err := sqlTx.Commit(); err != nil {
			return ir.Receipt{}, err
		}
		e.clock.Next()

		e.logger.Info("transaction executed",
			"tx_id", tx.ID,
			"seq", receipt.Seq,
			"instruction", tx.Instruction.Name,
		)
		return receipt, nil
	}

	code := program.CodeOf(execErr)
	if code == "" {
		// Not a program error: storage or encoding failed mid-instruction.
		e.logger.Error("transaction aborted",
			"tx_id", tx.ID,
			"seq", receipt.Seq,
			"instruction", tx.Instruction.Name,
			"error", execErr,
		)
		return ir.Receipt{}, fmt.Errorf("execute %s: %w", tx.ID, execErr)
	}

	// Discard every effect, then record the failure on its own.
	if err := sqlTx.Rollback(); err != nil {
		return ir.Receipt{}, fmt.Errorf("rollback %s: %w", tx.ID, err)
	}

	receipt.Status = ir.StatusFailed
	receipt.ErrorCode = string(code)
	receipt.Error = execErr.Error()
	if err := e.store.WriteReceipt(ctx, receipt); err != nil {
		return ir.Receipt{}, e.receiptError(tx.ID, err)
	}
	e.clock.Next()

	e.logger.Error("transaction failed",
		"tx_id", tx.ID,
		"seq", receipt.Seq,
		"instruction", tx.Instruction.Name,
		"error_code", code,
		"error", execErr,
	)
	return receipt, nil
}

func (e *Engine) receiptError(txID string, err error) error {
	if errors.Is(err, store.ErrDuplicateTransaction) {
		return NewDuplicateError(txID)
	}
	return fmt.Errorf("write receipt %s: %w", txID, err)
}

// checkID rejects a transaction whose id does not match its content.
func checkID(tx ir.Transaction) error {
	want, err := ir.TransactionID(tx)
	if err != nil {
		return &RuntimeError{Code: ErrCodeInvalidTransaction, Message: err.Error(), TxID: tx.ID}
	}
	if tx.ID != want {
		return &RuntimeError{
			Code:    ErrCodeInvalidTransaction,
			Message: fmt.Sprintf("id does not match content (want %s)", want),
			TxID:    tx.ID,
		}
	}
	return nil
}

// Submit queues tx for the Run loop. The returned channel receives exactly
// one Result.
// Thread-safe: may be called from any goroutine.
func (e *Engine) Submit(tx ir.Transaction) <-chan Result {
	s := &submission{tx: tx, done: make(chan Result, 1)}
	if !e.queue.Enqueue(s) {
		s.done <- Result{Err: &RuntimeError{Code: ErrCodeStopped, Message: "engine stopped", TxID: tx.ID}}
	}
	return s.done
}

// SubmitAndWait queues tx and waits for its result or ctx.
func (e *Engine) SubmitAndWait(ctx context.Context, tx ir.Transaction) (ir.Receipt, error) {
	select {
	case res := <-e.Submit(tx):
		return res.Receipt, res.Err
	case <-ctx.Done():
		return ir.Receipt{}, ctx.Err()
	}
}

// Run drains the submission queue until ctx is cancelled or Stop is called.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// A failed submission is logged and reported to its submitter; the loop
// continues with the next one. There are no retries.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting", "program_id", e.program.ID(), "seq", e.clock.Current())

	for {
		s, ok := e.queue.TryDequeue()
		if ok {
			receipt, err := e.Execute(ctx, s.tx)
			if err != nil {
				e.logger.Error("submission failed", "tx_id", s.tx.ID, "error", err)
			}
			s.done <- Result{Receipt: receipt, Err: err}
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.failPending(e.queue.Close())
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes when the queue is closed.
			if e.queue.Closed() {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the submission queue, which causes Run to return.
// Submissions still pending fail with ENGINE_STOPPED.
func (e *Engine) Stop() {
	e.failPending(e.queue.Close())
}

func (e *Engine) failPending(pending []*submission) {
	for _, s := range pending {
		s.done <- Result{Err: &RuntimeError{Code: ErrCodeStopped, Message: "engine stopped", TxID: s.tx.ID}}
	}
}

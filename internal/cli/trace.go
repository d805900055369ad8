package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	After       int64
	Limit       int
	Instruction string // optional filter
	FailedOnly  bool
}

// TraceResult is the receipt timeline.
type TraceResult struct {
	Receipts []ir.Receipt `json:"receipts"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats summarizes a trace.
type TraceStats struct {
	Total  int `json:"total"`
	OK     int `json:"ok"`
	Failed int `json:"failed"`
}

func (r TraceResult) WriteText(w io.Writer) error {
	if len(r.Receipts) == 0 {
		_, err := fmt.Fprintln(w, "No transactions found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tTIME\tINSTRUCTION\tSTATUS\tTX")
	for _, rc := range r.Receipts {
		status := string(rc.Status)
		if !rc.OK() {
			status = rc.ErrorCode
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", rc.Seq, rc.Timestamp, rc.Instruction.Name, status, rc.TxID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d transactions: %d ok, %d failed\n", r.Stats.Total, r.Stats.OK, r.Stats.Failed)
	return err
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [tx-id]",
		Short: "Show the transaction log",
		Long: `Show executed transactions in seq order, or one receipt in full.

Failed transactions appear with their error code; they changed nothing
but still consumed a seq.

Examples:
  memorychain trace
  memorychain trace --instruction reward_miner --failed
  memorychain trace --after 100 --limit 20 --format json
  memorychain trace 9f2c...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runTraceOne(opts, cmd, args[0])
			}
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.After, "after", 0, "only transactions with seq greater than this")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of transactions (0 = all)")
	cmd.Flags().StringVar(&opts.Instruction, "instruction", "", "filter by instruction name")
	cmd.Flags().BoolVar(&opts.FailedOnly, "failed", false, "only failed transactions")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	if opts.Instruction != "" && !ir.InstructionName(opts.Instruction).Valid() {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown instruction %q", opts.Instruction))
	}

	s, err := opts.openSession(cmd.Context(), cmd, false)
	if err != nil {
		return err
	}
	defer s.Close()

	receipts, err := s.store.ReadReceipts(cmd.Context(), opts.After, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read receipts", err)
	}

	return opts.output(cmd).Success(buildTrace(receipts, ir.InstructionName(opts.Instruction), opts.FailedOnly))
}

// buildTrace filters receipts; an empty instruction matches all.
func buildTrace(receipts []ir.Receipt, instruction ir.InstructionName, failedOnly bool) TraceResult {
	result := TraceResult{Receipts: []ir.Receipt{}}
	for _, rc := range receipts {
		if instruction != "" && rc.Instruction.Name != instruction {
			continue
		}
		if failedOnly && rc.OK() {
			continue
		}
		result.Receipts = append(result.Receipts, rc)
		result.Stats.Total++
		if rc.OK() {
			result.Stats.OK++
		} else {
			result.Stats.Failed++
		}
	}
	return result
}

func runTraceOne(opts *TraceOptions, cmd *cobra.Command, txID string) error {
	s, err := opts.openSession(cmd.Context(), cmd, false)
	if err != nil {
		return err
	}
	defer s.Close()

	receipt, err := s.store.ReadReceipt(cmd.Context(), txID)
	if errors.Is(err, store.ErrNotFound) {
		return NewExitError(ExitFailure, fmt.Sprintf("no transaction %s", txID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read receipt", err)
	}
	return opts.output(cmd).Success(receiptView{receipt})
}

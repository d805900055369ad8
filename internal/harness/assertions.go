package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/memorychain/internal/ir"
	"github.com/roach88/memorychain/internal/program"
	"github.com/roach88/memorychain/internal/store"
	"github.com/roach88/memorychain/internal/testutil"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s by %q: %s", ev.Seq, ev.Instruction, ev.Signer, ev.Status)
			if ev.ErrorCode != "" {
				fmt.Fprintf(&buf, " (%s)", ev.ErrorCode)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// matches reports whether ev ran instruction with the optional status
// and error code filters.
func matches(ev TraceEvent, a Assertion) bool {
	if ev.Instruction != a.Instruction {
		return false
	}
	if a.Status != "" && ev.Status != a.Status {
		return false
	}
	return a.ErrorCode == "" || ev.ErrorCode == a.ErrorCode
}

func describe(a Assertion) string {
	desc := a.Instruction
	if a.Status != "" {
		desc += " status=" + a.Status
	}
	if a.ErrorCode != "" {
		desc += " error_code=" + a.ErrorCode
	}
	return desc
}

// assertTraceContains checks that some step matches the assertion.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if matches(ev, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describe(a),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that instructions first appear in the given
// order. They need not be consecutive.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if _, seen := positions[ev.Instruction]; !seen {
			positions[ev.Instruction] = i + 1
		}
	}

	for _, name := range a.Instructions {
		if positions[name] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all instructions present: %v", a.Instructions),
				Actual:   fmt.Sprintf("missing instruction: %s", name),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Instructions); i++ {
		prev, curr := a.Instructions[i-1], a.Instructions[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("instructions in order: %v", a.Instructions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that exactly Count steps match.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if matches(ev, a) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, describe(a)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertMemory checks the record stored for the content's hash.
func assertMemory(actx *AssertionContext, a Assertion) error {
	hash := ir.SumHash([]byte(a.Content))
	record, err := actx.Program.LoadMemory(actx.Ctx, actx.Store, hash)

	if a.Absent {
		if program.IsNotFound(err) {
			return nil
		}
		actual := fmt.Sprintf("error %v", err)
		if err == nil {
			actual = fmt.Sprintf("record owned by %s", record.Owner)
		}
		return &AssertionError{
			Type:     AssertMemory,
			Expected: fmt.Sprintf("no record for %q", a.Content),
			Actual:   actual,
		}
	}

	if err != nil {
		return &AssertionError{
			Type:     AssertMemory,
			Expected: fmt.Sprintf("record for %q owned by %s", a.Content, a.Owner),
			Actual:   err.Error(),
		}
	}
	if record.Owner != testutil.Address(a.Owner) {
		return &AssertionError{
			Type:     AssertMemory,
			Expected: fmt.Sprintf("record for %q owned by %s", a.Content, a.Owner),
			Actual:   fmt.Sprintf("owned by %s", record.Owner),
		}
	}
	return nil
}

// assertBalance checks the amount held by a token account.
func assertBalance(actx *AssertionContext, a Assertion) error {
	addr, err := actx.Resolve(a.Account)
	if err != nil {
		return err
	}
	acct, err := actx.Store.GetTokenAccount(actx.Ctx, addr)
	if errors.Is(err, store.ErrNotFound) {
		return &AssertionError{
			Type:     AssertBalance,
			Expected: fmt.Sprintf("%s holds %d", a.Account, a.Amount),
			Actual:   "token account does not exist",
		}
	}
	if err != nil {
		return err
	}
	if acct.Amount != a.Amount {
		return &AssertionError{
			Type:     AssertBalance,
			Expected: fmt.Sprintf("%s holds %d", a.Account, a.Amount),
			Actual:   fmt.Sprintf("holds %d", acct.Amount),
		}
	}
	return nil
}

// AssertionContext provides ledger access for state assertions.
type AssertionContext struct {
	Ctx     context.Context
	Store   *store.Store
	Program *program.Program

	// Resolve maps an account name to its token account address.
	Resolve func(name string) (ir.Address, error)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// State assertions fail when actx is nil.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertMemory, AssertBalance:
			if actx == nil || actx.Store == nil || actx.Program == nil {
				err = fmt.Errorf("assertion[%d]: %s requires ledger context", i, a.Type)
			} else if a.Type == AssertMemory {
				err = assertMemory(actx, a)
			} else if actx.Resolve == nil {
				err = fmt.Errorf("assertion[%d]: balance requires an account resolver", i)
			} else {
				err = assertBalance(actx, a)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

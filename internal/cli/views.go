package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/memorychain/internal/ir"
)

// receiptView renders a receipt. JSON output is the receipt itself.
type receiptView struct {
	ir.Receipt
}

func (v receiptView) WriteText(w io.Writer) error {
	r := v.Receipt
	status := string(r.Status)
	if !r.OK() {
		status = fmt.Sprintf("%s (%s)", r.Status, r.ErrorCode)
	}
	signers := make([]string, len(r.Signers))
	for i, s := range r.Signers {
		signers[i] = s.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Transaction: %s\n", r.TxID)
	fmt.Fprintf(&b, "Seq:         %d\n", r.Seq)
	fmt.Fprintf(&b, "Instruction: %s\n", r.Instruction.Name)
	fmt.Fprintf(&b, "Signers:     %s\n", strings.Join(signers, ", "))
	fmt.Fprintf(&b, "Status:      %s\n", status)
	for _, line := range r.Logs {
		fmt.Fprintf(&b, "  log: %s\n", line)
	}
	for _, ev := range r.Events {
		fmt.Fprintf(&b, "  event: %s %s\n", ev.Name, formatObject(ev.Data))
	}
	if len(r.Result) > 0 {
		fmt.Fprintf(&b, "Result:      %s\n", formatObject(r.Result))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// formatObject renders obj as space-separated key=value pairs in key order.
func formatObject(obj ir.IRObject) string {
	parts := make([]string, 0, len(obj))
	for _, k := range obj.SortedKeys() {
		parts = append(parts, k+"="+formatValue(obj[k]))
	}
	return strings.Join(parts, " ")
}

func formatValue(v ir.IRValue) string {
	switch val := v.(type) {
	case ir.IRString:
		return string(val)
	case ir.IRInt:
		return fmt.Sprintf("%d", int64(val))
	case ir.IRBool:
		return fmt.Sprintf("%t", bool(val))
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}

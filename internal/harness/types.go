package harness

import "github.com/roach88/memorychain/internal/ir"

// TraceEvent is one executed step as the scenario sees it. Addresses are
// replaced by their scenario aliases, so traces are stable across key
// material and readable in golden files.
type TraceEvent struct {
	Seq         int64       `json:"seq"`
	Timestamp   int64       `json:"timestamp"`
	Signer      string      `json:"signer"`
	Instruction string      `json:"instruction"`
	Args        ir.IRObject `json:"args,omitempty"`
	Status      string      `json:"status"`
	ErrorCode   string      `json:"error_code,omitempty"`
	Logs        []string    `json:"logs,omitempty"`
	Events      []ir.Event  `json:"events,omitempty"`
	Result      ir.IRObject `json:"result,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace lists executed steps in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an executed step.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// object renders the event for canonical serialization.
func (e TraceEvent) object() ir.IRObject {
	obj := ir.IRObject{
		"seq":         ir.IRInt(e.Seq),
		"timestamp":   ir.IRInt(e.Timestamp),
		"signer":      ir.IRString(e.Signer),
		"instruction": ir.IRString(e.Instruction),
		"status":      ir.IRString(e.Status),
	}
	if len(e.Args) > 0 {
		obj["args"] = e.Args
	}
	if e.ErrorCode != "" {
		obj["error_code"] = ir.IRString(e.ErrorCode)
	}
	if len(e.Logs) > 0 {
		logs := make(ir.IRArray, len(e.Logs))
		for i, l := range e.Logs {
			logs[i] = ir.IRString(l)
		}
		obj["logs"] = logs
	}
	if len(e.Events) > 0 {
		events := make(ir.IRArray, len(e.Events))
		for i, ev := range e.Events {
			events[i] = ir.IRObject{"name": ir.IRString(ev.Name), "data": ev.Data}
		}
		obj["events"] = events
	}
	if len(e.Result) > 0 {
		obj["result"] = e.Result
	}
	return obj
}

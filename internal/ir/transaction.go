package ir

// Transaction is an authenticated request to execute one instruction.
//
// Signers are identities whose authorization was proven at ingress
// (Ed25519 signature or signed request token). The engine never executes
// a transaction whose signers were not verified.
type Transaction struct {
	ID          string      `json:"id"` // Content-addressed, see TransactionID
	RequestID   string      `json:"request_id"`
	Signers     []Address   `json:"signers"`
	Instruction Instruction `json:"instruction"`
}

// NewTransaction builds a transaction and computes its content-addressed ID.
func NewTransaction(requestID string, ix Instruction, signers ...Address) (Transaction, error) {
	tx := Transaction{
		RequestID:   requestID,
		Signers:     append([]Address(nil), signers...),
		Instruction: ix,
	}
	id, err := TransactionID(tx)
	if err != nil {
		return Transaction{}, err
	}
	tx.ID = id
	return tx, nil
}

// Payer returns the first signer, which pays for any allocation.
func (tx Transaction) Payer() (Address, bool) {
	if len(tx.Signers) == 0 {
		return Address{}, false
	}
	return tx.Signers[0], true
}

// HasSigner reports whether a is among the transaction's signers.
func (tx Transaction) HasSigner(a Address) bool {
	for _, s := range tx.Signers {
		if s == a {
			return true
		}
	}
	return false
}

// SignedTransaction pairs a transaction with one Ed25519 signature per signer,
// in signer order. Signatures cover MessageBytes.
type SignedTransaction struct {
	Transaction
	Signatures [][]byte `json:"signatures"`
}

// Status is the outcome of an executed transaction.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Event is an advisory diagnostic emitted by the program for off-ledger
// indexers. Events carry no consistency guarantee.
type Event struct {
	Name string   `json:"name"`
	Data IRObject `json:"data"`
}

// Receipt records the outcome of one executed transaction. Receipts are
// written for failed transactions too; a failed receipt is the only trace
// such a transaction leaves.
type Receipt struct {
	TxID        string      `json:"tx_id"`
	Seq         int64       `json:"seq"`       // Logical clock
	Timestamp   int64       `json:"timestamp"` // Host time, unix seconds
	RequestID   string      `json:"request_id"`
	Signers     []Address   `json:"signers"`
	Instruction Instruction `json:"instruction"`
	Status      Status      `json:"status"`
	ErrorCode   string      `json:"error_code,omitempty"`
	Error       string      `json:"error,omitempty"`
	Logs        []string    `json:"logs"`
	Events      []Event     `json:"events"`
	Result      IRObject    `json:"result,omitempty"`
}

// OK reports whether the transaction succeeded.
func (r Receipt) OK() bool {
	return r.Status == StatusOK
}

// Transaction reconstructs the transaction the receipt was produced for.
func (r Receipt) Transaction() Transaction {
	return Transaction{
		ID:          r.TxID,
		RequestID:   r.RequestID,
		Signers:     r.Signers,
		Instruction: r.Instruction,
	}
}

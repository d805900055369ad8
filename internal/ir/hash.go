package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows future algorithm migration.
const (
	DomainTransaction = "memorychain/transaction/v1"
	DomainReceipt     = "memorychain/receipt/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// messageObject is the signed and hashed view of a transaction.
// Seq and timestamp are NOT part of it: they are assigned by the engine.
func messageObject(tx Transaction) IRObject {
	signers := make(IRArray, len(tx.Signers))
	for i, s := range tx.Signers {
		signers[i] = IRString(s.String())
	}
	accounts := IRArray{}
	for _, a := range tx.Instruction.Accounts() {
		accounts = append(accounts, IRString(a.String()))
	}
	return IRObject{
		"instruction": IRString(tx.Instruction.Name),
		"data":        IRString(hex.EncodeToString(tx.Instruction.Data())),
		"accounts":    accounts,
		"signers":     signers,
		"request_id":  IRString(tx.RequestID),
		"ir_version":  IRString(IRVersion),
	}
}

// MessageBytes returns the canonical bytes that signers sign.
func MessageBytes(tx Transaction) ([]byte, error) {
	b, err := MarshalCanonical(messageObject(tx))
	if err != nil {
		return nil, fmt.Errorf("MessageBytes: %w", err)
	}
	return b, nil
}

// TransactionID computes the content-addressed ID of a transaction.
// Two submissions of the same instruction by the same signers are distinct
// only through RequestID.
func TransactionID(tx Transaction) (string, error) {
	msg, err := MessageBytes(tx)
	if err != nil {
		return "", fmt.Errorf("TransactionID: %w", err)
	}
	return hashWithDomain(DomainTransaction, msg), nil
}

// ReceiptHash computes a digest over the observable outcome of a receipt.
// Replay compares these to prove deterministic re-execution.
func ReceiptHash(r Receipt) (string, error) {
	logs := make(IRArray, len(r.Logs))
	for i, l := range r.Logs {
		logs[i] = IRString(l)
	}
	events := make(IRArray, len(r.Events))
	for i, ev := range r.Events {
		data := ev.Data
		if data == nil {
			data = IRObject{}
		}
		events[i] = IRObject{"name": IRString(ev.Name), "data": data}
	}
	result := r.Result
	if result == nil {
		result = IRObject{}
	}
	obj := IRObject{
		"tx_id":      IRString(r.TxID),
		"seq":        IRInt(r.Seq),
		"timestamp":  IRInt(r.Timestamp),
		"status":     IRString(r.Status),
		"error_code": IRString(r.ErrorCode),
		"logs":       logs,
		"events":     events,
		"result":     result,
	}
	b, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ReceiptHash: %w", err)
	}
	return hashWithDomain(DomainReceipt, b), nil
}

// MustTransactionID is like TransactionID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTransactionID(tx Transaction) string {
	id, err := TransactionID(tx)
	if err != nil {
		panic(err)
	}
	return id
}

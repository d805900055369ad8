package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is a transaction rejected by the host runtime before the
// program ran. Rejected transactions leave no receipt.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// TxID identifies the rejected transaction, if known.
	TxID string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeDuplicateTransaction indicates the transaction id already has a receipt.
	ErrCodeDuplicateTransaction RuntimeErrorCode = "DUPLICATE_TRANSACTION"

	// ErrCodeInvalidSignature indicates a missing or bad signer signature.
	ErrCodeInvalidSignature RuntimeErrorCode = "INVALID_SIGNATURE"

	// ErrCodeInvalidTransaction indicates the id does not match the content.
	ErrCodeInvalidTransaction RuntimeErrorCode = "INVALID_TRANSACTION"

	// ErrCodeStopped indicates the engine no longer accepts submissions.
	ErrCodeStopped RuntimeErrorCode = "ENGINE_STOPPED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.TxID != "" {
		return fmt.Sprintf("%s: %s (tx=%s)", e.Code, e.Message, e.TxID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsDuplicateTransaction reports whether err rejects a replayed transaction id.
// Uses errors.As to handle wrapped errors.
func IsDuplicateTransaction(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeDuplicateTransaction
	}
	return false
}

// IsInvalidSignature reports whether err is a signature failure.
func IsInvalidSignature(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeInvalidSignature
	}
	return false
}

// NewDuplicateError creates a RuntimeError for a duplicate transaction id.
func NewDuplicateError(txID string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeDuplicateTransaction,
		Message: "transaction already executed",
		TxID:    txID,
	}
}

// NewSignatureError creates a RuntimeError for a signature failure.
func NewSignatureError(txID, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidSignature,
		Message: fmt.Sprintf(format, args...),
		TxID:    txID,
	}
}

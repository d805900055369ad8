package program

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes program failures. Codes are recorded verbatim in
// receipts.
type ErrorCode string

const (
	// ErrCodeAlreadyExists indicates a record for the hash is already stored.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// ErrCodeNotFound indicates no record exists at the derived address.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeIntegrityViolation indicates stored data disagrees with the request.
	ErrCodeIntegrityViolation ErrorCode = "INTEGRITY_VIOLATION"

	// ErrCodeInsufficientFunds indicates the vault cannot cover a reward.
	ErrCodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"

	// ErrCodeAccountMismatch indicates a token account has the wrong owner or mint.
	ErrCodeAccountMismatch ErrorCode = "ACCOUNT_MISMATCH"

	// ErrCodeDerivationFailure indicates a derived address could not be produced.
	ErrCodeDerivationFailure ErrorCode = "DERIVATION_FAILURE"

	// ErrCodeMissingSignature indicates the instruction carried no signer.
	ErrCodeMissingSignature ErrorCode = "MISSING_SIGNATURE"

	// ErrCodeInvalidAmount indicates a zero or unrepresentable reward amount.
	ErrCodeInvalidAmount ErrorCode = "INVALID_AMOUNT"

	// ErrCodeUnknownInstruction indicates malformed or unknown instruction data.
	ErrCodeUnknownInstruction ErrorCode = "UNKNOWN_INSTRUCTION"
)

// Error is an expected program failure.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error // Underlying cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: cause}
}

// CodeOf returns the program error code carried by err, or "" if err is
// not a program error.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

func hasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsAlreadyExists reports whether err is an ALREADY_EXISTS program error.
func IsAlreadyExists(err error) bool { return hasCode(err, ErrCodeAlreadyExists) }

// IsNotFound reports whether err is a NOT_FOUND program error.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsIntegrityViolation reports whether err is an INTEGRITY_VIOLATION program error.
func IsIntegrityViolation(err error) bool { return hasCode(err, ErrCodeIntegrityViolation) }

// IsInsufficientFunds reports whether err is an INSUFFICIENT_FUNDS program error.
func IsInsufficientFunds(err error) bool { return hasCode(err, ErrCodeInsufficientFunds) }

// IsAccountMismatch reports whether err is an ACCOUNT_MISMATCH program error.
func IsAccountMismatch(err error) bool { return hasCode(err, ErrCodeAccountMismatch) }

// IsDerivationFailure reports whether err is a DERIVATION_FAILURE program error.
func IsDerivationFailure(err error) bool { return hasCode(err, ErrCodeDerivationFailure) }

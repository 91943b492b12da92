package game

import (
	"errors"
	"fmt"
)

// Reason is the machine-readable rejection code returned alongside the
// human string. Every diagnosable failure maps to exactly one code.
type Reason string

const (
	ReasonValidation        Reason = "validation"
	ReasonStateConflict     Reason = "state_conflict"
	ReasonInsufficientFunds Reason = "insufficient_funds"
	ReasonRateLimit         Reason = "rate_limit"
	ReasonIntegrity         Reason = "integrity"
	ReasonTransient         Reason = "transient_infrastructure"
)

type RejectionError struct {
	Code Reason
	Msg  string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func Validation(msg string) *RejectionError {
	return &RejectionError{Code: ReasonValidation, Msg: msg}
}

func StateConflict(msg string) *RejectionError {
	return &RejectionError{Code: ReasonStateConflict, Msg: msg}
}

func InsufficientFunds(msg string) *RejectionError {
	return &RejectionError{Code: ReasonInsufficientFunds, Msg: msg}
}

func RateLimit(msg string) *RejectionError {
	return &RejectionError{Code: ReasonRateLimit, Msg: msg}
}

// Integrity failures must halt and alert, never be silently repaired.
func Integrity(msg string) *RejectionError {
	return &RejectionError{Code: ReasonIntegrity, Msg: msg}
}

func Transient(msg string, err error) error {
	return fmt.Errorf("%s: %s: %w", ReasonTransient, msg, err)
}

// ReasonOf extracts the rejection code from an error chain.
func ReasonOf(err error) (Reason, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Code, true
	}

	return "", false
}

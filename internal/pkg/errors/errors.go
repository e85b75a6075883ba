// Package errors defines the closed set of error kinds the job engine uses
// for retry classification. Provider clients and workers wrap failures in an
// *Error so the caller can switch on Kind instead of sniffing messages.
package errors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindTransient errors may succeed on retry (429/500/503, overload).
	KindTransient Kind = iota
	// KindPermanentContract marks a provider response that violates the
	// expected shape (missing summary, empty audio). Never retried.
	KindPermanentContract
	// KindMissingPrecondition marks work that cannot start (audio stage
	// without a saved summary).
	KindMissingPrecondition
	// KindValidation marks malformed caller input.
	KindValidation
	// KindStore marks persistence failures.
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindPermanentContract:
		return "permanent_contract"
	case KindMissingPrecondition:
		return "missing_precondition"
	case KindValidation:
		return "validation"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	// RateLimited marks the transient rate-limit class, which backs off on a
	// longer schedule than ordinary transient failures.
	RateLimited bool
	Err         error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func Transient(err error) *Error {
	return &Error{Kind: KindTransient, Err: err}
}

func RateLimited(err error) *Error {
	return &Error{Kind: KindTransient, RateLimited: true, Err: err}
}

func Contract(format string, args ...any) *Error {
	return &Error{Kind: KindPermanentContract, Err: fmt.Errorf(format, args...)}
}

func Precondition(format string, args ...any) *Error {
	return &Error{Kind: KindMissingPrecondition, Err: fmt.Errorf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

func Store(err error) *Error {
	return &Error{Kind: KindStore, Err: err}
}

// KindOf reports the kind of err when it carries one.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsRetryable reports whether err is worth another attempt. Untagged errors
// are treated as retryable; only explicit non-transient kinds stop a retry
// loop early.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	k, ok := KindOf(err)
	if !ok {
		return true
	}
	return k == KindTransient
}

// IsRateLimited reports whether err belongs to the transient rate-limit class.
func IsRateLimited(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.RateLimited
	}
	return false
}

package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a push or connection test did not succeed.
type FailureKind string

const (
	KindValidation      FailureKind = "validation"
	KindAuthentication  FailureKind = "authentication"
	KindRemoteRejection FailureKind = "remote_rejection"
	KindTransport       FailureKind = "transport"
)

// Failure is the only error type adapters return across their public boundary.
// Message is written for direct display to the user.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

func (f *Failure) Unwrap() error { return f.Err }

// Fail builds a Failure with a formatted message.
func Fail(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// FailWith builds a Failure that keeps the underlying cause.
func FailWith(kind FailureKind, err error, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// AsFailure extracts a Failure from err. Errors of any other type are reported as transport failures.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Kind: KindTransport, Message: err.Error(), Err: err}
}

// IsKind reports whether err is a Failure of the given kind.
func IsKind(err error, kind FailureKind) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == kind
}

package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for the reply path. Every internal failure
// is converted to one of these at the boundary nearest its cause; no raw
// error ever reaches the requester.
type ErrorKind string

const (
	KindConfigMissing    ErrorKind = "config_missing"
	KindAuthUnavailable  ErrorKind = "auth_unavailable"
	KindNotFound         ErrorKind = "not_found"
	KindAmbiguous        ErrorKind = "ambiguous"
	KindSessionExpired   ErrorKind = "session_expired"
	KindSelectionInvalid ErrorKind = "selection_invalid"
	KindUpstream         ErrorKind = "upstream_error"
	KindParseFailure     ErrorKind = "parse_failure"
	KindNotImplemented   ErrorKind = "not_implemented"
	KindPolicyDenied     ErrorKind = "policy_denied"
)

// Error is a classified gateway failure. Message is safe to relay verbatim
// to the requester.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// E builds a classified error with a requester-facing message.
func E(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an underlying cause to a classified error.
func Wrap(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf extracts the classification from err, or "" for unclassified errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

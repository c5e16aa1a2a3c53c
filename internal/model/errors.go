package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so the transport layer can map it to a
// status without inspecting error strings. Every failure surfaced to a
// caller carries exactly one kind; nothing is retried internally.
type Kind int

const (
	// KindExtraction covers unsupported, corrupt, or empty documents.
	// User-correctable by re-uploading.
	KindExtraction Kind = iota
	// KindConversion means the external legacy-format conversion failed.
	KindConversion
	// KindMalformedGeneration means the language model reply failed
	// schema validation. Retryable by re-invoking generation explicitly.
	KindMalformedGeneration
	// KindAuthentication means the language model credential is missing
	// or rejected. Operator-correctable.
	KindAuthentication
	// KindInvalidSubmission means a request payload was unparseable.
	KindInvalidSubmission
)

func (k Kind) String() string {
	switch k {
	case KindExtraction:
		return "extraction"
	case KindConversion:
		return "conversion"
	case KindMalformedGeneration:
		return "malformed_generation"
	case KindAuthentication:
		return "authentication"
	case KindInvalidSubmission:
		return "invalid_submission"
	default:
		return "unknown"
	}
}

// HTTPStatus maps a kind to the response status for that failure class.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindExtraction, KindConversion, KindInvalidSubmission:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindMalformedGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure with human-readable detail and an
// optional wrapped cause.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps cause as a classified error.
func E(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: cause}
}

// Errf builds a classified error from a format string.
func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from anywhere in err's chain. The second
// return value is false for unclassified errors.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

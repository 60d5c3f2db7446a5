package errors

import (
	"errors"
	"net/http"
)

// Code classifies a domain error. Handlers translate codes to HTTP statuses;
// services and stores never import net/http.
type Code string

const (
	// CodeUnauthorized means the caller lacks the required role, or is not
	// the issuer of the record it is trying to mutate.
	CodeUnauthorized Code = "unauthorized"

	// CodeNotFound means the referenced certificate id has no record.
	CodeNotFound Code = "not_found"

	// CodeInvalidState means the operation is not legal for the record's
	// current lifecycle state (e.g. updating a revoked certificate).
	CodeInvalidState Code = "invalid_state"

	// CodeInvalidInput means the submission itself is malformed: a bad
	// digest, an empty content reference, an unparseable identity.
	CodeInvalidInput Code = "invalid_input"

	// CodeBadRequest covers transport-level parsing failures.
	CodeBadRequest Code = "bad_request"

	// CodeInternal is for unexpected infrastructure failures. The
	// description is never surfaced to clients.
	CodeInternal Code = "internal_error"
)

// DomainError carries a code and a human-readable description.
type DomainError struct {
	Code        Code
	Description string
}

func (e DomainError) Error() string {
	return string(e.Code) + ": " + e.Description
}

// New constructs a DomainError with the given code and description.
func New(code Code, description string) DomainError {
	return DomainError{Code: code, Description: description}
}

// HasCode reports whether err is (or wraps) a DomainError with the given code.
func HasCode(err error, code Code) bool {
	var de DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// unclassified errors.
func CodeOf(err error) Code {
	var de DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState:
		return http.StatusConflict
	case CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

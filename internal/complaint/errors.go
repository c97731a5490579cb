package complaint

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies operation failures so callers can tell user-fixable input
// problems from internal faults.
type Kind string

const (
	KindInput        Kind = "input"
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindCollaborator Kind = "collaborator"
)

// Error is the single error type returned by Operation.Do.
type Error struct {
	Kind    Kind
	Message string
	// Field is set for template completeness failures.
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the numeric classification exposed to callers.
func (e *Error) Code() int {
	switch e.Kind {
	case KindInput, KindNotFound:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Sentinel messages, kept identical for every failure site of the same kind.
const (
	msgEmptyReseller         = "Empty resellerId"
	msgEmptyNotificationType = "Empty notificationType"
	msgSellerNotFound        = "Seller not found!"
	msgClientNotFound        = "Client not found!"
	msgEmployeeNotFound      = "Employee not found!"
)

func inputError(msg string) *Error {
	return &Error{Kind: KindInput, Message: msg}
}

func notFoundError(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func validationError(field string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf("Template Data (%s) is empty!", field),
		Field:   field,
	}
}

func collaboratorError(op string, err error) *Error {
	return &Error{Kind: KindCollaborator, Message: op, Err: err}
}

// KindOf extracts the failure kind, or "" for errors not produced here.
func KindOf(err error) Kind {
	var opErr *Error
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return ""
}

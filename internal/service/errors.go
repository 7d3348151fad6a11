package service

import (
	"fmt"

	"github.com/pkg/errors"

	"dispatch/internal/model"
)

// Kind classifies a service failure. The HTTP layer maps kinds to status codes.
type Kind string

const (
	KindValidation    Kind = "VALIDATION_ERROR"
	KindDuplicateSlot Kind = "DUPLICATE_SLOT"
	KindNotFound      Kind = "NOT_FOUND"
	KindConflict      Kind = "CONFLICT"
	KindForbidden     Kind = "FORBIDDEN"
	KindUnauthorized  Kind = "UNAUTHORIZED"
	KindPersistence   Kind = "PERSISTENCE_FAILURE"
)

// Error is the failure type returned by every service operation.
// Current and ProjectTitle are only set for KindConflict.
type Error struct {
	Kind         Kind
	Message      string
	Meta         map[string]any
	Current      *model.Assignment
	ProjectTitle string
	Cause        error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// KindOf returns the kind of a service error, or KindPersistence for anything else.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindPersistence
}

func IsKind(err error, kind Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

func validationError(msg string, meta map[string]any) *Error {
	return &Error{Kind: KindValidation, Message: msg, Meta: meta}
}

func notFoundError(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func duplicateSlotError(index int, key string) *Error {
	meta := map[string]any{"slot": key}
	msg := "an assignment already exists for this project, foreman and date"
	if index >= 0 {
		meta["index"] = index
		msg = fmt.Sprintf("item %d: %s", index, msg)
	}
	return &Error{Kind: KindDuplicateSlot, Message: msg, Meta: meta}
}

func conflictError(current *model.Assignment) *Error {
	title := current.ProjectTitle()
	return &Error{
		Kind:         KindConflict,
		Message:      fmt.Sprintf("assignment for %q was changed by someone else; reload and try again", title),
		Meta:         map[string]any{"id": current.ID.String(), "project_title": title},
		Current:      current,
		ProjectTitle: title,
	}
}

func forbiddenError(action string) *Error {
	return &Error{Kind: KindForbidden, Message: "you do not have permission to " + action}
}

func unauthorizedError() *Error {
	return &Error{Kind: KindUnauthorized, Message: "authentication required"}
}

func persistenceError(err error, msg string) *Error {
	return &Error{Kind: KindPersistence, Message: msg, Cause: err}
}

package signing

import (
	"errors"
	"fmt"
)

// Kind classifies a generation failure for callers.
type Kind string

const (
	KindEmptyContent          Kind = "EmptyContent"
	KindTemplateNotFound      Kind = "TemplateNotFound"
	KindMissingSignatureField Kind = "MissingSignatureField"
	KindRenderFailure         Kind = "RenderFailure"
	KindPersistenceFailure    Kind = "PersistenceFailure"
)

// Sentinel errors, one per kind, usable with errors.Is.
var (
	ErrEmptyContent          = &Error{Kind: KindEmptyContent}
	ErrTemplateNotFound      = &Error{Kind: KindTemplateNotFound}
	ErrMissingSignatureField = &Error{Kind: KindMissingSignatureField}
	ErrRenderFailure         = &Error{Kind: KindRenderFailure}
	ErrPersistenceFailure    = &Error{Kind: KindPersistenceFailure}
)

// Error is the structured failure returned by the generation pipeline.
type Error struct {
	Kind    Kind
	Message string
	// StatusCode is the upstream HTTP status for RenderFailure, 0 otherwise.
	StatusCode int
	// MissingRoles lists uncovered required signers for MissingSignatureField.
	MissingRoles []string
	Err          error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or "" when err is not a pipeline error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func EmptyContent(length, minimum int) *Error {
	return &Error{
		Kind:    KindEmptyContent,
		Message: fmt.Sprintf("content has %d characters, at least %d required", length, minimum),
	}
}

func TemplateNotFound(ref string) *Error {
	return &Error{Kind: KindTemplateNotFound, Message: fmt.Sprintf("template %q not found", ref)}
}

func MissingSignatureField(roles []string) *Error {
	return &Error{
		Kind:         KindMissingSignatureField,
		Message:      fmt.Sprintf("no signature field matches required signer(s) %v", roles),
		MissingRoles: roles,
	}
}

// RenderFailure keeps the upstream status and message verbatim.
func RenderFailure(status int, message string, err error) *Error {
	return &Error{Kind: KindRenderFailure, StatusCode: status, Message: message, Err: err}
}

func PersistenceFailure(message string, err error) *Error {
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	return &Error{Kind: KindPersistenceFailure, Message: message, Err: err}
}

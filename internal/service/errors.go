package service

import (
	"errors"
	"strings"
)

// Kind is the closed set of failure classes a service can report.
type Kind string

const (
	KindValidation      Kind = "validation_failed"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindExpired         Kind = "expired"
	KindUnavailable     Kind = "unavailable"
)

// Error is returned for every expected failure. Anything else a service
// returns is an internal error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details []string
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Details, "; ")
}

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: KindNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Code: string(kind), Message: msg}
}

func Validation(details ...string) *Error {
	return &Error{Kind: KindValidation, Code: string(KindValidation), Message: "Dados inválidos", Details: details}
}

func Unauthenticated(msg string) *Error { return newError(KindUnauthenticated, msg) }
func Forbidden(msg string) *Error       { return newError(KindForbidden, msg) }
func NotFound(msg string) *Error        { return newError(KindNotFound, msg) }
func Conflict(msg string) *Error        { return newError(KindConflict, msg) }
func Unavailable(msg string) *Error     { return newError(KindUnavailable, msg) }

// WithCode overrides the machine-readable code sent to clients.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// KindOf returns the kind of err, or "" when err is not a service error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

const CodeAccountDeactivated = "account_deactivated"

var (
	errGroupNotFound     = NotFound("Grupo não encontrado")
	errNotGroupMember    = Forbidden("Você não é membro deste grupo")
	errInviteNotFound    = NotFound("Convite não encontrado ou expirado")
	errAlreadyMember     = Conflict("Usuário já é membro do grupo")
	errAccountDisabled   = Forbidden("Conta desativada").WithCode(CodeAccountDeactivated)
	errStorageNotEnabled = Unavailable("Armazenamento de arquivos não configurado")
)

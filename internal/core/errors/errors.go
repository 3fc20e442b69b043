package errors

import (
	stderrors "errors"
	"fmt"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
)

// Kind classifies a ledger failure. Callers map kinds to their own
// transport-level status.
type Kind string

const (
	KindInternal          Kind = "internal"
	KindNotFound          Kind = "not_found"
	KindAlreadyExists     Kind = "already_exists"
	KindInvalidArgument   Kind = "invalid_argument"
	KindInsufficientStock Kind = "insufficient_stock"
	KindPartialFailure    Kind = "partial_failure"
)

// Sentinels for errors.Is. Any *Error with the same Kind matches.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrAlreadyExists     = &Error{Kind: KindAlreadyExists}
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrPartialFailure    = &Error{Kind: KindPartialFailure}
)

// Error is the typed error returned by ledger operations.
type Error struct {
	Kind Kind
	Op   string // operation name, e.g. "purchase"
	Msg  string // short diagnostic
	Err  error  // underlying cause, may be nil

	// Record is set on PartialFailure: the state that was committed before
	// the failing step.
	Record *v1.BookRecord
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Msg != "" {
		msg = e.Msg
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels (Kind only, no Op/Msg) against any error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// New builds a typed error with a formatted diagnostic.
func New(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and diagnostic to an underlying error.
func Wrap(kind Kind, op string, err error, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

func NotFound(op, id string) *Error {
	return New(KindNotFound, op, "book %q not found", id)
}

func AlreadyExists(op, id string) *Error {
	return New(KindAlreadyExists, op, "book %q already exists", id)
}

func InvalidArgumentf(op, format string, args ...interface{}) *Error {
	return New(KindInvalidArgument, op, format, args...)
}

// PartialFailure reports a write that was applied while a following,
// dependent write was not. record is the committed state.
func PartialFailure(op string, record v1.BookRecord, cause error) *Error {
	return &Error{
		Kind:   KindPartialFailure,
		Op:     op,
		Msg:    fmt.Sprintf("stock for %q updated but activity entry was not recorded", record.ID),
		Err:    cause,
		Record: &record,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

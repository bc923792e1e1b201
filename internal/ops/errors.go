// Package ops defines the primitives a genotype is written in and the
// vocabulary that numbers them.
//
// A Vocabulary lists the declared primitives first, then one Argument
// primitive per input, then the EXP slots an IdentifierSpace adds for
// sub-expressions. Gene values are indices into that layout. Errors raised
// anywhere in the module carry one of the Err* kinds declared here.
package ops

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration           = errors.New("configuration error")
	ErrEmptySpace              = errors.New("empty identifier space")
	ErrIdentifierOutOfRange    = errors.New("identifier out of range")
	ErrArgumentIndexOutOfRange = errors.New("argument index out of range")
	ErrArgumentCountMismatch   = errors.New("argument count mismatch")
	ErrSchemaMismatch          = errors.New("schema mismatch")
	ErrIO                      = errors.New("io fault")
	ErrDecodeUnsupported       = errors.New("decode unsupported")
	ErrLocusOutOfRange         = errors.New("locus out of range")
)

// Error carries one of the Err* kinds plus a message describing the failure.
// Use errors.Is against the kind sentinels to classify it.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

// Errorf builds an *Error of the given kind.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapIO wraps an underlying filesystem failure as ErrIO while keeping the cause
// reachable through errors.Is / errors.As.
func WrapIO(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

// Package apperr holds the error taxonomy shared by the discovery stages.
// Stages never return these past their own boundary as panics or bare
// errors; they attach them to result values so callers branch on data.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation          Kind = "validation"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindParseFailure        Kind = "parse_failure"
	KindNotFound            Kind = "not_found"
	KindInternal            Kind = "internal"
)

// Error is a classified failure. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Op == "" && t.Kind == e.Kind
}

var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrUpstream   = &Error{Kind: KindUpstreamUnavailable}
	ErrParse      = &Error{Kind: KindParseFailure}
	ErrNotFound   = &Error{Kind: KindNotFound}
)

func Validation(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

func Upstream(op string, err error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Op: op, Err: err}
}

func Parse(op string, err error) *Error {
	return &Error{Kind: KindParseFailure, Op: op, Err: err}
}

func NotFound(op, msg string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: msg}
}

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

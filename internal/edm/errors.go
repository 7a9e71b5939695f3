// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package edm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a literal or value was rejected
type ErrorKind int

const (
	// IllegalContent: the literal does not match the type's grammar
	IllegalContent ErrorKind = iota + 1
	// FacetMismatch: well-formed, but violates maxLength/precision/scale
	FacetMismatch
	// Unconvertible: the value cannot be represented in the requested host type
	Unconvertible
	// TypeNotSupported: the requested or supplied host type is not handled
	TypeNotSupported
	// ConstraintViolation: null where the facets say not nullable
	ConstraintViolation
	// ValueNotValid: a host value that does not fit the kind when formatting
	ValueNotValid
)

// Sentinels matched by errors.Is against any *Error of the same kind
var (
	ErrIllegalContent      = errors.New("illegal content")
	ErrFacetMismatch       = errors.New("facets not matched")
	ErrUnconvertible       = errors.New("value cannot be converted")
	ErrTypeNotSupported    = errors.New("type not supported")
	ErrConstraintViolation = errors.New("null not allowed")
	ErrValueNotValid       = errors.New("value not valid")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case IllegalContent:
		return ErrIllegalContent
	case FacetMismatch:
		return ErrFacetMismatch
	case Unconvertible:
		return ErrUnconvertible
	case TypeNotSupported:
		return ErrTypeNotSupported
	case ConstraintViolation:
		return ErrConstraintViolation
	case ValueNotValid:
		return ErrValueNotValid
	}
	return nil
}

func (k ErrorKind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the single error type returned by every codec
type Error struct {
	Kind    ErrorKind
	Type    Kind
	Literal string // offending literal or formatted value, if any
	Detail  string
	Err     error // underlying cause, e.g. a strconv error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type.FullQualifiedName(), e.Kind)
	if e.Literal != "" {
		msg += fmt.Sprintf(" in '%s'", e.Literal)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the package sentinel for e.Kind
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.Kind == e.Kind
	}
	return target == e.Kind.sentinel()
}

// KindOf extracts the ErrorKind of err, or 0 if err is not a codec error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func illegalContent(k Kind, literal string) *Error {
	return &Error{Kind: IllegalContent, Type: k, Literal: literal}
}

func facetMismatch(k Kind, literal, detail string) *Error {
	return &Error{Kind: FacetMismatch, Type: k, Literal: literal, Detail: detail}
}

func unconvertible(k Kind, literal string, err error) *Error {
	return &Error{Kind: Unconvertible, Type: k, Literal: literal, Err: err}
}

func typeNotSupported(k Kind, detail string) *Error {
	return &Error{Kind: TypeNotSupported, Type: k, Detail: detail}
}

func valueNotValid(k Kind, value any) *Error {
	return &Error{Kind: ValueNotValid, Type: k, Literal: fmt.Sprint(value)}
}

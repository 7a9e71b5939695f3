// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package edm

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

type booleanType struct{}

func (booleanType) defaultType() reflect.Type {
	return typeBool
}

func (booleanType) parse(literal string, _ Facets, rt reflect.Type) (any, error) {
	var b bool
	switch {
	case strings.EqualFold(literal, "true"):
		b = true
	case strings.EqualFold(literal, "false"):
		b = false
	default:
		return nil, illegalContent(Boolean, literal)
	}
	if rt.Kind() != reflect.Bool {
		return nil, typeNotSupported(Boolean, rt.String())
	}
	return reflect.ValueOf(b).Convert(rt).Interface(), nil
}

func (booleanType) format(value any, _ Facets) (string, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Bool {
		return "", typeNotSupported(Boolean, rv.Type().String())
	}
	if rv.Bool() {
		return "true", nil
	}
	return "false", nil
}

// stringType counts maxLength in characters, not bytes
type stringType struct{}

func (stringType) defaultType() reflect.Type {
	return typeString
}

func (stringType) parse(literal string, facets Facets, rt reflect.Type) (any, error) {
	if n := utf8.RuneCountInString(literal); !facets.withinMaxLength(n) {
		return nil, facetMismatch(String, literal, fmt.Sprintf("length %d exceeds maxLength %d", n, *facets.MaxLength))
	}
	if rt.Kind() != reflect.String {
		return nil, typeNotSupported(String, rt.String())
	}
	return reflect.ValueOf(literal).Convert(rt).Interface(), nil
}

func (stringType) format(value any, facets Facets) (string, error) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case fmt.Stringer:
		s = v.String()
	default:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.String {
			return "", typeNotSupported(String, rv.Type().String())
		}
		s = rv.String()
	}

	if n := utf8.RuneCountInString(s); !facets.withinMaxLength(n) {
		return "", facetMismatch(String, s, fmt.Sprintf("length %d exceeds maxLength %d", n, *facets.MaxLength))
	}
	return s, nil
}

// guidPattern is the only accepted form; uuid.Parse alone would also take
// braces, URNs and unhyphenated input
var guidPattern = regexp.MustCompile(`^[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}$`)

var typeUUID = reflect.TypeOf(uuid.UUID{})

type guidType struct{}

func (guidType) defaultType() reflect.Type {
	return typeUUID
}

func (guidType) parse(literal string, _ Facets, rt reflect.Type) (any, error) {
	if !guidPattern.MatchString(literal) {
		return nil, illegalContent(Guid, literal)
	}
	id, err := uuid.Parse(literal)
	if err != nil {
		return nil, &Error{Kind: IllegalContent, Type: Guid, Literal: literal, Err: err}
	}

	switch {
	case rt == typeUUID:
		return id, nil
	case rt.Kind() == reflect.String:
		return reflect.ValueOf(id.String()).Convert(rt).Interface(), nil
	case rt == reflect.TypeOf([16]byte{}):
		return [16]byte(id), nil
	}
	return nil, typeNotSupported(Guid, rt.String())
}

func (guidType) format(value any, _ Facets) (string, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v.String(), nil
	case [16]byte:
		return uuid.UUID(v).String(), nil
	case string:
		if !guidPattern.MatchString(v) {
			return "", valueNotValid(Guid, value)
		}
		return strings.ToLower(v), nil
	}
	return "", typeNotSupported(Guid, reflect.TypeOf(value).String())
}

var typeURL = reflect.TypeOf((*url.URL)(nil))

// streamType represents a stream by its URI reference
type streamType struct{}

func (streamType) defaultType() reflect.Type {
	return typeURL
}

func (streamType) parse(literal string, _ Facets, rt reflect.Type) (any, error) {
	u, err := url.Parse(literal)
	if err != nil {
		return nil, &Error{Kind: IllegalContent, Type: Stream, Literal: literal, Err: err}
	}

	switch {
	case rt == typeURL:
		return u, nil
	case rt.Kind() == reflect.String:
		return reflect.ValueOf(literal).Convert(rt).Interface(), nil
	}
	return nil, typeNotSupported(Stream, rt.String())
}

func (streamType) format(value any, _ Facets) (string, error) {
	switch v := value.(type) {
	case *url.URL:
		return v.String(), nil
	case url.URL:
		return v.String(), nil
	case string:
		if _, err := url.Parse(v); err != nil {
			return "", &Error{Kind: ValueNotValid, Type: Stream, Literal: v, Err: err}
		}
		return v, nil
	}
	return "", typeNotSupported(Stream, reflect.TypeOf(value).String())
}

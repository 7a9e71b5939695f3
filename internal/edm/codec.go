// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package edm

import (
	"fmt"
	"reflect"
	"strings"
)

// Codec converts between OData literals and host values for one primitive kind.
//
// Literals and formatted results are passed as pointers so that null can be
// represented; a nil literal yields a nil value when the facets allow null and
// a ConstraintViolation otherwise. Codecs hold no mutable state and are safe
// for concurrent use.
type Codec interface {
	Kind() Kind

	// DefaultType is the host type returned when no return type is requested
	DefaultType() reflect.Type

	// IsCompatible reports whether a value of kind other may be used where
	// this codec's kind is expected
	IsCompatible(other Kind) bool

	// ValueOfString parses literal into a value of returnType. A nil
	// returnType, or an interface type the default type satisfies, selects
	// DefaultType.
	ValueOfString(literal *string, facets Facets, returnType reflect.Type) (any, error)

	// ValueToString formats value. A nil value formats to a nil literal.
	ValueToString(value any, facets Facets) (*string, error)

	// Validate reports whether literal would be accepted by ValueOfString
	Validate(literal *string, facets Facets) bool

	// ToURILiteral wraps a literal with the kind's URI prefix and suffix
	ToURILiteral(literal string) string

	// FromURILiteral strips the kind's URI prefix and suffix
	FromURILiteral(literal string) (string, error)
}

// primitive is the kind-specific part of a codec; the shared null and
// return-type handling lives in codec
type primitive interface {
	defaultType() reflect.Type
	parse(literal string, facets Facets, returnType reflect.Type) (any, error)
	format(value any, facets Facets) (string, error)
}

type codec struct {
	kind       Kind
	impl       primitive
	uriPrefix  string
	uriSuffix  string
	// legacy prefixes accepted by FromURILiteral only
	uriAliases []string
	compatible []Kind
}

var _ Codec = (*codec)(nil)

func (c *codec) Kind() Kind {
	return c.kind
}

func (c *codec) DefaultType() reflect.Type {
	return c.impl.defaultType()
}

func (c *codec) IsCompatible(other Kind) bool {
	if other == c.kind {
		return true
	}
	for _, k := range c.compatible {
		if k == other {
			return true
		}
	}
	return false
}

func (c *codec) ValueOfString(literal *string, facets Facets, returnType reflect.Type) (any, error) {
	if literal == nil {
		if facets.AllowsNull() {
			return nil, nil
		}
		return nil, &Error{Kind: ConstraintViolation, Type: c.kind, Detail: "the literal 'null' is not allowed"}
	}

	def := c.impl.defaultType()
	if returnType == nil || (returnType.Kind() == reflect.Interface && def.Implements(returnType)) {
		returnType = def
	}
	return c.impl.parse(*literal, facets, returnType)
}

func (c *codec) ValueToString(value any, facets Facets) (*string, error) {
	if isNil(value) {
		if facets.AllowsNull() {
			return nil, nil
		}
		return nil, &Error{Kind: ConstraintViolation, Type: c.kind, Detail: "the value null is not allowed"}
	}

	s, err := c.impl.format(value, facets)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *codec) Validate(literal *string, facets Facets) bool {
	_, err := c.ValueOfString(literal, facets, nil)
	return err == nil
}

func (c *codec) ToURILiteral(literal string) string {
	if c.uriPrefix == "" && c.uriSuffix == "" {
		return literal
	}
	if c.kind == String {
		literal = strings.ReplaceAll(literal, "'", "''")
	}
	return c.uriPrefix + literal + c.uriSuffix
}

func (c *codec) FromURILiteral(literal string) (string, error) {
	if c.uriPrefix == "" && c.uriSuffix == "" {
		return literal, nil
	}
	inner, ok := c.unwrap(literal, c.uriPrefix)
	for _, alias := range c.uriAliases {
		if ok {
			break
		}
		inner, ok = c.unwrap(literal, alias)
	}
	if !ok {
		return "", illegalContent(c.kind, literal)
	}
	if c.kind == String {
		// every quote inside must be doubled
		if strings.Count(inner, "'")%2 != 0 || strings.Contains(strings.ReplaceAll(inner, "''", ""), "'") {
			return "", illegalContent(c.kind, literal)
		}
		inner = strings.ReplaceAll(inner, "''", "'")
	}
	return inner, nil
}

func (c *codec) unwrap(literal, prefix string) (string, bool) {
	if len(literal) < len(prefix)+len(c.uriSuffix) ||
		!strings.HasPrefix(literal, prefix) || !strings.HasSuffix(literal, c.uriSuffix) {
		return "", false
	}
	return literal[len(prefix) : len(literal)-len(c.uriSuffix)], true
}

func (c *codec) String() string {
	return c.kind.FullQualifiedName()
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Parse parses a non-null literal into T. T = any selects the default type.
func Parse[T any](c Codec, literal string, facets Facets) (T, error) {
	var zero T
	v, err := c.ValueOfString(&literal, facets, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, typeNotSupported(c.Kind(), fmt.Sprintf("%T", zero))
	}
	return t, nil
}

// Format formats a value; a null value formats to the empty string
func Format(c Codec, value any, facets Facets) (string, error) {
	s, err := c.ValueToString(value, facets)
	if err != nil || s == nil {
		return "", err
	}
	return *s, nil
}

// Ptr returns a pointer to a literal, for use with ValueOfString and Validate
func Ptr(literal string) *string {
	return &literal
}

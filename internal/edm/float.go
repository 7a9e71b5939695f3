// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package edm

import (
	"math"
	"math/big"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Special literals for non-finite floating point values
const (
	LiteralPositiveInfinity = "INF"
	LiteralNegativeInfinity = "-INF"
	LiteralNaN              = "NaN"
)

// floatType implements Double and Single
type floatType struct {
	kind         Kind
	bits         int
	mantissaBits uint
	pattern      *regexp.Regexp
	def          reflect.Type
}

var (
	doubleType = floatType{
		kind:         Double,
		bits:         64,
		mantissaBits: 53,
		pattern:      regexp.MustCompile(`^[+-]?\d{1,17}(?:\.\d{1,17})?(?:[Ee][+-]?\d{1,3})?$`),
		def:          typeFloat64,
	}
	singleType = floatType{
		kind:         Single,
		bits:         32,
		mantissaBits: 24,
		pattern:      regexp.MustCompile(`^[+-]?\d{1,9}(?:\.\d{1,9})?(?:[Ee][+-]?\d{1,2})?$`),
		def:          typeFloat32,
	}
)

func (t floatType) defaultType() reflect.Type {
	return t.def
}

func (t floatType) parse(literal string, _ Facets, rt reflect.Type) (any, error) {
	var special float64
	switch literal {
	case LiteralPositiveInfinity:
		special = math.Inf(1)
	case LiteralNegativeInfinity:
		special = math.Inf(-1)
	case LiteralNaN:
		special = math.NaN()
	default:
		return t.parseFinite(literal, rt)
	}

	switch rt.Kind() {
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(special).Convert(rt).Interface(), nil
	}
	if rt == typeDecimal || isConvertibleNumeric(rt) {
		return nil, unconvertible(t.kind, literal, errNonFinite)
	}
	return nil, typeNotSupported(t.kind, rt.String())
}

func (t floatType) parseFinite(literal string, rt reflect.Type) (any, error) {
	if !t.pattern.MatchString(literal) {
		return nil, illegalContent(t.kind, literal)
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(literal, "+"))
	if err != nil {
		return nil, &Error{Kind: IllegalContent, Type: t.kind, Literal: literal, Err: err}
	}

	// the value must survive the trip through the floating point kind
	f, ok := exactFloat(d, t.bits)
	if !ok {
		return nil, &Error{Kind: IllegalContent, Type: t.kind, Literal: literal, Err: errInexact}
	}

	if k := rt.Kind(); k == reflect.Float64 || (k == reflect.Float32 && t.bits == 32) {
		return reflect.ValueOf(f).Convert(rt).Interface(), nil
	}
	return convertDecimal(t.kind, literal, d, rt)
}

func (t floatType) format(value any, _ Facets) (string, error) {
	switch v := value.(type) {
	case float64:
		if t.bits == 32 && !math.IsNaN(v) && float64(float32(v)) != v {
			return "", valueNotValid(t.kind, value)
		}
		return t.formatFloat(v, t.bits), nil
	case float32:
		return t.formatFloat(float64(v), 32), nil
	case decimal.Decimal:
		f, ok := exactFloat(v, t.bits)
		if !ok {
			return "", valueNotValid(t.kind, value)
		}
		return t.formatFloat(f, t.bits), nil
	}

	n, ok := integerOf(value)
	if !ok {
		return "", typeNotSupported(t.kind, reflect.TypeOf(value).String())
	}
	limit := new(big.Int).Lsh(big.NewInt(1), t.mantissaBits)
	if new(big.Int).Abs(n).Cmp(limit) > 0 {
		return "", valueNotValid(t.kind, value)
	}
	return n.String(), nil
}

// formatFloat writes the shortest decimal that round-trips, in plain form when
// it fits the kind's grammar and as mantissa/exponent otherwise
func (t floatType) formatFloat(f float64, bits int) string {
	switch {
	case math.IsInf(f, 1):
		return LiteralPositiveInfinity
	case math.IsInf(f, -1):
		return LiteralNegativeInfinity
	case math.IsNaN(f):
		return LiteralNaN
	}

	s := strconv.FormatFloat(f, 'f', -1, bits)
	if t.pattern.MatchString(s) {
		return s
	}

	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(f, 'E', -1, bits), "E")
	n, _ := strconv.Atoi(exp)
	return mantissa + "E" + strconv.Itoa(n)
}

func isConvertibleNumeric(rt reflect.Type) bool {
	if rt == typeBigInt {
		return true
	}
	switch rt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.String:
		return true
	}
	return false
}

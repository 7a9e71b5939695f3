// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package edm

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var decimalPattern = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?(?:[Ee][+-]?\d+)?$`)

// maxDecimalDigits bounds the plain form of a decimal, which grows with the
// exponent
const maxDecimalDigits = 10000

var errDecimalRange = errors.New("exponent out of range")

type decimalType struct{}

func (decimalType) defaultType() reflect.Type {
	return typeDecimal
}

func (decimalType) parse(literal string, facets Facets, rt reflect.Type) (any, error) {
	if !decimalPattern.MatchString(literal) {
		return nil, illegalContent(Decimal, literal)
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(literal, "+"))
	if err != nil {
		return nil, &Error{Kind: IllegalContent, Type: Decimal, Literal: literal, Err: err}
	}

	digits, decimals := digitsOf(d)
	if err := checkPrecisionScale(Decimal, literal, digits, decimals, facets); err != nil {
		return nil, err
	}
	if digits+decimals > maxDecimalDigits {
		return nil, unconvertible(Decimal, literal, errDecimalRange)
	}
	return convertDecimal(Decimal, literal, d, rt)
}

func (decimalType) format(value any, facets Facets) (string, error) {
	d, err := decimalOf(Decimal, value)
	if err != nil {
		return "", err
	}

	digits, decimals := digitsOf(d)
	if digits+decimals > maxDecimalDigits {
		return "", valueNotValid(Decimal, value)
	}
	s := d.String()
	if err := checkPrecisionScale(Decimal, s, digits, decimals, facets); err != nil {
		return "", err
	}
	return s, nil
}

func checkPrecisionScale(k Kind, literal string, digits, decimals int, facets Facets) error {
	if !facets.withinPrecision(digits + decimals) {
		return facetMismatch(k, literal, fmt.Sprintf("%d digits exceed precision %d", digits+decimals, *facets.Precision))
	}
	if !facets.withinScale(decimals) {
		return facetMismatch(k, literal, fmt.Sprintf("%d decimals exceed scale %d", decimals, *facets.Scale))
	}
	return nil
}

// countDigits counts significant integer digits and decimals of a canonical
// plain decimal string such as "-12.5"
func countDigits(s string) (digits, decimals int) {
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	digits = len(intPart)
	if intPart == "0" {
		digits = 0
	}
	return digits, len(frac)
}

// digitsOf counts the significant integer digits and decimals of d as
// countDigits would on d.String(), without building the plain form
func digitsOf(d decimal.Decimal) (digits, decimals int) {
	coef := d.Coefficient()
	if coef.Sign() == 0 {
		return 0, 0
	}
	c := strings.TrimPrefix(coef.String(), "-")
	trimmed := strings.TrimRight(c, "0")
	n, exp := int64(len(trimmed)), int64(d.Exponent())+int64(len(c)-len(trimmed))
	if exp >= 0 {
		return clampDigits(n + exp), 0
	}
	return clampDigits(max(n+exp, 0)), clampDigits(-exp)
}

func clampDigits(n int64) int {
	return int(min(n, math.MaxInt32))
}

// decimalOf converts a host numeric value to an exact decimal
func decimalOf(k Kind, value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case *decimal.Decimal:
		return *v, nil
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return decimal.Decimal{}, valueNotValid(k, value)
		}
		return decimal.NewFromFloat(v), nil
	case float32:
		if math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
			return decimal.Decimal{}, valueNotValid(k, value)
		}
		return decimal.NewFromFloat32(v), nil
	}

	if n, ok := integerOf(value); ok {
		return decimal.NewFromBigInt(n, 0), nil
	}
	return decimal.Decimal{}, typeNotSupported(k, reflect.TypeOf(value).String())
}

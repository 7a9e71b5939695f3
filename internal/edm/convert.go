// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package edm

import (
	"errors"
	"math"
	"math/big"
	"reflect"
	"strconv"

	"github.com/shopspring/decimal"
)

var (
	typeBool     = reflect.TypeOf(false)
	typeString   = reflect.TypeOf("")
	typeInt8     = reflect.TypeOf(int8(0))
	typeUint8    = reflect.TypeOf(uint8(0))
	typeInt16    = reflect.TypeOf(int16(0))
	typeInt32    = reflect.TypeOf(int32(0))
	typeInt64    = reflect.TypeOf(int64(0))
	typeFloat32  = reflect.TypeOf(float32(0))
	typeFloat64  = reflect.TypeOf(float64(0))
	typeBytes    = reflect.TypeOf([]byte(nil))
	typeBigInt   = reflect.TypeOf((*big.Int)(nil))
	typeDecimal  = reflect.TypeOf(decimal.Decimal{})
	errOverflow  = errors.New("value out of range for the requested type")
	errFraction  = errors.New("value has a fractional part")
	errInexact   = errors.New("value cannot be represented exactly")
	errNonFinite = errors.New("infinite or NaN values only convert to floating point types")
)

// convertInteger converts a parsed integral value to the requested host type
func convertInteger(k Kind, literal string, n *big.Int, rt reflect.Type) (any, error) {
	if rt == typeBigInt {
		return new(big.Int).Set(n), nil
	}
	if rt == typeDecimal {
		return decimal.NewFromBigInt(n, 0), nil
	}

	switch rt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := reflect.New(rt).Elem()
		if !n.IsInt64() || v.OverflowInt(n.Int64()) {
			return nil, unconvertible(k, literal, errOverflow)
		}
		v.SetInt(n.Int64())
		return v.Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := reflect.New(rt).Elem()
		if n.Sign() < 0 || !n.IsUint64() || v.OverflowUint(n.Uint64()) {
			return nil, unconvertible(k, literal, errOverflow)
		}
		v.SetUint(n.Uint64())
		return v.Interface(), nil
	}
	return nil, typeNotSupported(k, rt.String())
}

// convertDecimal converts an exact decimal to the requested host type.
// Conversions that would lose information are Unconvertible.
func convertDecimal(k Kind, literal string, d decimal.Decimal, rt reflect.Type) (any, error) {
	switch {
	case rt == typeDecimal:
		return d, nil
	case rt == typeBigInt:
		if !d.IsInteger() {
			return nil, unconvertible(k, literal, errFraction)
		}
		return d.BigInt(), nil
	}

	switch rt.Kind() {
	case reflect.Float32, reflect.Float64:
		bits := 64
		if rt.Kind() == reflect.Float32 {
			bits = 32
		}
		f, ok := exactFloat(d, bits)
		if !ok {
			return nil, unconvertible(k, literal, errInexact)
		}
		return reflect.ValueOf(f).Convert(rt).Interface(), nil
	case reflect.String:
		return reflect.ValueOf(d.String()).Convert(rt).Interface(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if !d.IsInteger() {
			return nil, unconvertible(k, literal, errFraction)
		}
		return convertInteger(k, literal, d.BigInt(), rt)
	}
	return nil, typeNotSupported(k, rt.String())
}

// exactFloat converts d to a float of the given bit size and reports whether
// the shortest decimal form of the result compares equal to d
func exactFloat(d decimal.Decimal, bits int) (float64, bool) {
	f, err := strconv.ParseFloat(d.String(), bits)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	if bits == 32 {
		return f, decimal.NewFromFloat32(float32(f)).Equal(d)
	}
	return f, decimal.NewFromFloat(f).Equal(d)
}

// integerOf extracts an arbitrary-precision integer from any Go integer value
func integerOf(value any) (*big.Int, bool) {
	switch v := value.(type) {
	case *big.Int:
		return v, true
	case big.Int:
		return &v, true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()), true
	}
	return nil, false
}

// bitLength is the minimal two's-complement width of n, excluding the sign bit
func bitLength(n *big.Int) int {
	if n.Sign() >= 0 {
		return n.BitLen()
	}
	// for negative n the width is that of -n-1
	return new(big.Int).Sub(new(big.Int).Neg(n), big.NewInt(1)).BitLen()
}

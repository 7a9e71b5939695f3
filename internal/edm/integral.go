// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package edm

import (
	"math"
	"math/big"
	"reflect"
)

// integralType implements Byte, SByte, Int16, Int32 and Int64
type integralType struct {
	kind     Kind
	min, max int64
	width    int // two's-complement width; Byte is unsigned
	def      reflect.Type
}

var (
	byteType  = integralType{kind: Byte, min: 0, max: math.MaxUint8, width: 8, def: typeUint8}
	sbyteType = integralType{kind: SByte, min: math.MinInt8, max: math.MaxInt8, width: 8, def: typeInt8}
	int16Type = integralType{kind: Int16, min: math.MinInt16, max: math.MaxInt16, width: 16, def: typeInt16}
	int32Type = integralType{kind: Int32, min: math.MinInt32, max: math.MaxInt32, width: 32, def: typeInt32}
	int64Type = integralType{kind: Int64, min: math.MinInt64, max: math.MaxInt64, width: 64, def: typeInt64}
)

func (t integralType) defaultType() reflect.Type {
	return t.def
}

func (t integralType) parse(literal string, _ Facets, rt reflect.Type) (any, error) {
	n, ok := new(big.Int).SetString(literal, 10)
	if !ok || !t.inRange(n) {
		return nil, illegalContent(t.kind, literal)
	}
	return convertInteger(t.kind, literal, n, rt)
}

func (t integralType) format(value any, _ Facets) (string, error) {
	n, ok := integerOf(value)
	if !ok {
		return "", typeNotSupported(t.kind, reflect.TypeOf(value).String())
	}

	if _, isBig := value.(*big.Int); isBig {
		if !t.fitsBitLength(n) {
			return "", valueNotValid(t.kind, value)
		}
	} else if !t.inRange(n) {
		return "", valueNotValid(t.kind, value)
	}
	return n.String(), nil
}

func (t integralType) inRange(n *big.Int) bool {
	return n.IsInt64() && n.Int64() >= t.min && n.Int64() <= t.max
}

func (t integralType) fitsBitLength(n *big.Int) bool {
	if t.min == 0 {
		return n.Sign() >= 0 && n.BitLen() <= t.width
	}
	return bitLength(n) < t.width
}

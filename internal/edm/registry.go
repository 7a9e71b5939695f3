// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package edm

import (
	"fmt"

	"github.com/zmcp/odata-edm/internal/geo"
)

// Kinds whose values widen without loss into the codec's kind
var (
	int16s   = []Kind{Byte, SByte}
	int32s   = []Kind{Byte, SByte, Int16}
	int64s   = []Kind{Byte, SByte, Int16, Int32}
	integers = []Kind{Byte, SByte, Int16, Int32, Int64}
	doubles  = []Kind{Byte, SByte, Int16, Int32, Int64, Single}
)

// registry is filled once at package initialization and only read afterwards
var registry = func() [kindCount]*codec {
	var r [kindCount]*codec
	for k := Kind(0); k < kindCount; k++ {
		r[k] = newCodec(k)
	}
	return r
}()

// Lookup returns the codec for kind
func Lookup(kind Kind) (Codec, error) {
	if !kind.valid() {
		return nil, &Error{Kind: TypeNotSupported, Type: kind, Detail: fmt.Sprintf("unknown kind %d", int(kind))}
	}
	return registry[kind], nil
}

// MustLookup is like Lookup but panics on an unknown kind
func MustLookup(kind Kind) Codec {
	c, err := Lookup(kind)
	if err != nil {
		panic(err)
	}
	return c
}

// LookupName resolves a type name such as "Edm.Int32" or "Int32"
func LookupName(name string) (Codec, error) {
	k, ok := ParseKind(name)
	if !ok {
		return nil, &Error{Kind: TypeNotSupported, Type: -1, Detail: fmt.Sprintf("unknown type name '%s'", name)}
	}
	return Lookup(k)
}

func newCodec(k Kind) *codec {
	c := &codec{kind: k}
	switch k {
	case Binary:
		c.impl, c.uriPrefix, c.uriSuffix = binaryType{}, "binary'", "'"
	case Boolean:
		c.impl = booleanType{}
	case Byte:
		c.impl = byteType
	case SByte:
		c.impl = sbyteType
	case Int16:
		c.impl, c.compatible = int16Type, int16s
	case Int32:
		c.impl, c.compatible = int32Type, int32s
	case Int64:
		c.impl, c.compatible = int64Type, int64s
	case Single:
		c.impl, c.compatible = singleType, integers
	case Double:
		c.impl, c.compatible = doubleType, doubles
	case Decimal:
		c.impl, c.compatible = decimalType{}, integers
	case Date:
		c.impl = dateType{}
	case DateTime:
		c.impl, c.uriPrefix, c.uriSuffix = dateTimeType{}, "datetime'", "'"
	case DateTimeOffset:
		c.impl = dateTimeOffsetType{}
	case Duration:
		c.impl, c.uriPrefix, c.uriSuffix = durationType{}, "duration'", "'"
		c.uriAliases = []string{"time'"}
	case TimeOfDay:
		c.impl = timeOfDayType{}
	case Guid:
		c.impl = guidType{}
	case String:
		c.impl, c.uriPrefix, c.uriSuffix = stringType{}, "'", "'"
	case Stream:
		c.impl = streamType{}
	default:
		c.impl = newGeoType(k)
	}
	return c
}

func newGeoType(k Kind) geoType {
	dim, offset := geo.Geography, k-GeographyPoint
	if k >= GeometryPoint {
		dim, offset = geo.Geometry, k-GeometryPoint
	}
	return geoType{kind: k, dimension: dim, shape: geo.Shape(offset)}
}

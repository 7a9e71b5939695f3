// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package edm

import (
	"fmt"
	"strings"
)

// Kind identifies an EDM primitive type
type Kind int

// EDM primitive type kinds
const (
	Binary Kind = iota
	Boolean
	Byte
	SByte
	Date
	DateTime
	DateTimeOffset
	Duration
	Decimal
	Single
	Double
	Guid
	Int16
	Int32
	Int64
	String
	Stream
	TimeOfDay

	GeographyPoint
	GeographyLineString
	GeographyPolygon
	GeographyMultiPoint
	GeographyMultiLineString
	GeographyMultiPolygon
	GeographyCollection

	GeometryPoint
	GeometryLineString
	GeometryPolygon
	GeometryMultiPoint
	GeometryMultiLineString
	GeometryMultiPolygon
	GeometryCollection

	kindCount
)

// EdmNamespace is the namespace prefix of all primitive type names
const EdmNamespace = "Edm"

var kindNames = [kindCount]string{
	Binary:                   "Binary",
	Boolean:                  "Boolean",
	Byte:                     "Byte",
	SByte:                    "SByte",
	Date:                     "Date",
	DateTime:                 "DateTime",
	DateTimeOffset:           "DateTimeOffset",
	Duration:                 "Duration",
	Decimal:                  "Decimal",
	Single:                   "Single",
	Double:                   "Double",
	Guid:                     "Guid",
	Int16:                    "Int16",
	Int32:                    "Int32",
	Int64:                    "Int64",
	String:                   "String",
	Stream:                   "Stream",
	TimeOfDay:                "TimeOfDay",
	GeographyPoint:           "GeographyPoint",
	GeographyLineString:      "GeographyLineString",
	GeographyPolygon:         "GeographyPolygon",
	GeographyMultiPoint:      "GeographyMultiPoint",
	GeographyMultiLineString: "GeographyMultiLineString",
	GeographyMultiPolygon:    "GeographyMultiPolygon",
	GeographyCollection:      "GeographyCollection",
	GeometryPoint:            "GeometryPoint",
	GeometryLineString:       "GeometryLineString",
	GeometryPolygon:          "GeometryPolygon",
	GeometryMultiPoint:       "GeometryMultiPoint",
	GeometryMultiLineString:  "GeometryMultiLineString",
	GeometryMultiPolygon:     "GeometryMultiPolygon",
	GeometryCollection:       "GeometryCollection",
}

// legacyNames maps OData v2/v3 type names onto v4 kinds
var legacyNames = map[string]Kind{
	"Time": Duration,
}

// String returns the short type name, e.g. "Int32"
func (k Kind) String() string {
	if !k.valid() {
		return "Unknown"
	}
	return kindNames[k]
}

// FullQualifiedName returns the namespace-qualified name, e.g. "Edm.Int32"
func (k Kind) FullQualifiedName() string {
	return EdmNamespace + "." + k.String()
}

// IsGeospatial reports whether the kind is one of the Geography/Geometry shapes
func (k Kind) IsGeospatial() bool {
	return k >= GeographyPoint && k <= GeometryCollection
}

func (k Kind) valid() bool {
	return k >= 0 && k < kindCount
}

// ParseKind resolves "Int32" or "Edm.Int32" to its kind
func ParseKind(name string) (Kind, bool) {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, EdmNamespace+".")

	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	if k, ok := legacyNames[name]; ok {
		return k, true
	}
	return 0, false
}

// Kinds returns every primitive kind in declaration order
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// MarshalText writes the qualified name, so kinds read well in JSON output
func (k Kind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("invalid kind %d", int(k))
	}
	return []byte(k.FullQualifiedName()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	v, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown primitive type %q", text)
	}
	*k = v
	return nil
}

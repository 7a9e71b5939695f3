// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

// Package geo holds the geospatial values carried by the Edm.Geography* and
// Edm.Geometry* primitive types.
//
// Every value records its Dimension and SRID. Members of a multi-shape or a
// collection share the dimension and SRID of their container.
package geo

import "strings"

// Dimension distinguishes round-earth (Geography) from flat-earth (Geometry) coordinates
type Dimension int

const (
	Geography Dimension = iota
	Geometry
)

// Default SRIDs applied by NewBase
const (
	DefaultGeographySRID = 4326
	DefaultGeometrySRID  = 0
)

// String returns the lower-case literal prefix, "geography" or "geometry"
func (d Dimension) String() string {
	if d == Geometry {
		return "geometry"
	}
	return "geography"
}

// DefaultSRID returns the SRID assumed when none is given
func (d Dimension) DefaultSRID() int {
	if d == Geometry {
		return DefaultGeometrySRID
	}
	return DefaultGeographySRID
}

// ParseDimension reads the literal prefix; it is case sensitive
func ParseDimension(s string) (Dimension, bool) {
	switch s {
	case "geography":
		return Geography, true
	case "geometry":
		return Geometry, true
	}
	return 0, false
}

// Shape names the geometric form of a value
type Shape int

const (
	ShapePoint Shape = iota
	ShapeLineString
	ShapePolygon
	ShapeMultiPoint
	ShapeMultiLineString
	ShapeMultiPolygon
	ShapeCollection
)

var shapeNames = []string{
	ShapePoint:           "Point",
	ShapeLineString:      "LineString",
	ShapePolygon:         "Polygon",
	ShapeMultiPoint:      "MultiPoint",
	ShapeMultiLineString: "MultiLineString",
	ShapeMultiPolygon:    "MultiPolygon",
	ShapeCollection:      "Collection",
}

// String returns the shape name as written in literals, e.g. "MultiPoint"
func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return "Unknown"
	}
	return shapeNames[s]
}

// ParseShape resolves a literal shape name; matching ignores case
func ParseShape(name string) (Shape, bool) {
	for i, n := range shapeNames {
		if strings.EqualFold(n, name) {
			return Shape(i), true
		}
	}
	return 0, false
}

// Base carries the attributes shared by every geospatial value
type Base struct {
	Dimension Dimension
	SRID      int
}

// NewBase returns a Base with the dimension's default SRID
func NewBase(d Dimension) Base {
	return Base{Dimension: d, SRID: d.DefaultSRID()}
}

func (b Base) base() Base {
	return b
}

// Geospatial is implemented by the shapes of this package only
type Geospatial interface {
	Shape() Shape
	base() Base
}

// BaseOf returns the dimension and SRID of g
func BaseOf(g Geospatial) Base {
	return g.base()
}

// Point is a single x/y position
type Point struct {
	Base
	X, Y float64
}

func (Point) Shape() Shape { return ShapePoint }

// LineString is an ordered sequence of points
type LineString struct {
	Base
	Points []Point
}

func (LineString) Shape() Shape { return ShapeLineString }

// Polygon is an exterior ring with zero or more interior rings (holes).
// Literals list the interior rings first and the exterior ring last.
type Polygon struct {
	Base
	Interiors []LineString
	Exterior  LineString
}

func (Polygon) Shape() Shape { return ShapePolygon }

// MultiPoint is an ordered sequence of points
type MultiPoint struct {
	Base
	Points []Point
}

func (MultiPoint) Shape() Shape { return ShapeMultiPoint }

// MultiLineString is an ordered sequence of line strings
type MultiLineString struct {
	Base
	LineStrings []LineString
}

func (MultiLineString) Shape() Shape { return ShapeMultiLineString }

// MultiPolygon is an ordered sequence of polygons
type MultiPolygon struct {
	Base
	Polygons []Polygon
}

func (MultiPolygon) Shape() Shape { return ShapeMultiPolygon }

// Collection is an ordered, heterogeneous sequence of shapes
type Collection struct {
	Base
	Items []Geospatial
}

func (Collection) Shape() Shape { return ShapeCollection }

// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package edm

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/zmcp/odata-edm/internal/geo"
)

// Literal grammar. Shape and dimension checks happen after matching.
var (
	geoPattern           = regexp.MustCompile(`^([a-z]+)'SRID=(\d+);([A-Za-z]+)\((.*)\)'$`)
	geoCollectionPattern = regexp.MustCompile(`^([a-z]+)'SRID=(\d+);Collection\((.*)\)'$`)
	geoItemPattern       = regexp.MustCompile(`^([A-Za-z]+)\((.*)\)$`)
)

// geoLiteral is a matched but not yet validated geospatial literal
type geoLiteral struct {
	dimension string
	srid      string
	shape     string // empty for collections
	body      string
}

func matchGeoLiteral(literal string, collection bool) (geoLiteral, bool) {
	if collection {
		m := geoCollectionPattern.FindStringSubmatch(literal)
		if m == nil {
			return geoLiteral{}, false
		}
		return geoLiteral{dimension: m[1], srid: m[2], shape: geo.ShapeCollection.String(), body: m[3]}, true
	}

	m := geoPattern.FindStringSubmatch(literal)
	if m == nil {
		return geoLiteral{}, false
	}
	return geoLiteral{dimension: m[1], srid: m[2], shape: m[3], body: m[4]}, true
}

var geoDefaultTypes = map[geo.Shape]reflect.Type{
	geo.ShapePoint:           reflect.TypeOf(geo.Point{}),
	geo.ShapeLineString:      reflect.TypeOf(geo.LineString{}),
	geo.ShapePolygon:         reflect.TypeOf(geo.Polygon{}),
	geo.ShapeMultiPoint:      reflect.TypeOf(geo.MultiPoint{}),
	geo.ShapeMultiLineString: reflect.TypeOf(geo.MultiLineString{}),
	geo.ShapeMultiPolygon:    reflect.TypeOf(geo.MultiPolygon{}),
	geo.ShapeCollection:      reflect.TypeOf(geo.Collection{}),
}

// geoType implements one (dimension, shape) pair
type geoType struct {
	kind      Kind
	dimension geo.Dimension
	shape     geo.Shape
}

func (t geoType) defaultType() reflect.Type {
	return geoDefaultTypes[t.shape]
}

func (t geoType) parse(literal string, _ Facets, rt reflect.Type) (any, error) {
	lit, ok := matchGeoLiteral(literal, t.shape == geo.ShapeCollection)
	if !ok {
		return nil, illegalContent(t.kind, literal)
	}
	base, err := t.checkHeader(literal, lit)
	if err != nil {
		return nil, err
	}

	p := geoParser{kind: t.kind, literal: literal, base: base}
	value, err := p.shape(t.shape, lit.body)
	if err != nil {
		return nil, err
	}
	if rt != t.defaultType() {
		return nil, typeNotSupported(t.kind, rt.String())
	}
	return value, nil
}

// checkHeader verifies the dimension and shape name against the codec
func (t geoType) checkHeader(literal string, lit geoLiteral) (geo.Base, error) {
	d, ok := geo.ParseDimension(lit.dimension)
	if !ok || d != t.dimension {
		return geo.Base{}, &Error{Kind: IllegalContent, Type: t.kind, Literal: literal,
			Detail: fmt.Sprintf("expected dimension %s", t.dimension)}
	}
	if lit.shape != t.shape.String() {
		return geo.Base{}, &Error{Kind: IllegalContent, Type: t.kind, Literal: literal,
			Detail: fmt.Sprintf("expected shape %s", t.shape)}
	}
	srid, err := strconv.Atoi(lit.srid)
	if err != nil {
		return geo.Base{}, &Error{Kind: IllegalContent, Type: t.kind, Literal: literal, Err: err}
	}
	return geo.Base{Dimension: d, SRID: srid}, nil
}

func (t geoType) format(value any, _ Facets) (string, error) {
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Pointer {
		value = rv.Elem().Interface()
	}
	g, ok := value.(geo.Geospatial)
	if !ok || g.Shape() != t.shape {
		return "", typeNotSupported(t.kind, reflect.TypeOf(value).String())
	}
	base := geo.BaseOf(g)
	if base.Dimension != t.dimension {
		return "", valueNotValid(t.kind, fmt.Sprintf("%s value", base.Dimension))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s'SRID=%d;", t.dimension, base.SRID)
	writeGeoItem(&b, g)
	b.WriteByte('\'')
	return b.String(), nil
}

// geoParser parses literal bodies; every member takes the container's base
type geoParser struct {
	kind    Kind
	literal string
	base    geo.Base
}

func (p geoParser) fail(detail string, cause error) error {
	return &Error{Kind: IllegalContent, Type: p.kind, Literal: p.literal, Detail: detail, Err: cause}
}

func (p geoParser) shape(s geo.Shape, body string) (geo.Geospatial, error) {
	switch s {
	case geo.ShapePoint:
		return p.point(body)
	case geo.ShapeLineString:
		return p.lineString(body)
	case geo.ShapePolygon:
		return p.polygon(body)
	case geo.ShapeMultiPoint:
		return p.multiPoint(body)
	case geo.ShapeMultiLineString:
		return p.multiLineString(body)
	case geo.ShapeMultiPolygon:
		return p.multiPolygon(body)
	case geo.ShapeCollection:
		return p.collection(body)
	}
	return nil, p.fail("unknown shape", nil)
}

// point reads "x y"; each coordinate goes through the Double grammar
func (p geoParser) point(s string) (geo.Point, error) {
	coords := strings.Split(strings.TrimSpace(s), " ")
	if len(coords) != 2 {
		return geo.Point{}, p.fail(fmt.Sprintf("point '%s' needs two coordinates", s), nil)
	}

	var xy [2]float64
	for i, c := range coords {
		v, err := doubleType.parse(c, NoFacets(), typeFloat64)
		if err != nil {
			return geo.Point{}, p.fail("bad coordinate", err)
		}
		xy[i] = v.(float64)
	}
	return geo.Point{Base: p.base, X: xy[0], Y: xy[1]}, nil
}

func (p geoParser) lineString(s string) (geo.LineString, error) {
	var points []geo.Point
	for _, part := range strings.Split(s, ",") {
		pt, err := p.point(part)
		if err != nil {
			return geo.LineString{}, err
		}
		points = append(points, pt)
	}
	return geo.LineString{Base: p.base, Points: points}, nil
}

// polygon reads "(ring),(ring),...": the last ring is the exterior, the
// rings before it are interiors
func (p geoParser) polygon(s string) (geo.Polygon, error) {
	inner, ok := trimEnclosing(strings.TrimSpace(s), "(", ")")
	if !ok {
		return geo.Polygon{}, p.fail("polygon rings must be parenthesized", nil)
	}

	rings := strings.Split(inner, "),(")
	var interiors []geo.LineString
	for _, r := range rings[:len(rings)-1] {
		ring, err := p.lineString(r)
		if err != nil {
			return geo.Polygon{}, err
		}
		interiors = append(interiors, ring)
	}
	exterior, err := p.lineString(rings[len(rings)-1])
	if err != nil {
		return geo.Polygon{}, err
	}
	return geo.Polygon{Base: p.base, Interiors: interiors, Exterior: exterior}, nil
}

func (p geoParser) multiPoint(s string) (geo.MultiPoint, error) {
	mp := geo.MultiPoint{Base: p.base}
	if strings.TrimSpace(s) == "" {
		return mp, nil
	}
	for _, part := range strings.Split(s, ",") {
		inner, ok := trimEnclosing(strings.TrimSpace(part), "(", ")")
		if !ok {
			return geo.MultiPoint{}, p.fail(fmt.Sprintf("multi point member '%s' must be parenthesized", part), nil)
		}
		pt, err := p.point(inner)
		if err != nil {
			return geo.MultiPoint{}, err
		}
		mp.Points = append(mp.Points, pt)
	}
	return mp, nil
}

func (p geoParser) multiLineString(s string) (geo.MultiLineString, error) {
	ml := geo.MultiLineString{Base: p.base}
	if strings.TrimSpace(s) == "" {
		return ml, nil
	}
	inner, ok := trimEnclosing(strings.TrimSpace(s), "(", ")")
	if !ok {
		return geo.MultiLineString{}, p.fail("line strings must be parenthesized", nil)
	}
	for _, part := range strings.Split(inner, "),(") {
		ls, err := p.lineString(part)
		if err != nil {
			return geo.MultiLineString{}, err
		}
		ml.LineStrings = append(ml.LineStrings, ls)
	}
	return ml, nil
}

func (p geoParser) multiPolygon(s string) (geo.MultiPolygon, error) {
	mp := geo.MultiPolygon{Base: p.base}
	if strings.TrimSpace(s) == "" {
		return mp, nil
	}
	inner, ok := trimEnclosing(strings.TrimSpace(s), "((", "))")
	if !ok {
		return geo.MultiPolygon{}, p.fail("polygons must be double parenthesized", nil)
	}
	for _, part := range strings.Split(inner, ")),((") {
		pg, err := p.polygon("(" + part + ")")
		if err != nil {
			return geo.MultiPolygon{}, err
		}
		mp.Polygons = append(mp.Polygons, pg)
	}
	return mp, nil
}

// collection reads "Shape(...),Shape(...)", splitting on top-level commas
func (p geoParser) collection(s string) (geo.Collection, error) {
	c := geo.Collection{Base: p.base}
	items, ok := splitTopLevel(s)
	if !ok {
		return geo.Collection{}, p.fail("unbalanced parentheses", nil)
	}

	for _, item := range items {
		m := geoItemPattern.FindStringSubmatch(strings.TrimSpace(item))
		if m == nil {
			return geo.Collection{}, p.fail(fmt.Sprintf("collection member '%s' is not a shape", item), nil)
		}
		shape, ok := geo.ParseShape(m[1])
		if !ok || shape.String() != m[1] {
			return geo.Collection{}, p.fail(fmt.Sprintf("unknown shape '%s'", m[1]), nil)
		}
		g, err := p.shape(shape, m[2])
		if err != nil {
			return geo.Collection{}, err
		}
		c.Items = append(c.Items, g)
	}
	return c, nil
}

func trimEnclosing(s, open, close string) (string, bool) {
	if len(s) < len(open)+len(close) || !strings.HasPrefix(s, open) || !strings.HasSuffix(s, close) {
		return "", false
	}
	return s[len(open) : len(s)-len(close)], true
}

// splitTopLevel splits s on commas that are not nested in parentheses
func splitTopLevel(s string) ([]string, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}

	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, false
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, false
	}
	return append(parts, s[start:]), true
}

// writeGeoItem writes "Shape(body)" for any shape
func writeGeoItem(b *strings.Builder, g geo.Geospatial) {
	b.WriteString(g.Shape().String())
	b.WriteByte('(')
	switch v := g.(type) {
	case geo.Point:
		writePoint(b, v)
	case geo.LineString:
		writeLineString(b, v)
	case geo.Polygon:
		writePolygon(b, v)
	case geo.MultiPoint:
		for i, pt := range v.Points {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('(')
			writePoint(b, pt)
			b.WriteByte(')')
		}
	case geo.MultiLineString:
		for i, ls := range v.LineStrings {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('(')
			writeLineString(b, ls)
			b.WriteByte(')')
		}
	case geo.MultiPolygon:
		for i, pg := range v.Polygons {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('(')
			writePolygon(b, pg)
			b.WriteByte(')')
		}
	case geo.Collection:
		for i, item := range v.Items {
			if i > 0 {
				b.WriteByte(',')
			}
			writeGeoItem(b, item)
		}
	}
	b.WriteByte(')')
}

func writePoint(b *strings.Builder, p geo.Point) {
	b.WriteString(doubleType.formatFloat(p.X, 64))
	b.WriteByte(' ')
	b.WriteString(doubleType.formatFloat(p.Y, 64))
}

func writeLineString(b *strings.Builder, ls geo.LineString) {
	for i, p := range ls.Points {
		if i > 0 {
			b.WriteByte(',')
		}
		writePoint(b, p)
	}
}

// writePolygon writes the interior rings first and the exterior ring last
func writePolygon(b *strings.Builder, pg geo.Polygon) {
	for _, ring := range pg.Interiors {
		b.WriteByte('(')
		writeLineString(b, ring)
		b.WriteString("),")
	}
	b.WriteByte('(')
	writeLineString(b, pg.Exterior)
	b.WriteByte(')')
}

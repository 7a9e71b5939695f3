// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDimension(t *testing.T) {
	assert.Equal(t, "geography", Geography.String())
	assert.Equal(t, "geometry", Geometry.String())
	assert.Equal(t, 4326, Geography.DefaultSRID())
	assert.Equal(t, 0, Geometry.DefaultSRID())

	d, ok := ParseDimension("geometry")
	assert.True(t, ok)
	assert.Equal(t, Geometry, d)

	_, ok = ParseDimension("Geometry")
	assert.False(t, ok, "dimension prefix is lower case only")
}

func TestParseShape(t *testing.T) {
	tests := []struct {
		name     string
		expected Shape
		ok       bool
	}{
		{"Point", ShapePoint, true},
		{"point", ShapePoint, true},
		{"MultiPolygon", ShapeMultiPolygon, true},
		{"Collection", ShapeCollection, true},
		{"Triangle", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := ParseShape(tt.name)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, s)
			}
		})
	}
}

func TestBaseOf(t *testing.T) {
	p := Point{Base: NewBase(Geometry), X: 1, Y: 2}
	assert.Equal(t, Base{Dimension: Geometry, SRID: 0}, BaseOf(p))

	c := Collection{Base: Base{Dimension: Geography, SRID: 7}, Items: []Geospatial{p}}
	assert.Equal(t, 7, BaseOf(c).SRID)
	assert.Equal(t, ShapeCollection, c.Shape())
	assert.Equal(t, "MultiLineString", MultiLineString{}.Shape().String())
}

// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package edm

import "fmt"

// Facets are the constraints of one use site (a property or parameter).
// A nil field means the facet is unset.
type Facets struct {
	Nullable  *bool `json:"nullable,omitempty"`
	MaxLength *int  `json:"max_length,omitempty"`
	Precision *int  `json:"precision,omitempty"`
	Scale     *int  `json:"scale,omitempty"`
	Unicode   *bool `json:"unicode,omitempty"` // accepted but not enforced
}

// NoFacets returns a facet set with everything unset
func NoFacets() Facets {
	return Facets{}
}

// WithNullable returns a copy of f with Nullable set
func (f Facets) WithNullable(v bool) Facets {
	f.Nullable = &v
	return f
}

// WithMaxLength returns a copy of f with MaxLength set
func (f Facets) WithMaxLength(v int) Facets {
	f.MaxLength = &v
	return f
}

// WithPrecision returns a copy of f with Precision set
func (f Facets) WithPrecision(v int) Facets {
	f.Precision = &v
	return f
}

// WithScale returns a copy of f with Scale set
func (f Facets) WithScale(v int) Facets {
	f.Scale = &v
	return f
}

// WithUnicode returns a copy of f with Unicode set
func (f Facets) WithUnicode(v bool) Facets {
	f.Unicode = &v
	return f
}

// AllowsNull reports whether a null literal or value is acceptable
func (f Facets) AllowsNull() bool {
	return f.Nullable == nil || *f.Nullable
}

func (f Facets) String() string {
	return fmt.Sprintf("Nullable=%s MaxLength=%s Precision=%s Scale=%s Unicode=%s",
		optString(f.Nullable), optString(f.MaxLength), optString(f.Precision),
		optString(f.Scale), optString(f.Unicode))
}

func optString[T any](v *T) string {
	if v == nil {
		return "unset"
	}
	return fmt.Sprint(*v)
}

// withinMaxLength checks n against MaxLength; unset accepts everything
func (f Facets) withinMaxLength(n int) bool {
	return f.MaxLength == nil || n <= *f.MaxLength
}

// withinPrecision checks a digit count against Precision; unset accepts everything
func (f Facets) withinPrecision(digits int) bool {
	return f.Precision == nil || digits <= *f.Precision
}

// withinScale checks a fractional digit count against Scale; unset accepts everything
func (f Facets) withinScale(decimals int) bool {
	return f.Scale == nil || decimals <= *f.Scale
}

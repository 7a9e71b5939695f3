package models

import (
	"strings"
	"time"

	"github.com/zmcp/odata-edm/internal/edm"
)

// Property is a declared property or parameter together with its facets
type Property struct {
	Name         string     `json:"name"`
	Type         string     `json:"type"`      // declared type (e.g., "Edm.Decimal", "Collection(Edm.String)")
	Kind         edm.Kind   `json:"-"`         // meaningful only when Primitive
	Primitive    bool       `json:"primitive"` // false for complex, enum and entity types
	Collection   bool       `json:"collection,omitempty"`
	Facets       edm.Facets `json:"facets"`
	IsKey        bool       `json:"is_key,omitempty"`
	DefaultValue string     `json:"default_value,omitempty"` // v4 only
}

// Codec returns the codec for a primitive property
func (p *Property) Codec() (edm.Codec, bool) {
	if !p.Primitive {
		return nil, false
	}
	c, err := edm.Lookup(p.Kind)
	return c, err == nil
}

// StructuredType is an entity or complex type
type StructuredType struct {
	Name          string      `json:"name"`
	Namespace     string      `json:"namespace"`
	BaseType      string      `json:"base_type,omitempty"` // v4 only
	IsComplex     bool        `json:"is_complex,omitempty"`
	Properties    []*Property `json:"properties"`
	KeyProperties []string    `json:"key_properties,omitempty"`
}

// QualifiedName returns Namespace.Name
func (t *StructuredType) QualifiedName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Operation is a function import, function or action with typed parameters
type Operation struct {
	Name       string      `json:"name"`
	HTTPMethod string      `json:"http_method"`
	ReturnType string      `json:"return_type,omitempty"`
	Parameters []*Property `json:"parameters"`
	IsAction   bool        `json:"is_action,omitempty"` // v4 only
}

// Metadata holds the facet-relevant parts of a $metadata document
type Metadata struct {
	Version         string                     `json:"version"`
	SchemaNamespace string                     `json:"schema_namespace"`
	Types           map[string]*StructuredType `json:"types"` // keyed by qualified name
	Operations      map[string]*Operation      `json:"operations"`
	ParsedAt        time.Time                  `json:"parsed_at"`
}

// IsV4 reports whether the document declared OData 4.x
func (m *Metadata) IsV4() bool {
	return strings.HasPrefix(m.Version, "4.")
}

// Type resolves a qualified or unqualified type name
func (m *Metadata) Type(name string) (*StructuredType, bool) {
	if t, ok := m.Types[name]; ok {
		return t, true
	}
	var found *StructuredType
	for _, t := range m.Types {
		if t.Name == name {
			if found != nil {
				return nil, false // ambiguous across schemas
			}
			found = t
		}
	}
	return found, found != nil
}

// Properties returns the properties of a type including inherited ones,
// base type properties first
func (m *Metadata) Properties(t *StructuredType) []*Property {
	chain := m.baseChain(t)

	var props []*Property
	for i := len(chain) - 1; i >= 0; i-- {
		props = append(props, chain[i].Properties...)
	}
	return props
}

// DerivesFrom reports whether t is base or inherits from it
func (m *Metadata) DerivesFrom(t, base *StructuredType) bool {
	for _, cur := range m.baseChain(t) {
		if cur == base {
			return true
		}
	}
	return false
}

// baseChain lists t and its base types, most derived first; a cyclic
// BaseType ends the chain
func (m *Metadata) baseChain(t *StructuredType) []*StructuredType {
	var chain []*StructuredType
	seen := make(map[*StructuredType]bool)
	for cur := t; cur != nil && !seen[cur]; {
		seen[cur] = true
		chain = append(chain, cur)
		if cur.BaseType == "" {
			break
		}
		cur, _ = m.Type(cur.BaseType)
	}
	return chain
}

// Property finds a property of t by name, searching base types too
func (m *Metadata) Property(t *StructuredType, name string) (*Property, bool) {
	for _, p := range m.Properties(t) {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// MetadataSummary counts what was parsed
type MetadataSummary struct {
	Version            string `json:"version"`
	EntityTypes        int    `json:"entity_types"`
	ComplexTypes       int    `json:"complex_types"`
	Operations         int    `json:"operations"`
	PrimitiveProps     int    `json:"primitive_properties"`
	FacetedProps       int    `json:"faceted_properties"`
	NonNullableProps   int    `json:"non_nullable_properties"`
	UnsupportedTypeRef int    `json:"unsupported_type_refs"`
}

// Summarize builds a MetadataSummary
func (m *Metadata) Summarize() MetadataSummary {
	s := MetadataSummary{Version: m.Version, Operations: len(m.Operations)}
	for _, t := range m.Types {
		if t.IsComplex {
			s.ComplexTypes++
		} else {
			s.EntityTypes++
		}
		for _, p := range t.Properties {
			switch {
			case p.Primitive:
				s.PrimitiveProps++
			case strings.HasPrefix(p.Type, "Edm."):
				s.UnsupportedTypeRef++
			}
			f := p.Facets
			if f.MaxLength != nil || f.Precision != nil || f.Scale != nil || f.Unicode != nil {
				s.FacetedProps++
			}
			if !f.AllowsNull() {
				s.NonNullableProps++
			}
		}
	}
	return s
}

package metadata

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/zmcp/odata-edm/internal/constants"
	"github.com/zmcp/odata-edm/internal/models"
)

// EDMXV4 represents the root EDMX document for OData v4
type EDMXV4 struct {
	XMLName      xml.Name       `xml:"Edmx"`
	Version      string         `xml:"Version,attr"`
	DataServices DataServicesV4 `xml:"DataServices"`
}

// DataServicesV4 contains the schemas for OData v4
type DataServicesV4 struct {
	XMLName xml.Name   `xml:"DataServices"`
	Schemas []SchemaV4 `xml:"Schema"`
}

// SchemaV4 contains the types and operations of one namespace
type SchemaV4 struct {
	XMLName         xml.Name           `xml:"Schema"`
	Namespace       string             `xml:"Namespace,attr"`
	Alias           string             `xml:"Alias,attr"`
	EntityTypes     []EntityTypeV4     `xml:"EntityType"`
	ComplexTypes    []ComplexTypeV4    `xml:"ComplexType"`
	TypeDefinitions []TypeDefinitionV4 `xml:"TypeDefinition"`
	Functions       []FunctionV4       `xml:"Function"`
	Actions         []FunctionV4       `xml:"Action"`
}

// EntityTypeV4 represents an OData v4 entity type
type EntityTypeV4 struct {
	XMLName    xml.Name     `xml:"EntityType"`
	Name       string       `xml:"Name,attr"`
	BaseType   string       `xml:"BaseType,attr"`
	Abstract   string       `xml:"Abstract,attr"`
	OpenType   string       `xml:"OpenType,attr"`
	Key        KeyV4        `xml:"Key"`
	Properties []PropertyV4 `xml:"Property"`
}

// ComplexTypeV4 represents an OData v4 complex type
type ComplexTypeV4 struct {
	XMLName    xml.Name     `xml:"ComplexType"`
	Name       string       `xml:"Name,attr"`
	BaseType   string       `xml:"BaseType,attr"`
	Properties []PropertyV4 `xml:"Property"`
}

// TypeDefinitionV4 names a primitive type with fixed facets
type TypeDefinitionV4 struct {
	XMLName        xml.Name `xml:"TypeDefinition"`
	Name           string   `xml:"Name,attr"`
	UnderlyingType string   `xml:"UnderlyingType,attr"`
	MaxLength      string   `xml:"MaxLength,attr"`
	Precision      string   `xml:"Precision,attr"`
	Scale          string   `xml:"Scale,attr"`
	Unicode        string   `xml:"Unicode,attr"`
}

// KeyV4 contains key properties for OData v4
type KeyV4 struct {
	XMLName      xml.Name        `xml:"Key"`
	PropertyRefs []PropertyRefV4 `xml:"PropertyRef"`
}

// PropertyRefV4 references a key property in OData v4
type PropertyRefV4 struct {
	XMLName xml.Name `xml:"PropertyRef"`
	Name    string   `xml:"Name,attr"`
}

// PropertyV4 represents an entity property in OData v4
type PropertyV4 struct {
	XMLName      xml.Name `xml:"Property"`
	Name         string   `xml:"Name,attr"`
	Type         string   `xml:"Type,attr"`
	Nullable     string   `xml:"Nullable,attr"`
	MaxLength    string   `xml:"MaxLength,attr"`
	Precision    string   `xml:"Precision,attr"`
	Scale        string   `xml:"Scale,attr"`
	Unicode      string   `xml:"Unicode,attr"`
	DefaultValue string   `xml:"DefaultValue,attr"`
}

// FunctionV4 represents an OData v4 function or action
type FunctionV4 struct {
	Name       string        `xml:"Name,attr"`
	IsBound    string        `xml:"IsBound,attr"`
	Parameters []ParameterV4 `xml:"Parameter"`
	ReturnType *ReturnTypeV4 `xml:"ReturnType"`
}

// ParameterV4 represents a function/action parameter in OData v4
type ParameterV4 struct {
	XMLName   xml.Name `xml:"Parameter"`
	Name      string   `xml:"Name,attr"`
	Type      string   `xml:"Type,attr"`
	Nullable  string   `xml:"Nullable,attr"`
	MaxLength string   `xml:"MaxLength,attr"`
	Precision string   `xml:"Precision,attr"`
	Scale     string   `xml:"Scale,attr"`
}

// ReturnTypeV4 represents a function/action return type in OData v4
type ReturnTypeV4 struct {
	XMLName  xml.Name `xml:"ReturnType"`
	Type     string   `xml:"Type,attr"`
	Nullable string   `xml:"Nullable,attr"`
}

// ParseMetadataV4 parses OData v4 metadata XML
func ParseMetadataV4(data []byte) (*models.Metadata, error) {
	var edmx EDMXV4
	if err := xml.Unmarshal(data, &edmx); err != nil {
		return nil, fmt.Errorf("failed to parse v4 metadata XML: %w", err)
	}

	if len(edmx.DataServices.Schemas) == 0 {
		return nil, fmt.Errorf("no schemas found in metadata")
	}

	metadata := &models.Metadata{
		Version:         firstNonEmpty(edmx.Version, constants.GetODataVersion(edmx.XMLName.Space)),
		SchemaNamespace: edmx.DataServices.Schemas[0].Namespace,
		Types:           make(map[string]*models.StructuredType),
		Operations:      make(map[string]*models.Operation),
		ParsedAt:        time.Now(),
	}

	r := newTypeResolver(edmx.DataServices.Schemas)

	// Parse types from all schemas
	for _, schema := range edmx.DataServices.Schemas {
		for _, et := range schema.EntityTypes {
			t, err := r.structuredType(schema, et.Name, et.BaseType, et.Properties, false)
			if err != nil {
				return nil, fmt.Errorf("entity type %s: %w", et.Name, err)
			}
			for _, keyRef := range et.Key.PropertyRefs {
				t.KeyProperties = append(t.KeyProperties, keyRef.Name)
			}
			for _, p := range t.Properties {
				p.IsKey = contains(t.KeyProperties, p.Name)
			}
			metadata.Types[t.QualifiedName()] = t
		}
		for _, ct := range schema.ComplexTypes {
			t, err := r.structuredType(schema, ct.Name, ct.BaseType, ct.Properties, true)
			if err != nil {
				return nil, fmt.Errorf("complex type %s: %w", ct.Name, err)
			}
			metadata.Types[t.QualifiedName()] = t
		}

		for _, fn := range schema.Functions {
			op, err := r.operation(fn, constants.GET, false) // Functions are always GET in OData v4
			if err != nil {
				return nil, fmt.Errorf("function %s: %w", fn.Name, err)
			}
			metadata.Operations[fn.Name] = op
		}
		for _, action := range schema.Actions {
			op, err := r.operation(action, constants.POST, true) // Actions are always POST in OData v4
			if err != nil {
				return nil, fmt.Errorf("action %s: %w", action.Name, err)
			}
			metadata.Operations[action.Name] = op
		}
	}

	return metadata, nil
}

// typeResolver maps type definitions onto their underlying primitive type
type typeResolver struct {
	definitions map[string]TypeDefinitionV4 // keyed by namespace- and alias-qualified name
}

func newTypeResolver(schemas []SchemaV4) *typeResolver {
	r := &typeResolver{definitions: make(map[string]TypeDefinitionV4)}
	for _, schema := range schemas {
		for _, td := range schema.TypeDefinitions {
			r.definitions[schema.Namespace+"."+td.Name] = td
			if schema.Alias != "" {
				r.definitions[schema.Alias+"."+td.Name] = td
			}
		}
	}
	return r
}

func (r *typeResolver) structuredType(schema SchemaV4, name, baseType string, props []PropertyV4, complex bool) (*models.StructuredType, error) {
	t := &models.StructuredType{
		Name:       name,
		Namespace:  schema.Namespace,
		BaseType:   normalizeTypeV4(baseType, schema),
		IsComplex:  complex,
		Properties: make([]*models.Property, 0, len(props)),
	}

	for _, prop := range props {
		p, err := r.property(prop.Name, prop.Type, facetAttrs{
			nullable:  prop.Nullable,
			maxLength: prop.MaxLength,
			precision: prop.Precision,
			scale:     prop.Scale,
			unicode:   prop.Unicode,
		})
		if err != nil {
			return nil, err
		}
		p.DefaultValue = prop.DefaultValue
		t.Properties = append(t.Properties, p)
	}
	return t, nil
}

func (r *typeResolver) operation(fn FunctionV4, method string, isAction bool) (*models.Operation, error) {
	op := &models.Operation{
		Name:       fn.Name,
		HTTPMethod: method,
		IsAction:   isAction,
		Parameters: make([]*models.Property, 0, len(fn.Parameters)),
	}
	if fn.ReturnType != nil {
		op.ReturnType = fn.ReturnType.Type
	}

	for i, param := range fn.Parameters {
		if i == 0 && fn.IsBound == "true" {
			continue // Skip binding parameters
		}
		p, err := r.property(param.Name, param.Type, facetAttrs{
			nullable:  param.Nullable,
			maxLength: param.MaxLength,
			precision: param.Precision,
			scale:     param.Scale,
		})
		if err != nil {
			return nil, err
		}
		op.Parameters = append(op.Parameters, p)
	}
	return op, nil
}

// property builds a property; a type definition contributes its underlying
// kind and its facets, which the property's own attributes cannot override
func (r *typeResolver) property(name, typeName string, attrs facetAttrs) (*models.Property, error) {
	elem := typeName
	if inner, ok := collectionElement(typeName); ok {
		elem = inner
	}

	td, ok := r.definitions[elem]
	if !ok {
		return newProperty(name, typeName, attrs)
	}

	underlying := td.UnderlyingType
	if _, isCollection := collectionElement(typeName); isCollection {
		underlying = "Collection(" + underlying + ")"
	}
	attrs.maxLength = firstNonEmpty(td.MaxLength, attrs.maxLength)
	attrs.precision = firstNonEmpty(td.Precision, attrs.precision)
	attrs.scale = firstNonEmpty(td.Scale, attrs.scale)
	attrs.unicode = firstNonEmpty(td.Unicode, attrs.unicode)

	p, err := newProperty(name, underlying, attrs)
	if err != nil {
		return nil, err
	}
	p.Type = typeName
	return p, nil
}

// normalizeTypeV4 replaces a schema alias with the namespace
func normalizeTypeV4(typeName string, schema SchemaV4) string {
	if schema.Alias != "" && strings.HasPrefix(typeName, schema.Alias+".") {
		return schema.Namespace + typeName[len(schema.Alias):]
	}
	return typeName
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// IsODataV4 checks if the metadata is OData v4
func IsODataV4(data []byte) bool {
	var edmx EDMXV4
	if err := xml.Unmarshal(data, &edmx); err != nil {
		return false
	}
	if edmx.Version != "" {
		return edmx.Version == "4.0" || edmx.Version == "4.01"
	}
	return constants.IsODataV4Namespace(edmx.XMLName.Space)
}

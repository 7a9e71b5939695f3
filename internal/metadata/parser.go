package metadata

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zmcp/odata-edm/internal/constants"
	"github.com/zmcp/odata-edm/internal/edm"
	"github.com/zmcp/odata-edm/internal/models"
)

// EDMX represents the root EDMX document (OData v2/v3)
type EDMX struct {
	XMLName      xml.Name     `xml:"Edmx"`
	Version      string       `xml:"Version,attr"`
	DataServices DataServices `xml:"DataServices"`
}

// DataServices contains the schemas
type DataServices struct {
	XMLName               xml.Name `xml:"DataServices"`
	DataServiceVersion    string   `xml:"DataServiceVersion,attr"`
	MaxDataServiceVersion string   `xml:"MaxDataServiceVersion,attr"`
	Schemas               []Schema `xml:"Schema"`
}

// Schema contains entity types, complex types and the entity container
type Schema struct {
	XMLName         xml.Name          `xml:"Schema"`
	Namespace       string            `xml:"Namespace,attr"`
	EntityTypes     []EntityType      `xml:"EntityType"`
	ComplexTypes    []ComplexType     `xml:"ComplexType"`
	EntityContainer []EntityContainer `xml:"EntityContainer"`
}

// EntityType represents an OData entity type
type EntityType struct {
	XMLName    xml.Name   `xml:"EntityType"`
	Name       string     `xml:"Name,attr"`
	BaseType   string     `xml:"BaseType,attr"`
	Key        Key        `xml:"Key"`
	Properties []Property `xml:"Property"`
}

// ComplexType represents an OData complex type
type ComplexType struct {
	XMLName    xml.Name   `xml:"ComplexType"`
	Name       string     `xml:"Name,attr"`
	Properties []Property `xml:"Property"`
}

// Key contains key properties
type Key struct {
	XMLName      xml.Name      `xml:"Key"`
	PropertyRefs []PropertyRef `xml:"PropertyRef"`
}

// PropertyRef references a key property
type PropertyRef struct {
	XMLName xml.Name `xml:"PropertyRef"`
	Name    string   `xml:"Name,attr"`
}

// Property represents a structural property and its facets
type Property struct {
	XMLName   xml.Name `xml:"Property"`
	Name      string   `xml:"Name,attr"`
	Type      string   `xml:"Type,attr"`
	Nullable  string   `xml:"Nullable,attr"`
	MaxLength string   `xml:"MaxLength,attr"`
	Precision string   `xml:"Precision,attr"`
	Scale     string   `xml:"Scale,attr"`
	Unicode   string   `xml:"Unicode,attr"`
}

// EntityContainer contains function imports
type EntityContainer struct {
	XMLName         xml.Name         `xml:"EntityContainer"`
	Name            string           `xml:"Name,attr"`
	FunctionImports []FunctionImport `xml:"FunctionImport"`
}

// FunctionImport represents an OData function import
type FunctionImport struct {
	XMLName    xml.Name    `xml:"FunctionImport"`
	Name       string      `xml:"Name,attr"`
	ReturnType string      `xml:"ReturnType,attr"`
	HTTPMethod string      `xml:"HttpMethod,attr"`
	Parameters []Parameter `xml:"Parameter"`
}

// Parameter represents a function parameter and its facets
type Parameter struct {
	XMLName   xml.Name `xml:"Parameter"`
	Name      string   `xml:"Name,attr"`
	Type      string   `xml:"Type,attr"`
	Mode      string   `xml:"Mode,attr"`
	Nullable  string   `xml:"Nullable,attr"`
	MaxLength string   `xml:"MaxLength,attr"`
	Precision string   `xml:"Precision,attr"`
	Scale     string   `xml:"Scale,attr"`
}

// ParseMetadata parses a $metadata document and returns every structured
// type with the kind and facets of its properties.
// It detects whether the document is v4 and uses the appropriate parser.
func ParseMetadata(data []byte) (*models.Metadata, error) {
	if IsODataV4(data) {
		return ParseMetadataV4(data)
	}

	var edmx EDMX
	if err := xml.Unmarshal(data, &edmx); err != nil {
		return nil, fmt.Errorf("failed to parse metadata XML: %w", err)
	}
	if len(edmx.DataServices.Schemas) == 0 {
		return nil, fmt.Errorf("no schemas found in metadata")
	}

	metadata := &models.Metadata{
		Version:         firstNonEmpty(edmx.DataServices.DataServiceVersion, edmx.Version),
		SchemaNamespace: edmx.DataServices.Schemas[0].Namespace,
		Types:           make(map[string]*models.StructuredType),
		Operations:      make(map[string]*models.Operation),
		ParsedAt:        time.Now(),
	}

	for _, schema := range edmx.DataServices.Schemas {
		for _, et := range schema.EntityTypes {
			t, err := parseEntityType(et, schema.Namespace)
			if err != nil {
				return nil, err
			}
			metadata.Types[t.QualifiedName()] = t
		}
		for _, ct := range schema.ComplexTypes {
			t, err := parseComplexType(ct, schema.Namespace)
			if err != nil {
				return nil, err
			}
			metadata.Types[t.QualifiedName()] = t
		}

		for _, container := range schema.EntityContainer {
			for _, fi := range container.FunctionImports {
				op, err := parseFunctionImport(fi)
				if err != nil {
					return nil, err
				}
				metadata.Operations[fi.Name] = op
			}
		}
	}

	return metadata, nil
}

// parseEntityType converts XML entity type to model
func parseEntityType(et EntityType, namespace string) (*models.StructuredType, error) {
	entityType := &models.StructuredType{
		Name:          et.Name,
		Namespace:     namespace,
		BaseType:      et.BaseType,
		Properties:    make([]*models.Property, 0, len(et.Properties)),
		KeyProperties: make([]string, 0),
	}

	for _, keyRef := range et.Key.PropertyRefs {
		entityType.KeyProperties = append(entityType.KeyProperties, keyRef.Name)
	}

	for _, prop := range et.Properties {
		property, err := newProperty(prop.Name, prop.Type, facetAttrs{
			nullable:  prop.Nullable,
			maxLength: prop.MaxLength,
			precision: prop.Precision,
			scale:     prop.Scale,
			unicode:   prop.Unicode,
		})
		if err != nil {
			return nil, fmt.Errorf("entity type %s: %w", et.Name, err)
		}
		property.IsKey = contains(entityType.KeyProperties, prop.Name)
		entityType.Properties = append(entityType.Properties, property)
	}

	return entityType, nil
}

// parseComplexType converts XML complex type to model
func parseComplexType(ct ComplexType, namespace string) (*models.StructuredType, error) {
	complexType := &models.StructuredType{
		Name:       ct.Name,
		Namespace:  namespace,
		IsComplex:  true,
		Properties: make([]*models.Property, 0, len(ct.Properties)),
	}

	for _, prop := range ct.Properties {
		property, err := newProperty(prop.Name, prop.Type, facetAttrs{
			nullable:  prop.Nullable,
			maxLength: prop.MaxLength,
			precision: prop.Precision,
			scale:     prop.Scale,
			unicode:   prop.Unicode,
		})
		if err != nil {
			return nil, fmt.Errorf("complex type %s: %w", ct.Name, err)
		}
		complexType.Properties = append(complexType.Properties, property)
	}

	return complexType, nil
}

// parseFunctionImport converts XML function import to model
func parseFunctionImport(fi FunctionImport) (*models.Operation, error) {
	op := &models.Operation{
		Name:       fi.Name,
		HTTPMethod: fi.HTTPMethod,
		ReturnType: fi.ReturnType,
		Parameters: make([]*models.Property, 0, len(fi.Parameters)),
	}

	// Default HTTP method to GET if not specified
	if op.HTTPMethod == "" {
		op.HTTPMethod = constants.GET
	}

	for _, param := range fi.Parameters {
		parameter, err := newProperty(param.Name, param.Type, facetAttrs{
			nullable:  param.Nullable,
			maxLength: param.MaxLength,
			precision: param.Precision,
			scale:     param.Scale,
		})
		if err != nil {
			return nil, fmt.Errorf("function import %s: %w", fi.Name, err)
		}
		op.Parameters = append(op.Parameters, parameter)
	}

	return op, nil
}

// facetAttrs are the raw facet attributes of a property or parameter
type facetAttrs struct {
	nullable, maxLength, precision, scale, unicode string
}

// newProperty resolves the declared type to a primitive kind where possible
// and converts the facet attributes
func newProperty(name, typeName string, attrs facetAttrs) (*models.Property, error) {
	p := &models.Property{Name: name, Type: typeName}

	elem := typeName
	if inner, ok := collectionElement(typeName); ok {
		p.Collection = true
		elem = inner
	}
	if strings.HasPrefix(elem, constants.EdmPrefix) {
		p.Kind, p.Primitive = edm.ParseKind(elem)
	}

	facets, err := parseFacets(attrs)
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", name, err)
	}
	p.Facets = facets
	return p, nil
}

// parseFacets converts facet attributes. Missing attributes stay unset;
// MaxLength="max" and the v4 Scale values "variable" and "floating" are
// unbounded.
func parseFacets(attrs facetAttrs) (edm.Facets, error) {
	f := edm.NoFacets()

	if attrs.nullable != "" {
		v, err := strconv.ParseBool(attrs.nullable)
		if err != nil {
			return f, fmt.Errorf("invalid Nullable %q: %w", attrs.nullable, err)
		}
		f = f.WithNullable(v)
	}
	if attrs.unicode != "" {
		v, err := strconv.ParseBool(attrs.unicode)
		if err != nil {
			return f, fmt.Errorf("invalid Unicode %q: %w", attrs.unicode, err)
		}
		f = f.WithUnicode(v)
	}

	for _, facet := range []struct {
		name      string
		value     string
		unbounded []string
		set       func(edm.Facets, int) edm.Facets
	}{
		{"MaxLength", attrs.maxLength, []string{constants.MaxLengthMax}, edm.Facets.WithMaxLength},
		{"Precision", attrs.precision, nil, edm.Facets.WithPrecision},
		{"Scale", attrs.scale, []string{constants.ScaleVariable, constants.ScaleFloating}, edm.Facets.WithScale},
	} {
		if facet.value == "" || containsFold(facet.unbounded, facet.value) {
			continue
		}
		n, err := strconv.Atoi(facet.value)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid %s %q", facet.name, facet.value)
		}
		f = facet.set(f, n)
	}

	return f, nil
}

// collectionElement unwraps "Collection(T)"
func collectionElement(typeName string) (string, bool) {
	if strings.HasPrefix(typeName, "Collection(") && strings.HasSuffix(typeName, ")") {
		return typeName[len("Collection(") : len(typeName)-1], true
	}
	return "", false
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func containsFold(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}

// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zmcp/odata-edm/internal/constants"
	"github.com/zmcp/odata-edm/internal/edm"
	"github.com/zmcp/odata-edm/internal/models"
)

// Decoder reads JSON entities into typed values
type Decoder struct {
	metadata *models.Metadata
	opts     Options
	observer Observer
}

// NewDecoder creates a decoder for the types in md
func NewDecoder(md *models.Metadata, opts Options) *Decoder {
	return &Decoder{metadata: md, opts: opts}
}

// SetObserver sets the observer for primitive conversions
func (d *Decoder) SetObserver(o Observer) {
	d.observer = o
}

// DecodeEntity parses one entity of the named type. Both the v4 bare object
// and the v2 {"d": {...}} envelope are accepted. Every invalid property is
// reported; the returned error joins one PropertyError per failure.
func (d *Decoder) DecodeEntity(typeName string, data []byte) (Entity, error) {
	t, ok := d.metadata.Type(typeName)
	if !ok {
		return nil, fmt.Errorf("type %s not found in metadata", typeName)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse entity JSON: %w", err)
	}
	if inner, ok := raw[constants.VerboseEnvelope].(map[string]any); ok && len(raw) == 1 {
		raw = inner
	}

	var errs []error
	entity := d.decodeObject(t, raw, "", &errs)
	if len(errs) > 0 {
		return entity, errors.Join(errs...)
	}
	return entity, nil
}

func (d *Decoder) decodeObject(t *models.StructuredType, raw map[string]any, path string, errs *[]error) Entity {
	t = d.derivedType(t, raw)
	entity := make(Entity, len(raw))

	for key, value := range raw {
		if isControlInformation(key) {
			continue
		}
		p, ok := d.metadata.Property(t, key)
		if !ok {
			if d.opts.Strict {
				*errs = append(*errs, &PropertyError{Path: joinPath(path, key), Err: fmt.Errorf("not declared by %s", t.QualifiedName())})
			} else {
				entity[key] = value
			}
			continue
		}

		v, err := d.decodeProperty(p, value, joinPath(path, key), errs)
		if err != nil {
			*errs = append(*errs, &PropertyError{Path: joinPath(path, key), Err: err})
			continue
		}
		entity[key] = v
	}

	if d.opts.RequireNonNullable {
		for _, p := range d.metadata.Properties(t) {
			if _, present := raw[p.Name]; !present && !p.Facets.AllowsNull() {
				*errs = append(*errs, &PropertyError{
					Path: joinPath(path, p.Name),
					Err:  &edm.Error{Kind: edm.ConstraintViolation, Type: p.Kind, Detail: "non-nullable property is missing"},
				})
			}
		}
	}
	return entity
}

// derivedType follows @odata.type, or __metadata.type in v2, when it names
// a type derived from t
func (d *Decoder) derivedType(t *models.StructuredType, raw map[string]any) *models.StructuredType {
	name, _ := raw[constants.ODataType].(string)
	if meta, ok := raw[constants.VerboseMetadata].(map[string]any); ok && name == "" {
		name, _ = meta["type"].(string)
	}
	name = strings.TrimPrefix(name, "#")
	if name == "" {
		return t
	}
	if derived, ok := d.metadata.Type(name); ok && d.metadata.DerivesFrom(derived, t) {
		return derived
	}
	return t
}

func (d *Decoder) decodeProperty(p *models.Property, value any, path string, errs *[]error) (any, error) {
	if !p.Collection {
		return d.decodeSingle(p, value, path, errs)
	}

	if value == nil {
		return nil, nil
	}
	// v2 wraps collections in {"results": [...]}
	if wrapped, ok := value.(map[string]any); ok {
		value = wrapped[constants.VerboseResults]
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON array for %s, got %T", p.Type, value)
	}

	out := make([]any, 0, len(items))
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		v, err := d.decodeSingle(p, item, itemPath, errs)
		if err != nil {
			*errs = append(*errs, &PropertyError{Path: itemPath, Err: err})
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *Decoder) decodeSingle(p *models.Property, value any, path string, errs *[]error) (any, error) {
	codec, primitive := p.Codec()
	if !primitive {
		return d.decodeNested(p, value, path, errs)
	}

	literal, err := literalOf(codec.Kind(), value)
	if err != nil {
		return nil, err
	}
	v, err := codec.ValueOfString(literal, p.Facets, nil)
	if d.observer != nil {
		d.observer.Observe(path, codec.Kind(), literal, err)
	}
	return v, err
}

// decodeNested handles complex-typed properties; enum and other
// non-structured values pass through unchanged
func (d *Decoder) decodeNested(p *models.Property, value any, path string, errs *[]error) (any, error) {
	elem := p.Type
	if p.Collection {
		elem = elem[len("Collection(") : len(elem)-1]
	}
	t, ok := d.metadata.Type(elem)
	if !ok || value == nil {
		return value, nil
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object for %s, got %T", elem, value)
	}
	return d.decodeObject(t, obj, path, errs), nil
}

// literalOf turns a decoded JSON scalar into the literal a codec parses.
// Strings are taken verbatim, which covers IEEE754-compatible numbers and
// /Date(ms)/ values; numbers keep their original text.
func literalOf(k edm.Kind, value any) (*string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return &v, nil
	case json.Number:
		if isNumeric(k) {
			s := v.String()
			return &s, nil
		}
	case bool:
		if k == edm.Boolean {
			s := "false"
			if v {
				s = "true"
			}
			return &s, nil
		}
	}
	return nil, &edm.Error{Kind: edm.IllegalContent, Type: k, Detail: fmt.Sprintf("unexpected JSON value %v", value)}
}

func isNumeric(k edm.Kind) bool {
	switch k {
	case edm.Byte, edm.SByte, edm.Int16, edm.Int32, edm.Int64, edm.Single, edm.Double, edm.Decimal:
		return true
	}
	return false
}

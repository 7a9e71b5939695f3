// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/zmcp/odata-edm/internal/constants"
	"github.com/zmcp/odata-edm/internal/edm"
	"github.com/zmcp/odata-edm/internal/models"
)

var typeTime = reflect.TypeOf(time.Time{})

// Encoder writes typed entities as JSON
type Encoder struct {
	metadata *models.Metadata
	opts     Options
	observer Observer
}

// NewEncoder creates an encoder for the types in md
func NewEncoder(md *models.Metadata, opts Options) *Encoder {
	return &Encoder{metadata: md, opts: opts}
}

// SetObserver sets the observer for primitive conversions
func (e *Encoder) SetObserver(o Observer) {
	e.observer = o
}

// EncodeEntity formats every property of entity through its codec and
// marshals the result. Failures are collected like DecodeEntity does.
func (e *Encoder) EncodeEntity(typeName string, entity Entity) ([]byte, error) {
	t, ok := e.metadata.Type(typeName)
	if !ok {
		return nil, fmt.Errorf("type %s not found in metadata", typeName)
	}

	var errs []error
	obj := e.encodeObject(t, entity, "", &errs)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	var out any = obj
	if e.opts.Verbose {
		out = map[string]any{constants.VerboseEnvelope: obj}
	} else if e.opts.Context != "" {
		obj[constants.ODataContext] = e.opts.Context
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

func (e *Encoder) encodeObject(t *models.StructuredType, entity map[string]any, path string, errs *[]error) map[string]any {
	obj := make(map[string]any, len(entity))

	for key, value := range entity {
		p, ok := e.metadata.Property(t, key)
		if !ok {
			if e.opts.Strict {
				*errs = append(*errs, &PropertyError{Path: joinPath(path, key), Err: fmt.Errorf("not declared by %s", t.QualifiedName())})
			} else {
				obj[key] = value
			}
			continue
		}

		v, err := e.encodeProperty(p, value, joinPath(path, key), errs)
		if err != nil {
			*errs = append(*errs, &PropertyError{Path: joinPath(path, key), Err: err})
			continue
		}
		obj[key] = v
	}
	return obj
}

func (e *Encoder) encodeProperty(p *models.Property, value any, path string, errs *[]error) (any, error) {
	if !p.Collection {
		return e.encodeSingle(p, value, path, errs)
	}
	if value == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a slice for %s, got %T", p.Type, value)
	}

	items := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		v, err := e.encodeSingle(p, rv.Index(i).Interface(), itemPath, errs)
		if err != nil {
			*errs = append(*errs, &PropertyError{Path: itemPath, Err: err})
			continue
		}
		items = append(items, v)
	}

	if e.opts.Verbose {
		return map[string]any{constants.VerboseResults: items}, nil
	}
	return items, nil
}

func (e *Encoder) encodeSingle(p *models.Property, value any, path string, errs *[]error) (any, error) {
	codec, primitive := p.Codec()
	if !primitive {
		return e.encodeNested(p, value, path, errs)
	}

	literal, err := codec.ValueToString(value, p.Facets)
	if e.observer != nil {
		e.observer.Observe(path, codec.Kind(), literal, err)
	}
	if err != nil || literal == nil {
		return nil, err
	}
	return e.jsonValue(codec, *literal)
}

func (e *Encoder) encodeNested(p *models.Property, value any, path string, errs *[]error) (any, error) {
	elem := p.Type
	if p.Collection {
		elem = elem[len("Collection(") : len(elem)-1]
	}
	t, ok := e.metadata.Type(elem)
	if !ok || value == nil {
		return value, nil
	}

	var obj map[string]any
	switch v := value.(type) {
	case Entity:
		obj = v
	case map[string]any:
		obj = v
	default:
		return nil, fmt.Errorf("expected an entity for %s, got %T", elem, value)
	}
	return e.encodeObject(t, obj, path, errs), nil
}

// jsonValue chooses the JSON representation of a canonical literal
func (e *Encoder) jsonValue(c edm.Codec, literal string) (any, error) {
	switch c.Kind() {
	case edm.Boolean:
		return literal == "true", nil
	case edm.Byte, edm.SByte, edm.Int16, edm.Int32:
		return json.Number(literal), nil
	case edm.Int64, edm.Decimal:
		if e.opts.IEEE754Compatible {
			return literal, nil
		}
		return json.Number(literal), nil
	case edm.Single, edm.Double:
		switch literal {
		case edm.LiteralPositiveInfinity, edm.LiteralNegativeInfinity, edm.LiteralNaN:
			return literal, nil
		}
		return json.Number(literal), nil
	case edm.DateTime, edm.DateTimeOffset:
		if e.opts.LegacyDates {
			return legacyDate(c, literal)
		}
	}
	return literal, nil
}

// legacyDate rewrites a canonical date-time literal as /Date(ms)/, adding
// the offset for DateTimeOffset
func legacyDate(c edm.Codec, literal string) (string, error) {
	v, err := c.ValueOfString(&literal, edm.NoFacets(), typeTime)
	if err != nil {
		return "", err
	}
	t := v.(time.Time)
	if c.Kind() == edm.DateTime {
		return fmt.Sprintf("/Date(%d)/", t.UnixMilli()), nil
	}

	_, offset := t.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("/Date(%d%s%02d%02d)/", t.UnixMilli(), sign, offset/3600, (offset%3600)/60), nil
}

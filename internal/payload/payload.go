// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

// Package payload converts JSON entity payloads to typed values and back,
// using the property kinds and facets read from $metadata.
package payload

import (
	"fmt"
	"strings"

	"github.com/zmcp/odata-edm/internal/constants"
	"github.com/zmcp/odata-edm/internal/edm"
)

// Options control the JSON dialect
type Options struct {
	// IEEE754Compatible writes Int64 and Decimal values as JSON strings
	IEEE754Compatible bool
	// LegacyDates writes DateTime and DateTimeOffset as /Date(ms)/
	LegacyDates bool
	// Verbose wraps encoded entities in the v2 {"d": ...} envelope
	Verbose bool
	// Strict rejects properties that the type does not declare
	Strict bool
	// RequireNonNullable rejects payloads missing a non-nullable property
	RequireNonNullable bool
	// Context is written as @odata.context by the encoder, v4 only
	Context string
}

// ContentType returns the media type of payloads written with o
func (o Options) ContentType() string {
	switch {
	case o.Verbose:
		return constants.ContentTypeODataJSON
	case o.IEEE754Compatible:
		return constants.ContentTypeODataJSONIEEEV4
	}
	return constants.ContentTypeODataJSONV4
}

// Observer receives every primitive conversion a Decoder or Encoder makes.
// literal is the JSON-side literal; it is nil for null values and for
// values that failed to format.
type Observer interface {
	Observe(path string, kind edm.Kind, literal *string, err error)
}

// Entity maps property names to typed values; complex properties are
// nested Entities and collections are []any
type Entity map[string]any

// PropertyError locates a failure inside a payload
type PropertyError struct {
	Path string // e.g. "Address/City" or "Tags[2]"
	Err  error
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *PropertyError) Unwrap() error {
	return e.Err
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// isControlInformation reports keys that carry annotations or v2 metadata
// rather than property values
func isControlInformation(key string) bool {
	return strings.Contains(key, constants.AnnotationPrefix) ||
		key == constants.VerboseMetadata || key == constants.VerboseDeferred
}

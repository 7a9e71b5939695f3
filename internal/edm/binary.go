// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package edm

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"
)

// base64Pattern accepts the standard and URL-safe alphabets with optional
// padding, interleaved with whitespace and line breaks
var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/\-_\s]*={0,2}\s*$`)

type binaryType struct{}

func (binaryType) defaultType() reflect.Type {
	return typeBytes
}

func (binaryType) parse(literal string, facets Facets, rt reflect.Type) (any, error) {
	if !base64Pattern.MatchString(literal) {
		return nil, illegalContent(Binary, literal)
	}
	if n := estimatedLength(literal); !facets.withinMaxLength(n) {
		return nil, facetMismatch(Binary, literal, fmt.Sprintf("about %d bytes exceed maxLength %d", n, *facets.MaxLength))
	}

	b, err := decodeBase64(literal)
	if err != nil {
		return nil, &Error{Kind: IllegalContent, Type: Binary, Literal: literal, Err: err}
	}
	if rt != typeBytes {
		return nil, typeNotSupported(Binary, rt.String())
	}
	return b, nil
}

func (binaryType) format(value any, facets Facets) (string, error) {
	b, ok := value.([]byte)
	if !ok {
		return "", typeNotSupported(Binary, reflect.TypeOf(value).String())
	}
	if !facets.withinMaxLength(len(b)) {
		return "", facetMismatch(Binary, "", fmt.Sprintf("%d bytes exceed maxLength %d", len(b), *facets.MaxLength))
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// estimatedLength approximates the decoded size from the encoded text: every
// four characters carry three bytes, minus padding, ignoring line endings.
// Other whitespace is counted as payload, so the estimate can run high.
func estimatedLength(literal string) int {
	padding := 0
	trimmed := strings.TrimRightFunc(literal, unicode.IsSpace)
	switch {
	case strings.HasSuffix(trimmed, "=="):
		padding = 2
	case strings.HasSuffix(trimmed, "="):
		padding = 1
	}
	return (len(literal)-lineEndingsLength(literal))*3/4 - padding
}

// lineEndingsLength counts the bytes taken by LF and CRLF line endings
func lineEndingsLength(literal string) int {
	n := 0
	for i := 0; i < len(literal); i++ {
		if literal[i] != '\n' {
			continue
		}
		if i > 0 && literal[i-1] == '\r' {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func decodeBase64(literal string) ([]byte, error) {
	s := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return -1
		case r == '-':
			return '+'
		case r == '_':
			return '/'
		}
		return r
	}, literal)

	if len(s)%4 != 0 {
		return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	return base64.StdEncoding.DecodeString(s)
}

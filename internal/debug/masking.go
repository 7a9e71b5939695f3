// Copyright (c) 2024 OData MCP Contributors
// SPDX-License-Identifier: MIT

package debug

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// SensitiveKeys contains property names that trigger automatic masking when detected
var SensitiveKeys = []string{
	"password", "passwd", "secret",
	"token", "api_key", "apikey", "api-key",
	"authorization", "credential",
}

// SensitiveWords are too short to match inside other words ("Author",
// "Lessons"); they only match a whole word of the property name
var SensitiveWords = []string{"auth", "pwd", "csrf", "iban", "ssn"}

// MaxLiteralLength bounds the literals copied into trace records
const MaxLiteralLength = 256

// MaskValue masks a sensitive value, showing only the last N characters
func MaskValue(value string, showLastChars int) string {
	if len(value) == 0 {
		return ""
	}
	if len(value) <= showLastChars {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-showLastChars) + value[len(value)-showLastChars:]
}

// TruncateLiteral shortens long literals such as Binary or geospatial
// values, keeping the head and the total length
func TruncateLiteral(literal string, max int) string {
	if len(literal) <= max {
		return literal
	}
	return fmt.Sprintf("%s...(%d bytes)", literal[:max], len(literal))
}

// MaskLiteral prepares a literal of the named property for tracing
func MaskLiteral(name, literal string) string {
	if IsSensitiveKey(name) {
		return MaskValue(literal, 0)
	}
	return TruncateLiteral(literal, MaxLiteralLength)
}

// IsSensitiveKey checks if a key name indicates sensitive data. A payload
// path such as "Account/Password" is judged by its last segment.
func IsSensitiveKey(key string) bool {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		key = key[i+1:]
	}
	keyLower := strings.ToLower(key)
	for _, sensitive := range SensitiveKeys {
		if strings.Contains(keyLower, sensitive) {
			return true
		}
	}
	for _, word := range splitWords(key) {
		if slices.Contains(SensitiveWords, word) {
			return true
		}
	}
	return false
}

// splitWords lowercases the words of a camelCase or snake_case name, e.g.
// "UserSSNCode" gives user, ssn, code
func splitWords(name string) []string {
	var words []string
	runes := []rune(name)
	start := 0
	flush := func(end int) {
		if end > start {
			words = append(words, strings.ToLower(string(runes[start:end])))
		}
	}
	for i, r := range runes {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush(i)
			start = i + 1
		case i > start && unicode.IsUpper(r) &&
			(unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))):
			flush(i)
			start = i
		}
	}
	flush(len(runes))
	return words
}

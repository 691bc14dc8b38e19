package core

import (
	"strings"
)

// Operation represents a proxied resource operation, one of Create, Read, Update, Delete, List
type Operation string

// all supported proxy operations
const (
	OperationCreate Operation = "create"
	OperationRead   Operation = "read"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
	OperationList   Operation = "list"
)

// ExpandPrefix is the key under which resolved expansions are attached
// to result objects, and the verbatim first segment of expansion field paths.
const ExpandPrefix = "_expand"

// CamelCase converts a snake_case property name to its camelCase form.
//
// This is the algorithm used to translate upstream property names into
// the names the UI sees. Dotted paths are converted segment by segment,
// so "_expand.einde_geldigheid.some_field" becomes
// "_expand.eindeGeldigheid.someField"; the "_expand" prefix itself is
// preserved verbatim. The function is idempotent.
func CamelCase(property string) string {
	if !strings.Contains(property, ".") {
		return camelCaseWord(property)
	}
	segments := strings.Split(property, ".")
	for i, segment := range segments {
		if segment == ExpandPrefix {
			continue
		}
		segments[i] = camelCaseWord(segment)
	}
	return strings.Join(segments, ".")
}

func camelCaseWord(word string) string {
	if !strings.Contains(word, "_") {
		return word
	}
	parts := strings.Split(word, "_")
	out := make([]string, 0, len(parts))
	first := true
	for _, part := range parts {
		if len(part) == 0 {
			continue
		}
		if first {
			out = append(out, part)
			first = false
			continue
		}
		runes := []rune(part)
		r := runes[0]
		if 'a' <= r && r <= 'z' {
			runes[0] = r + 'A' - 'a'
		}
		out = append(out, string(runes))
	}
	return strings.Join(out, "")
}

// SnakeCase converts a camelCase property name to its snake_case form.
// It is the inverse of CamelCase for names without consecutive capitals.
func SnakeCase(property string) string {
	var b strings.Builder
	for _, r := range property {
		if 'A' <= r && r <= 'Z' {
			b.WriteByte('_')
			b.WriteRune(r + 'a' - 'A')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CamelCaseKeys renames all keys of a decoded JSON tree to camelCase.
// Maps and arrays are walked recursively, values remain untouched.
func CamelCaseKeys(value any) any {
	return renameKeys(value, CamelCase)
}

// SnakeCaseKeys renames all keys of a decoded JSON tree to snake_case.
func SnakeCaseKeys(value any) any {
	return renameKeys(value, SnakeCase)
}

func renameKeys(value any, rename func(string) string) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, child := range typed {
			out[rename(key)] = renameKeys(child, rename)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, child := range typed {
			out[i] = renameKeys(child, rename)
		}
		return out
	default:
		return value
	}
}

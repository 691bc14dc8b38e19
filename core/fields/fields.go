// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package fields derives the UI-facing field metadata that accompanies every
list and detail envelope.

Fields come from three places: reflection over the declared result type,
the declared query-parameter type (filterable fields), and the upstream
OAS description for endpoints without a compiled result type. All three
paths produce the same Field shape.
*/
package fields

import (
	"reflect"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/openbeheer/bff/core"
)

// Type is the UI type of a field.
type Type string

// all UI field types
const (
	TypeBoolean Type = "boolean"
	TypeNumber  Type = "number"
	TypeString  Type = "string"
	TypeDate    Type = "date"
)

// Option is one enumerated choice for a field.
type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// Field is the UI-facing metadata of one column or form field.
type Field struct {
	Name         string   `json:"name"`
	Type         Type     `json:"type"`
	Options      []Option `json:"options,omitempty"`
	FilterValue  any      `json:"filterValue,omitempty"`
	FilterLookup string   `json:"filterLookup,omitempty"`
	Editable     bool     `json:"editable,omitempty"`
}

// FromStruct reflects the declared result type into fields, in declaration
// order. Field names come from the json tags; fields tagged "-" are skipped.
func FromStruct(prototype any) []Field {
	t := reflect.TypeOf(prototype)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	out := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := jsonName(f)
		if name == "" {
			continue
		}
		out = append(out, Field{
			Name: core.CamelCase(name),
			Type: typeOf(f.Type),
		})
	}
	return out
}

// FromSchemas derives fields from OAS result properties, for endpoints
// that have no compiled result type.
func FromSchemas(props map[string]*openapi3.Schema, order []string) []Field {
	out := make([]Field, 0, len(order))
	for _, name := range order {
		schema := props[name]
		if schema == nil {
			continue
		}
		out = append(out, Field{
			Name: core.CamelCase(name),
			Type: schemaType(schema),
		})
	}
	return out
}

// Merge combines query-derived fields with result-derived fields. Query
// fields lead; result fields already covered by a query field are dropped.
func Merge(queryFields, resultFields []Field) []Field {
	seen := make(map[string]bool, len(queryFields))
	out := make([]Field, 0, len(queryFields)+len(resultFields))
	for _, f := range queryFields {
		seen[f.Name] = true
		out = append(out, f)
	}
	for _, f := range resultFields {
		if seen[f.Name] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// WithExpansions appends the "_expand.<name>.<subattr>" fields for each
// declared expansion prototype.
func WithExpansions(base []Field, prototypes map[string]any) []Field {
	out := base
	for name, prototype := range prototypes {
		for _, sub := range FromStruct(prototype) {
			out = append(out, Field{
				Name: core.ExpandPrefix + "." + name + "." + sub.Name,
				Type: sub.Type,
			})
		}
	}
	return out
}

// MarkEditable flags the named fields as editable and appends declared
// editable fields that are absent from the result shape.
func MarkEditable(base []Field, names []string) []Field {
	present := make(map[string]int, len(base))
	for i, f := range base {
		present[f.Name] = i
	}
	for _, name := range names {
		name = core.CamelCase(name)
		if i, ok := present[name]; ok {
			base[i].Editable = true
			continue
		}
		base = append(base, Field{Name: name, Type: TypeString, Editable: true})
	}
	return base
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name := strings.Split(tag, ",")[0]
	if name == "" {
		name = f.Name
	}
	return name
}

// GoType maps a Go type to its UI field type.
func GoType(t reflect.Type) Type {
	return typeOf(t)
}

var timeType = reflect.TypeOf(time.Time{})

func typeOf(t reflect.Type) Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType {
		return TypeDate
	}
	switch t.Kind() {
	case reflect.Bool:
		return TypeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return TypeNumber
	default:
		return TypeString
	}
}

func schemaType(schema *openapi3.Schema) Type {
	if schema.Type == nil {
		return TypeString
	}
	switch {
	case schema.Type.Is(openapi3.TypeBoolean):
		return TypeBoolean
	case schema.Type.Is(openapi3.TypeInteger), schema.Type.Is(openapi3.TypeNumber):
		return TypeNumber
	case schema.Type.Is(openapi3.TypeString) && (schema.Format == "date" || schema.Format == "date-time"):
		return TypeDate
	default:
		return TypeString
	}
}

// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package query translates the raw query string of an incoming request into
an upstream-bound query plan.

Each endpoint declares a query-parameter struct; the planner decodes the
request into it, drops parameters the upstream operation does not accept,
renames keys to the upstream convention, and produces the filterable
field descriptors for the response envelope.
*/
package query

import (
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/schema"

	"github.com/openbeheer/bff/core"
	"github.com/openbeheer/bff/core/fields"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

// reserved pagination parameters never become filter fields
const (
	paramPage     = "page"
	paramPageSize = "pageSize"
)

// Planner holds the per-endpoint query configuration.
type Planner struct {
	// PageSize is the fixed page size injected on every upstream list call.
	PageSize int
	// Rename converts snake_case keys to camelCase for upstream transmission.
	Rename bool
	// URLParams maps parameter names to the upstream sub-path used to expand
	// a UUID value into a full upstream URL, e.g. "catalogus" -> "/catalogi".
	URLParams map[string]string
	// Enums declares the option lists per field name (camelCase).
	Enums map[string][]fields.Option
}

// Plan is the upstream-bound result of planning one request.
type Plan struct {
	// Values is the filtered, renamed upstream query.
	Values url.Values
	// Fields are the filterable field descriptors derived from the
	// query-parameter struct, carrying the current filter values.
	Fields []fields.Field
	// Page is the requested page, at least 1.
	Page int
}

// Build decodes the request query into the endpoint's parameter struct and
// produces the plan. The allowed set comes from the upstream operation; a
// nil set admits everything. baseURL is the upstream API root, used for
// UUID-to-URL expansion.
func (p Planner) Build(r *http.Request, prototype any, allowed map[string]bool, baseURL string) (*Plan, error) {
	if prototype != nil {
		if err := decoder.Decode(prototype, r.URL.Query()); err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
	}

	plan := &Plan{
		Values: url.Values{},
		Page:   1,
	}

	if prototype != nil {
		if err := p.walk(prototype, allowed, baseURL, plan); err != nil {
			return nil, err
		}
	}

	plan.Values.Set(paramPage, strconv.Itoa(plan.Page))
	if p.PageSize > 0 && (allowed == nil || allowed[paramPageSize]) {
		plan.Values.Set(paramPageSize, strconv.Itoa(p.PageSize))
	}
	return plan, nil
}

func (p Planner) walk(prototype any, allowed map[string]bool, baseURL string, plan *Plan) error {
	v := reflect.ValueOf(prototype)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("query: parameter prototype must be a struct, got %T", prototype)
	}
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Tag.Get("schema")
		if name == "" || name == "-" {
			continue
		}

		value, set := stringValue(v.Field(i))

		if name == paramPage {
			if set {
				page, err := strconv.Atoi(value)
				if err != nil || page < 1 {
					return fmt.Errorf("query: parameter 'page': not a positive integer")
				}
				plan.Page = page
			}
			continue
		}

		upstreamName := name
		if p.Rename {
			upstreamName = core.CamelCase(name)
		}
		accepted := allowed == nil || allowed[upstreamName]

		field := fields.Field{
			Name:    core.CamelCase(name),
			Type:    fields.GoType(f.Type),
			Options: p.Enums[core.CamelCase(name)],
		}
		if accepted {
			field.FilterLookup = upstreamName
		}
		if set {
			field.FilterValue = value
		}
		plan.Fields = append(plan.Fields, field)

		if !set || !accepted {
			continue
		}
		if sub, ok := p.URLParams[name]; ok {
			if id, err := uuid.Parse(value); err == nil {
				value = baseURL + sub + "/" + id.String()
			}
		}
		plan.Values.Set(upstreamName, value)
	}
	return nil
}

// stringValue renders a struct field for upstream transmission. The zero
// value is the unset sentinel and is never sent; pointer fields express
// meaningful zeroes.
func stringValue(v reflect.Value) (string, bool) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
		return render(v), true
	}
	if v.IsZero() {
		return "", false
	}
	return render(v), true
}

func render(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

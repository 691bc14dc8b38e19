// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package resource implements the generic proxy engine behind every
upstream-backed endpoint.

One ListView, one DetailView and one write pipeline serve all resources;
the per-resource differences live entirely in Bundle values. The engine
translates query parameters, fetches from the upstream, resolves
expansions, derives field metadata and assembles the response envelopes.
*/
package resource

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/openbeheer/bff/core/fields"
	"github.com/openbeheer/bff/core/oas"
	"github.com/openbeheer/bff/core/problem"
	"github.com/openbeheer/bff/core/registry"
	"github.com/openbeheer/bff/core/upstream"
)

// Engine serves bundles.
type Engine struct {
	registry *registry.Registry
	oas      *oas.Registry
}

// NewEngine creates an engine over the service registry and OAS registry.
func NewEngine(reg *registry.Registry, oasReg *oas.Registry) *Engine {
	return &Engine{registry: reg, oas: oasReg}
}

// Mount validates the bundle and registers its routes on the router,
// which is expected to be the /api/v1 subrouter.
func (e *Engine) Mount(router *mux.Router, b *Bundle) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("bundle %s: %w", b.Resource, err)
	}

	// Routes are registered in both the slashless and the trailing-slash
	// form. A StrictSlash redirect would turn a write into a GET.
	handle := func(path string, h http.HandlerFunc, methods ...string) {
		router.HandleFunc(path, h).Methods(methods...)
		router.HandleFunc(path+"/", h).Methods(methods...)
	}

	prefix := b.routePrefix()
	handle(prefix, e.list(b), http.MethodOptions, http.MethodGet)
	handle(prefix, e.create(b), http.MethodPost)
	handle(prefix+"/{uuid}", e.detail(b), http.MethodOptions, http.MethodGet)
	handle(prefix+"/{uuid}", e.update(b), http.MethodPut, http.MethodPatch)
	handle(prefix+"/{uuid}", e.remove(b), http.MethodDelete)
	for _, action := range b.Actions {
		handle(prefix+"/{uuid}/"+action, e.action(b, action), http.MethodPost)
	}
	return nil
}

// MustMount is like Mount but panics on configuration errors.
func (e *Engine) MustMount(router *mux.Router, bundles ...*Bundle) {
	for _, b := range bundles {
		if err := e.Mount(router, b); err != nil {
			panic(err)
		}
	}
}

// client resolves the upstream client for the request's service slug.
func (e *Engine) client(r *http.Request, b *Bundle) (*upstream.Client, error) {
	return e.registry.Client(r.Context(), mux.Vars(r)["slug"], b.Kind)
}

// parentURL builds the upstream URL of the parent resource for nested
// bundles, from the parent uuid in the route.
func (b *Bundle) parentURL(r *http.Request, client *upstream.Client) string {
	if b.Sub == "" {
		return ""
	}
	return client.BaseURL() + b.SubPath + "/" + mux.Vars(r)[b.Sub]
}

// fail converts any error into the uniform problem shape.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var p *problem.Problem
	if errors.As(err, &p) {
		problem.Write(w, r, p)
		return
	}
	if errors.Is(err, registry.ErrNotConfigured) {
		problem.Write(w, r, problem.NotFound(err.Error()))
		return
	}
	problem.Write(w, r, problem.Internal())
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	data, _ := json.Marshal(value)
	w.Write(data)
}

// allowedParameters asks the OAS which parameters the list operation
// accepts. Services without a parseable OAS admit everything.
func (e *Engine) allowedParameters(r *http.Request, client *upstream.Client, b *Bundle) (map[string]bool, error) {
	allowed, err := e.oas.ParameterNames(r.Context(), client, http.MethodGet, b.Path)
	if err != nil {
		if errors.Is(err, oas.ErrMisconfigured) || errors.Is(err, oas.ErrOperationNotFound) {
			return nil, nil
		}
		return nil, problem.FromTransport(err)
	}
	return allowed, nil
}

// oasFields derives field metadata from the OAS for bundles without a
// compiled result type.
func (e *Engine) oasFields(r *http.Request, client *upstream.Client, b *Bundle, detail bool) []fields.Field {
	path := b.Path
	if detail {
		path = b.Path + "/{uuid}"
	}
	props, err := e.oas.ResultProperties(r.Context(), client, http.MethodGet, path)
	if err != nil || len(props) == 0 {
		return nil
	}
	schemas := make(map[string]*openapi3.Schema, len(props))
	order := make([]string, 0, len(props))
	for _, prop := range props {
		schemas[prop.Name] = prop.Schema
		order = append(order, prop.Name)
	}
	return fields.FromSchemas(schemas, order)
}

// decodeItems decodes raw result objects for expansion and envelope
// assembly.
func decodeItems(raw []json.RawMessage) ([]map[string]any, error) {
	items := make([]map[string]any, 0, len(raw))
	for _, message := range raw {
		var item map[string]any
		if err := json.Unmarshal(message, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// envelopeFields merges filter fields with result fields for a bundle.
func (e *Engine) envelopeFields(r *http.Request, client *upstream.Client, b *Bundle, queryFields []fields.Field, detail bool) []fields.Field {
	var resultFields []fields.Field
	if b.Prototype != nil {
		resultFields = b.resultFields()
	} else {
		resultFields = fields.MarkEditable(e.oasFields(r, client, b, detail), b.Editable)
	}
	merged := fields.Merge(queryFields, resultFields)

	// endpoint enum overrides apply to result fields too
	for i := range merged {
		if len(merged[i].Options) > 0 {
			continue
		}
		if options, ok := b.Enums[merged[i].Name]; ok {
			merged[i].Options = options
		}
	}
	return merged
}

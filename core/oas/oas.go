// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package oas parses and caches the OpenAPI descriptions of the upstream
services, and answers structural questions about them: which operations
exist, which parameters they accept, and what shape their results have.
*/
package oas

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/openbeheer/bff/core/upstream"
)

// document cache lifetime
const cacheTTL = 24 * time.Hour

// ErrMisconfigured is returned when a service advertises no OAS URL.
var ErrMisconfigured = errors.New("oas: service has no OAS url")

// ErrOperationNotFound is returned when the OAS declares no matching operation.
var ErrOperationNotFound = errors.New("oas: operation not found")

// Property is one named property of a result schema.
type Property struct {
	Name   string
	Schema *openapi3.Schema
}

type entry struct {
	doc     *openapi3.T
	fetched time.Time
}

// Registry caches parsed OpenAPI documents per service.
type Registry struct {
	mu   sync.RWMutex
	docs map[string]entry
	now  func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		docs: map[string]entry{},
		now:  time.Now,
	}
}

// Document returns the parsed OpenAPI document for the client's service,
// fetching it on first use and keeping it for up to 24 hours.
func (r *Registry) Document(ctx context.Context, client *upstream.Client) (*openapi3.T, error) {
	oasURL := client.OASURL()
	if oasURL == "" {
		return nil, fmt.Errorf("service %s: %w", client.Slug(), ErrMisconfigured)
	}

	r.mu.RLock()
	cached, ok := r.docs[client.Slug()]
	r.mu.RUnlock()
	if ok && r.now().Sub(cached.fetched) < cacheTTL {
		return cached.doc, nil
	}

	res, err := client.Get(ctx, oasURL, nil)
	if err != nil {
		return nil, err
	}
	if !res.Ok() {
		return nil, fmt.Errorf("service %s: OAS fetch returned status %d", client.Slug(), res.StatusCode)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(res.Body)
	if err != nil {
		return nil, fmt.Errorf("service %s: cannot parse OAS: %w", client.Slug(), err)
	}

	r.mu.Lock()
	r.docs[client.Slug()] = entry{doc: doc, fetched: r.now()}
	r.mu.Unlock()
	return doc, nil
}

// Reset drops the cached document for one service.
func (r *Registry) Reset(slug string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, slug)
}

// Operation looks up one operation. Path matching tolerates leading and
// trailing slashes on both sides.
func (r *Registry) Operation(ctx context.Context, client *upstream.Client, method, path string) (*openapi3.Operation, error) {
	doc, err := r.Document(ctx, client)
	if err != nil {
		return nil, err
	}
	normalized := normalizePath(path)
	for declared, item := range doc.Paths.Map() {
		if normalizePath(declared) != normalized || item == nil {
			continue
		}
		op := item.GetOperation(strings.ToUpper(method))
		if op == nil {
			break
		}
		return op, nil
	}
	return nil, fmt.Errorf("%s %s: %w", method, path, ErrOperationNotFound)
}

// ParameterNames returns the set of query and path parameter names an
// operation accepts.
func (r *Registry) ParameterNames(ctx context.Context, client *upstream.Client, method, path string) (map[string]bool, error) {
	op, err := r.Operation(ctx, client, method, path)
	if err != nil {
		return nil, err
	}
	names := map[string]bool{}
	for _, ref := range op.Parameters {
		if ref.Value == nil {
			continue
		}
		if ref.Value.In == openapi3.ParameterInQuery || ref.Value.In == openapi3.ParameterInPath {
			names[ref.Value.Name] = true
		}
	}
	return names, nil
}

// ResultProperties describes the elements an operation returns. For list
// endpoints (no path placeholder) these are the properties of the "results"
// array element; for detail endpoints the top-level response properties.
// Properties are returned in stable (alphabetical) order.
func (r *Registry) ResultProperties(ctx context.Context, client *upstream.Client, method, path string) ([]Property, error) {
	op, err := r.Operation(ctx, client, method, path)
	if err != nil {
		return nil, err
	}
	schema := successSchema(op)
	if schema == nil {
		return nil, nil
	}
	if !strings.Contains(path, "{") {
		results, ok := schema.Properties["results"]
		if !ok || results.Value == nil || results.Value.Items == nil || results.Value.Items.Value == nil {
			return nil, nil
		}
		schema = results.Value.Items.Value
	}
	return sortedProperties(schema), nil
}

// TopPaths lists all endpoint paths the service declares, for dynamic
// route registration at boot.
func (r *Registry) TopPaths(ctx context.Context, client *upstream.Client) ([]string, error) {
	doc, err := r.Document(ctx, client)
	if err != nil {
		return nil, err
	}
	var paths []string
	for declared := range doc.Paths.Map() {
		paths = append(paths, normalizePath(declared))
	}
	sort.Strings(paths)
	return paths, nil
}

func successSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.Responses == nil {
		return nil
	}
	for _, status := range []int{200, 201} {
		ref := op.Responses.Status(status)
		if ref == nil || ref.Value == nil {
			continue
		}
		media := ref.Value.Content.Get("application/json")
		if media == nil || media.Schema == nil || media.Schema.Value == nil {
			continue
		}
		return media.Schema.Value
	}
	return nil
}

func sortedProperties(schema *openapi3.Schema) []Property {
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	props := make([]Property, 0, len(names))
	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		props = append(props, Property{Name: name, Schema: ref.Value})
	}
	return props
}

func normalizePath(path string) string {
	return "/" + strings.Trim(path, "/")
}

// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package expand resolves cross-resource references.

Each endpoint declares a map of field names to resolver functions. A
resolver receives the page of items and returns one expanded value per
item; the results are attached under the item's "_expand" key. Expansion
failures never fail the enclosing response: the field degrades to null
and a warning is logged.
*/
package expand

import (
	"context"
	"sync"

	"github.com/goccy/go-json"

	"github.com/openbeheer/bff/core"
	"github.com/openbeheer/bff/core/logger"
	"github.com/openbeheer/bff/core/upstream"
)

// Func resolves one expansion for a batch of items. It returns a slice
// parallel to items; a nil element means the referent is missing.
type Func func(ctx context.Context, client *upstream.Client, items []map[string]any) ([]any, error)

// Spec declares one expansion: the resolver plus the prototype of the
// expanded objects, used for field metadata.
type Spec struct {
	Resolve   Func
	Prototype any
}

// bounded fan-out per request
const fanout = 8

// Apply runs all declared expansions concurrently and attaches the
// results under items[i]["_expand"][field].
func Apply(ctx context.Context, client *upstream.Client, specs map[string]Spec, items []map[string]any) {
	if len(specs) == 0 || len(items) == 0 {
		return
	}

	type outcome struct {
		field  string
		values []any
	}

	sem := make(chan struct{}, fanout)
	results := make(chan outcome, len(specs))
	var wg sync.WaitGroup

	for field, spec := range specs {
		wg.Add(1)
		go func(field string, spec Spec) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			values, err := spec.Resolve(ctx, client, items)
			if err != nil {
				logger.FromContext(ctx).Warningf("expansion %s failed: %s", field, err)
				values = nil
			}
			results <- outcome{field: field, values: values}
		}(field, spec)
	}
	wg.Wait()
	close(results)

	for out := range results {
		for i, item := range items {
			expansions, ok := item[core.ExpandPrefix].(map[string]any)
			if !ok {
				expansions = map[string]any{}
				item[core.ExpandPrefix] = expansions
			}
			if out.values == nil || i >= len(out.values) {
				expansions[out.field] = nil
				continue
			}
			expansions[out.field] = out.values[i]
		}
	}
}

// fetchObject gets one upstream object by URL and decodes it. Missing or
// broken referents come back as nil.
func fetchObject(ctx context.Context, client *upstream.Client, url string) any {
	res, err := client.Get(ctx, url, nil)
	if err != nil {
		logger.FromContext(ctx).Warningf("expansion fetch %s: %s", url, err)
		return nil
	}
	if !res.Ok() {
		logger.FromContext(ctx).Warningf("expansion fetch %s: status %d", url, res.StatusCode)
		return nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(res.Body, &decoded); err != nil {
		logger.FromContext(ctx).Warningf("expansion fetch %s: %s", url, err)
		return nil
	}
	return decoded
}

// URLRef builds a resolver for a field holding one reference URL.
func URLRef(field string) Func {
	return func(ctx context.Context, client *upstream.Client, items []map[string]any) ([]any, error) {
		values := make([]any, len(items))
		for i, item := range items {
			url, ok := item[field].(string)
			if !ok || url == "" {
				continue
			}
			values[i] = fetchObject(ctx, client, url)
		}
		return values, nil
	}
}

// URLList builds a resolver for a field holding a list of reference URLs.
// Each item expands to the parallel list of referenced objects.
func URLList(field string) Func {
	return func(ctx context.Context, client *upstream.Client, items []map[string]any) ([]any, error) {
		values := make([]any, len(items))
		for i, item := range items {
			refs, ok := item[field].([]any)
			if !ok {
				continue
			}
			expanded := make([]any, 0, len(refs))
			for _, ref := range refs {
				url, ok := ref.(string)
				if !ok || url == "" {
					expanded = append(expanded, nil)
					continue
				}
				expanded = append(expanded, fetchObject(ctx, client, url))
			}
			values[i] = expanded
		}
		return values, nil
	}
}

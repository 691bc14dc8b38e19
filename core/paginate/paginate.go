// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package paginate handles the upstream page envelope: decoding, walking
all pages of a collection, and rewriting pagination links into the
gateway's own URL space.
*/
package paginate

import (
	"context"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/openbeheer/bff/core/problem"
	"github.com/openbeheer/bff/core/upstream"
)

// Page is the envelope the upstreams return for list endpoints.
type Page struct {
	Count    int               `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []json.RawMessage `json:"results"`
}

// Decode parses an upstream list body.
func Decode(body []byte) (*Page, error) {
	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Pagination is the gateway's own pagination block.
type Pagination struct {
	Count    int     `json:"count"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// Each walks all pages of a collection, following the next links, and
// calls fn for every result item. Transport and upstream errors abort
// the walk eagerly.
func Each(ctx context.Context, client *upstream.Client, path string, query url.Values, fn func(json.RawMessage) error) error {
	target := path
	for {
		res, err := client.Get(ctx, target, query)
		if err != nil {
			return problem.FromTransport(err)
		}
		if !res.Ok() {
			return problem.FromUpstream(res.StatusCode, res.Body)
		}
		page, err := Decode(res.Body)
		if err != nil {
			return err
		}
		for _, item := range page.Results {
			if err := fn(item); err != nil {
				return err
			}
		}
		if page.Next == nil || *page.Next == "" {
			return nil
		}
		// the next link already carries the full query
		target = *page.Next
		query = nil
	}
}

// All collects every item of a collection across all pages.
func All(ctx context.Context, client *upstream.Client, path string, query url.Values) ([]json.RawMessage, error) {
	var items []json.RawMessage
	err := Each(ctx, client, path, query, func(item json.RawMessage) error {
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// RewriteLink maps an upstream next/previous link into the gateway's URL
// space: the incoming request URL is kept and only its page parameter is
// replaced by the one from the upstream link. The client never sees
// upstream URLs for pagination.
func RewriteLink(link *string, r *http.Request) *string {
	if link == nil || *link == "" {
		return nil
	}
	parsed, err := url.Parse(*link)
	if err != nil {
		return nil
	}

	query := r.URL.Query()
	if page := parsed.Query().Get("page"); page != "" {
		query.Set("page", page)
	} else {
		query.Del("page")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	rewritten := url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: query.Encode(),
	}
	s := rewritten.String()
	return &s
}

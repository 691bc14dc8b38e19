// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package resource

import (
	"net/http"

	"github.com/openbeheer/bff/core/expand"
	"github.com/openbeheer/bff/core/fields"
	"github.com/openbeheer/bff/core/paginate"
	"github.com/openbeheer/bff/core/problem"
	"github.com/openbeheer/bff/core/query"
	"github.com/openbeheer/bff/core/upstream"
)

// ListEnvelope is the gateway's list response shape.
type ListEnvelope struct {
	Fields     []fields.Field      `json:"fields"`
	Pagination paginate.Pagination `json:"pagination"`
	Results    []map[string]any    `json:"results"`
}

// list serves GET on the collection. One upstream page per request; all
// upstream fetches within the request share a memoization scope.
func (e *Engine) list(b *Bundle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := upstream.ContextWithMemo(r.Context())
		r = r.WithContext(ctx)

		client, err := e.client(r, b)
		if err != nil {
			fail(w, r, err)
			return
		}

		allowed, err := e.allowedParameters(r, client, b)
		if err != nil {
			fail(w, r, err)
			return
		}

		planner := query.Planner{
			PageSize:  b.pageSize(),
			Rename:    b.RenameQuery,
			URLParams: b.URLParams,
			Enums:     b.Enums,
		}
		var prototype any
		if b.NewQuery != nil {
			prototype = b.NewQuery()
		}
		plan, err := planner.Build(r, prototype, allowed, client.BaseURL())
		if err != nil {
			problem.Write(w, r, problem.Invalid(problem.InvalidParam{
				Name:   "$.query",
				Code:   "invalid",
				Reason: err.Error(),
			}))
			return
		}

		if parent := b.parentURL(r, client); parent != "" {
			plan.Values.Set(b.Sub, parent)
		}

		res, err := client.Get(ctx, b.Path, plan.Values)
		if err != nil {
			fail(w, r, problem.FromTransport(err))
			return
		}
		if !res.Ok() {
			fail(w, r, problem.FromUpstream(res.StatusCode, res.Body))
			return
		}
		page, err := paginate.Decode(res.Body)
		if err != nil {
			fail(w, r, problem.FromUpstream(res.StatusCode, res.Body))
			return
		}

		items, err := decodeItems(page.Results)
		if err != nil {
			fail(w, r, problem.FromUpstream(res.StatusCode, res.Body))
			return
		}
		b.decorate(items...)
		expand.Apply(ctx, client, b.ListExpansions, items)

		writeJSON(w, http.StatusOK, ListEnvelope{
			Fields: e.envelopeFields(r, client, b, plan.Fields, false),
			Pagination: paginate.Pagination{
				Count:    page.Count,
				Page:     plan.Page,
				PageSize: b.pageSize(),
				Next:     paginate.RewriteLink(page.Next, r),
				Previous: paginate.RewriteLink(page.Previous, r),
			},
			Results: items,
		})
	}
}

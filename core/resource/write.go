// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package resource

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/openbeheer/bff/core"
	"github.com/openbeheer/bff/core/logger"
	"github.com/openbeheer/bff/core/problem"
	"github.com/openbeheer/bff/core/upstream"
)

// readBody decodes the request body into a map and applies the bundle's
// body transformations. It returns the upstream-bound body plus the
// pre-rewrite original, which the post-create hook receives.
func (e *Engine) readBody(r *http.Request, client *upstream.Client, b *Bundle) (map[string]any, map[string]any, *problem.Problem) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, nil, problem.Invalid(problem.InvalidParam{
			Name:   "$",
			Code:   "invalid",
			Reason: "cannot read request body",
		})
	}
	var body map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, nil, problem.FromDecodeError(err)
		}
	}
	if body == nil {
		body = map[string]any{}
	}

	if b.RenameBody {
		body = core.CamelCaseKeys(body).(map[string]any)
	}
	if parent := b.parentURL(r, client); parent != "" {
		body[b.Sub] = parent
	}

	original := make(map[string]any, len(body))
	for key, value := range body {
		original[key] = value
	}

	if b.RewriteRequest != nil {
		body, err = b.RewriteRequest(r.Context(), body)
		if err != nil {
			var p *problem.Problem
			if !errors.As(err, &p) {
				p = problem.Invalid(problem.InvalidParam{
					Name:   "$",
					Code:   "invalid",
					Reason: err.Error(),
				})
			}
			return nil, nil, p
		}
	}
	return body, original, nil
}

// create serves POST on the collection.
func (e *Engine) create(b *Bundle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := upstream.ContextWithMemo(r.Context())
		r = r.WithContext(ctx)

		client, err := e.client(r, b)
		if err != nil {
			fail(w, r, err)
			return
		}
		body, original, p := e.readBody(r, client, b)
		if p != nil {
			problem.Write(w, r, p)
			return
		}

		payload, err := json.Marshal(body)
		if err != nil {
			fail(w, r, problem.Internal())
			return
		}
		res, err := client.Post(ctx, b.Path, payload)
		if err != nil {
			fail(w, r, problem.FromTransport(err))
			return
		}
		if !res.Ok() {
			fail(w, r, problem.FromUpstream(res.StatusCode, res.Body))
			return
		}

		var created map[string]any
		if err := json.Unmarshal(res.Body, &created); err != nil {
			fail(w, r, problem.FromUpstream(res.StatusCode, res.Body))
			return
		}
		if b.PostCreate != nil {
			enriched, err := b.PostCreate(ctx, client, original, created)
			if err != nil {
				// the object exists upstream, report it anyway
				logger.FromContext(ctx).Warningf("post-create hook on %s failed: %v", b.Resource, err)
			} else {
				created = enriched
			}
		}
		b.decorate(created)
		writeJSON(w, http.StatusCreated, created)
	}
}

// update serves PUT and PATCH on a single resource.
func (e *Engine) update(b *Bundle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := upstream.ContextWithMemo(r.Context())
		r = r.WithContext(ctx)

		client, err := e.client(r, b)
		if err != nil {
			fail(w, r, err)
			return
		}
		body, _, p := e.readBody(r, client, b)
		if p != nil {
			problem.Write(w, r, p)
			return
		}
		payload, err := json.Marshal(body)
		if err != nil {
			fail(w, r, problem.Internal())
			return
		}

		target := b.detailPath(mux.Vars(r)["uuid"])
		var res *upstream.Response
		if r.Method == http.MethodPut {
			res, err = client.Put(ctx, target, payload)
		} else {
			res, err = client.Patch(ctx, target, payload)
		}
		if err != nil {
			fail(w, r, problem.FromTransport(err))
			return
		}
		if !res.Ok() {
			fail(w, r, problem.FromUpstream(res.StatusCode, res.Body))
			return
		}

		var updated map[string]any
		if err := json.Unmarshal(res.Body, &updated); err != nil {
			fail(w, r, problem.FromUpstream(res.StatusCode, res.Body))
			return
		}
		b.decorate(updated)
		writeJSON(w, http.StatusOK, updated)
	}
}

// remove serves DELETE on a single resource.
func (e *Engine) remove(b *Bundle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		client, err := e.client(r, b)
		if err != nil {
			fail(w, r, err)
			return
		}
		res, err := client.Delete(ctx, b.detailPath(mux.Vars(r)["uuid"]))
		if err != nil {
			fail(w, r, problem.FromTransport(err))
			return
		}
		if !res.Ok() {
			fail(w, r, problem.FromUpstream(res.StatusCode, res.Body))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// action serves a declared POST subroute, e.g. publish. The upstream
// call carries an empty body and the result is discarded.
func (e *Engine) action(b *Bundle, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		client, err := e.client(r, b)
		if err != nil {
			fail(w, r, err)
			return
		}
		res, err := client.Post(ctx, b.detailPath(mux.Vars(r)["uuid"])+"/"+name, nil)
		if err != nil {
			fail(w, r, problem.FromTransport(err))
			return
		}
		if !res.Ok() {
			fail(w, r, problem.FromUpstream(res.StatusCode, res.Body))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

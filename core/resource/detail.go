// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package resource

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/openbeheer/bff/core/expand"
	"github.com/openbeheer/bff/core/fields"
	"github.com/openbeheer/bff/core/logger"
	"github.com/openbeheer/bff/core/problem"
	"github.com/openbeheer/bff/core/upstream"
)

// DetailEnvelope is the gateway's detail response shape.
type DetailEnvelope struct {
	Result    map[string]any    `json:"result"`
	Fields    []fields.Field    `json:"fields"`
	Fieldsets []fields.Fieldset `json:"fieldsets"`
	Versions  []VersionSummary  `json:"versions"`
}

// detail serves GET on a single resource.
func (e *Engine) detail(b *Bundle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := upstream.ContextWithMemo(r.Context())
		r = r.WithContext(ctx)

		client, err := e.client(r, b)
		if err != nil {
			fail(w, r, err)
			return
		}

		res, err := client.Get(ctx, b.detailPath(mux.Vars(r)["uuid"]), nil)
		if err != nil {
			fail(w, r, problem.FromTransport(err))
			return
		}
		if !res.Ok() {
			fail(w, r, problem.FromUpstream(res.StatusCode, res.Body))
			return
		}
		var item map[string]any
		if err := json.Unmarshal(res.Body, &item); err != nil {
			fail(w, r, problem.FromUpstream(res.StatusCode, res.Body))
			return
		}

		b.decorate(item)
		items := []map[string]any{item}
		expand.Apply(ctx, client, b.Expansions, items)

		writeJSON(w, http.StatusOK, DetailEnvelope{
			Result:    items[0],
			Fields:    e.envelopeFields(r, client, b, nil, true),
			Fieldsets: b.fieldsets(),
			Versions:  e.versions(ctx, client, b, item),
		})
	}
}

// fieldsets never serializes as null; the UI iterates it unconditionally.
func (b *Bundle) fieldsets() []fields.Fieldset {
	if b.Fieldsets == nil {
		return []fields.Fieldset{}
	}
	return b.Fieldsets
}

// versions resolves the temporal variants of the item. Failures degrade
// to the item's own version; the detail call never fails on version
// lookup.
func (e *Engine) versions(ctx context.Context, client *upstream.Client, b *Bundle, item map[string]any) []VersionSummary {
	if b.Versions != nil {
		versions, err := b.Versions(ctx, client, item)
		if err == nil {
			return versions
		}
		logger.FromContext(ctx).Warningf("version lookup failed: %v", err)
	}
	return []VersionSummary{SingleVersion(item)}
}

// SingleVersion summarizes the item itself as its only version. The
// upstreams identify objects by URL; the uuid is its last segment.
func SingleVersion(item map[string]any) VersionSummary {
	summary := VersionSummary{}
	if s, ok := item["uuid"].(string); ok {
		summary.UUID = s
	} else if s, ok := item["url"].(string); ok {
		summary.UUID = s[strings.LastIndex(s, "/")+1:]
	}
	if s, ok := item["beginGeldigheid"].(string); ok {
		summary.BeginGeldigheid = s
	}
	if s, ok := item["eindeGeldigheid"].(string); ok {
		summary.EindeGeldigheid = &s
	}
	if c, ok := item["concept"].(bool); ok {
		summary.Concept = &c
	}
	return summary
}

// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package catalogs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/openbeheer/bff/core/fields"
	"github.com/openbeheer/bff/core/paginate"
	"github.com/openbeheer/bff/core/problem"
	"github.com/openbeheer/bff/core/registry"
	"github.com/openbeheer/bff/core/upstream"
)

// HandleChoicesRoutes adds the dropdown side routes to the router:
//
//	/service-choices GET
//	/{slug}/catalogi/choices GET
//	/{slug}/procestypen/choices GET
func HandleChoicesRoutes(router *mux.Router, reg *registry.Registry) {
	router.HandleFunc("/service-choices", serviceChoices(reg)).Methods(http.MethodGet)
	router.HandleFunc("/{slug}/catalogi/choices", catalogusChoices(reg)).Methods(http.MethodGet)
	router.HandleFunc("/{slug}/procestypen/choices", procestypeChoices(reg)).Methods(http.MethodGet)
}

func writeChoices(w http.ResponseWriter, choices []fields.Option) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	data, _ := json.Marshal(choices)
	w.Write(data)
}

func choicesError(w http.ResponseWriter, r *http.Request, err error) {
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

// serviceChoices lists the configured services as dropdown options.
func serviceChoices(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := reg.Services(r.Context())
		if err != nil {
			choicesError(w, r, err)
			return
		}
		choices := make([]fields.Option, 0, len(services))
		for _, service := range services {
			choices = append(choices, fields.Option{Label: service.Label, Value: service.Slug})
		}
		writeChoices(w, choices)
	}
}

// catalogusChoices lists all catalogs of a record-types service, the
// value being the catalog uuid.
func catalogusChoices(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := upstream.ContextWithMemo(r.Context())
		client, err := reg.Client(ctx, mux.Vars(r)["slug"], registry.KindRecordTypes)
		if err != nil {
			choicesError(w, r, err)
			return
		}

		var choices []fields.Option
		err = paginate.Each(ctx, client, "/catalogi", nil, func(raw json.RawMessage) error {
			var catalogus Catalogus
			if err := json.Unmarshal(raw, &catalogus); err != nil {
				return err
			}
			label := catalogus.Naam
			if label == "" {
				label = catalogus.Domein
			}
			uuid := catalogus.URL[strings.LastIndex(catalogus.URL, "/")+1:]
			choices = append(choices, fields.Option{Label: label, Value: uuid})
			return nil
		})
		if err != nil {
			choicesError(w, r, err)
			return
		}
		if choices == nil {
			choices = []fields.Option{}
		}
		writeChoices(w, choices)
	}
}

// procestype is the selection-list process type, as far as the dropdown
// needs it.
type procestype struct {
	URL  string `json:"url"`
	Naam string `json:"naam"`
	Jaar int    `json:"jaar"`
}

// procestypeChoices lists the process types of a selection-list service,
// the value being the full upstream URL, which is what case-types
// reference.
func procestypeChoices(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := upstream.ContextWithMemo(r.Context())
		client, err := reg.Client(ctx, mux.Vars(r)["slug"], registry.KindSelectionList)
		if err != nil {
			choicesError(w, r, err)
			return
		}

		var choices []fields.Option
		err = paginate.Each(ctx, client, "/procestypen", nil, func(raw json.RawMessage) error {
			var pt procestype
			if err := json.Unmarshal(raw, &pt); err != nil {
				return err
			}
			choices = append(choices, fields.Option{
				Label: fmt.Sprintf("%s (%d)", pt.Naam, pt.Jaar),
				Value: pt.URL,
			})
			return nil
		})
		if err != nil {
			choicesError(w, r, err)
			return
		}
		if choices == nil {
			choices = []fields.Option{}
		}
		writeChoices(w, choices)
	}
}

// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package catalogs

import (
	"context"

	"github.com/openbeheer/bff/core/fields"
	"github.com/openbeheer/bff/core/registry"
	"github.com/openbeheer/bff/core/resource"
)

// Eigenschap is one typed attribute of a case-type.
type Eigenschap struct {
	URL         string `json:"url"`
	Naam        string `json:"naam"`
	Definitie   string `json:"definitie"`
	Toelichting string `json:"toelichting"`
	Zaaktype    string `json:"zaaktype"`
}

type eigenschappenQuery struct {
	Status string `schema:"status"`
	Page   int    `schema:"page"`
}

// FormaatOptions is the fixed attribute format value list.
var FormaatOptions = []fields.Option{
	{Label: "Tekst", Value: "tekst"},
	{Label: "Getal", Value: "getal"},
	{Label: "Datum", Value: "datum"},
	{Label: "Datum/tijd", Value: "datum_tijd"},
}

// Eigenschappen is the attributes bundle, nested under a case-type.
//
// Clients send the friendly {field, format} pair; the upstream wants a
// nested specificatie object. The rewrite hook does the projection.
func Eigenschappen() *resource.Bundle {
	return &resource.Bundle{
		Resource:       "eigenschappen",
		Path:           "/eigenschappen",
		Kind:           registry.KindRecordTypes,
		Sub:            "zaaktype",
		SubPath:        "/zaaktypen",
		Prototype:      Eigenschap{},
		NewQuery:       func() any { return &eigenschappenQuery{} },
		Editable:       []string{"naam", "definitie", "toelichting"},
		RewriteRequest: rewriteEigenschap,
	}
}

// rewriteEigenschap projects {format, lengte?} onto the upstream's
// specificatie shape. Bodies that already carry a specificatie pass
// unchanged.
func rewriteEigenschap(ctx context.Context, body map[string]any) (map[string]any, error) {
	if _, ok := body["specificatie"]; ok {
		return body, nil
	}
	format, ok := body["format"].(string)
	if !ok || format == "" {
		return body, nil
	}
	delete(body, "format")

	lengte, _ := body["lengte"].(string)
	delete(body, "lengte")
	if lengte == "" {
		// TODO: the catalog requires a lengte even for non-text formats
		// and accepts "255" there; find out what it actually validates
		// for getal and datum before exposing lengte in the UI.
		lengte = "255"
	}

	body["specificatie"] = map[string]any{
		"formaat":       format,
		"lengte":        lengte,
		"kardinaliteit": "1",
	}
	return body, nil
}

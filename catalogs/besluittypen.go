// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package catalogs

import (
	"context"

	"github.com/openbeheer/bff/core/registry"
	"github.com/openbeheer/bff/core/resource"
)

// Besluittype is one decision type within a catalog.
type Besluittype struct {
	URL                  string   `json:"url"`
	Catalogus            string   `json:"catalogus"`
	Zaaktypen            []string `json:"zaaktypen"`
	Omschrijving         string   `json:"omschrijving"`
	OmschrijvingGeneriek string   `json:"omschrijvingGeneriek"`
	Besluitcategorie     string   `json:"besluitcategorie"`
	Reactietermijn       string   `json:"reactietermijn"`
	PublicatieIndicatie  bool     `json:"publicatieIndicatie"`
	Toelichting          string   `json:"toelichting"`
	BeginGeldigheid      string   `json:"beginGeldigheid"`
	EindeGeldigheid      string   `json:"eindeGeldigheid"`
	Concept              bool     `json:"concept"`
}

type besluittypenQuery struct {
	Catalogus string `schema:"catalogus"`
	Status    string `schema:"status"`
	Page      int    `schema:"page"`
}

// Besluittypen is the decision-types bundle, nested under a case-type.
// The upstream relates decision types to case-types through a list; the
// rewrite hook folds the injected parent into it.
func Besluittypen() *resource.Bundle {
	return &resource.Bundle{
		Resource:  "besluittypen",
		Path:      "/besluittypen",
		Kind:      registry.KindRecordTypes,
		Sub:       "zaaktype",
		SubPath:   "/zaaktypen",
		Prototype: Besluittype{},
		NewQuery:  func() any { return &besluittypenQuery{} },
		URLParams: map[string]string{"catalogus": "/catalogi"},
		Editable: []string{
			"omschrijving", "besluitcategorie", "reactietermijn",
			"toelichting", "beginGeldigheid", "eindeGeldigheid",
		},
		RewriteRequest: rewriteBesluittype,
		Actions:        []string{"publish"},
	}
}

func rewriteBesluittype(ctx context.Context, body map[string]any) (map[string]any, error) {
	zaaktype, ok := body["zaaktype"].(string)
	if !ok || zaaktype == "" {
		return body, nil
	}
	delete(body, "zaaktype")

	zaaktypen, _ := body["zaaktypen"].([]any)
	for _, existing := range zaaktypen {
		if existing == zaaktype {
			return body, nil
		}
	}
	body["zaaktypen"] = append(zaaktypen, zaaktype)
	return body, nil
}

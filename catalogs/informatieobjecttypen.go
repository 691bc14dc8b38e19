// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package catalogs

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/openbeheer/bff/core/fields"
	"github.com/openbeheer/bff/core/registry"
	"github.com/openbeheer/bff/core/resource"
	"github.com/openbeheer/bff/core/upstream"
)

// Informatieobjecttype is one document type within a catalog.
type Informatieobjecttype struct {
	URL                         string `json:"url"`
	Catalogus                   string `json:"catalogus"`
	Omschrijving                string `json:"omschrijving"`
	Vertrouwelijkheidaanduiding string `json:"vertrouwelijkheidaanduiding"`
	InformatieobjectCategorie   string `json:"informatieobjectcategorie"`
	BeginGeldigheid             string `json:"beginGeldigheid"`
	EindeGeldigheid             string `json:"eindeGeldigheid"`
	Concept                     bool   `json:"concept"`
}

type informatieobjecttypenQuery struct {
	Catalogus string `schema:"catalogus"`
	Status    string `schema:"status"`
	Page      int    `schema:"page"`
}

// Informatieobjecttypen is the document-types bundle, nested under a
// case-type. Document types live per catalog upstream; the relation to
// the case-type is a separate resource, created by the post-create hook.
func Informatieobjecttypen() *resource.Bundle {
	return &resource.Bundle{
		Resource:  "informatieobjecttypen",
		Path:      "/informatieobjecttypen",
		Kind:      registry.KindRecordTypes,
		Sub:       "zaaktype",
		SubPath:   "/zaaktypen",
		Prototype: Informatieobjecttype{},
		NewQuery:  func() any { return &informatieobjecttypenQuery{} },
		URLParams: map[string]string{"catalogus": "/catalogi"},
		Enums: map[string][]fields.Option{
			"vertrouwelijkheidaanduiding": VertrouwelijkheidOptions,
		},
		Editable: []string{
			"omschrijving", "vertrouwelijkheidaanduiding",
			"beginGeldigheid", "eindeGeldigheid",
		},
		RewriteRequest: stripZaaktype,
		PostCreate:     attachToZaaktype,
		Actions:        []string{"publish"},
	}
}

// stripZaaktype removes the injected parent reference before the create
// is forwarded; document types do not carry it, the relation resource
// does.
func stripZaaktype(ctx context.Context, body map[string]any) (map[string]any, error) {
	delete(body, "zaaktype")
	return body, nil
}

// attachToZaaktype creates the case-type/document-type relation for a
// document type created through the nested route.
func attachToZaaktype(ctx context.Context, client *upstream.Client, body, created map[string]any) (map[string]any, error) {
	zaaktype, ok := body["zaaktype"].(string)
	if !ok || zaaktype == "" {
		return created, nil
	}
	url, ok := created["url"].(string)
	if !ok {
		return created, fmt.Errorf("created informatieobjecttype carries no url")
	}

	volgnummer, ok := body["volgnummer"].(float64)
	if !ok {
		volgnummer = 1
	}
	richting, ok := body["richting"].(string)
	if !ok || richting == "" {
		richting = "inkomend"
	}

	relation, err := json.Marshal(map[string]any{
		"zaaktype":             zaaktype,
		"informatieobjecttype": url,
		"volgnummer":           int(volgnummer),
		"richting":             richting,
	})
	if err != nil {
		return created, err
	}
	res, err := client.Post(ctx, "/zaaktypeinformatieobjecttypen", relation)
	if err != nil {
		return created, err
	}
	if !res.Ok() {
		return created, fmt.Errorf("attach to zaaktype: upstream status %d", res.StatusCode)
	}
	created["zaaktype"] = zaaktype
	return created, nil
}

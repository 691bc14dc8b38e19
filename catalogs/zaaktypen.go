// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package catalogs

import (
	"time"

	"github.com/openbeheer/bff/core/expand"
	"github.com/openbeheer/bff/core/fields"
	"github.com/openbeheer/bff/core/registry"
	"github.com/openbeheer/bff/core/resource"
)

// Zaaktype is the upstream case-type record as the gateway reflects it.
type Zaaktype struct {
	URL                         string   `json:"url"`
	Identificatie               string   `json:"identificatie"`
	Omschrijving                string   `json:"omschrijving"`
	OmschrijvingGeneriek        string   `json:"omschrijvingGeneriek"`
	Vertrouwelijkheidaanduiding string   `json:"vertrouwelijkheidaanduiding"`
	Doel                        string   `json:"doel"`
	Aanleiding                  string   `json:"aanleiding"`
	Toelichting                 string   `json:"toelichting"`
	IndicatieInternOfExtern     string   `json:"indicatieInternOfExtern"`
	HandelingInitiator          string   `json:"handelingInitiator"`
	Onderwerp                   string   `json:"onderwerp"`
	HandelingBehandelaar        string   `json:"handelingBehandelaar"`
	Doorlooptijd                string   `json:"doorlooptijd"`
	OpschortingMogelijk         bool     `json:"opschortingEnAanhoudingMogelijk"`
	VerlengingMogelijk          bool     `json:"verlengingMogelijk"`
	PublicatieIndicatie         bool     `json:"publicatieIndicatie"`
	SelectielijstProcestype     string   `json:"selectielijstProcestype"`
	Catalogus                   string   `json:"catalogus"`
	Statustypen                 []string `json:"statustypen"`
	Resultaattypen              []string `json:"resultaattypen"`
	Besluittypen                []string `json:"besluittypen"`
	BeginGeldigheid             string   `json:"beginGeldigheid"`
	EindeGeldigheid             string   `json:"eindeGeldigheid"`
	Versiedatum                 string   `json:"versiedatum"`
	Concept                     bool     `json:"concept"`
	Actief                      bool     `json:"actief"`
}

type zaaktypenQuery struct {
	Catalogus                   string `schema:"catalogus"`
	Identificatie               string `schema:"identificatie"`
	Trefwoorden                 string `schema:"trefwoorden"`
	Status                      string `schema:"status"`
	Vertrouwelijkheidaanduiding string `schema:"vertrouwelijkheidaanduiding"`
	Page                        int    `schema:"page"`
}

// VertrouwelijkheidOptions is the fixed confidentiality value list.
var VertrouwelijkheidOptions = []fields.Option{
	{Label: "Openbaar", Value: "openbaar"},
	{Label: "Beperkt openbaar", Value: "beperkt_openbaar"},
	{Label: "Intern", Value: "intern"},
	{Label: "Zaakvertrouwelijk", Value: "zaakvertrouwelijk"},
	{Label: "Vertrouwelijk", Value: "vertrouwelijk"},
	{Label: "Confidentieel", Value: "confidentieel"},
	{Label: "Geheim", Value: "geheim"},
	{Label: "Zeer geheim", Value: "zeer_geheim"},
}

// Zaaktypen is the case-types bundle.
func Zaaktypen() *resource.Bundle {
	return &resource.Bundle{
		Resource:  "zaaktypen",
		Path:      "/zaaktypen",
		Kind:      registry.KindRecordTypes,
		Prototype: Zaaktype{},
		NewQuery:  func() any { return &zaaktypenQuery{} },
		URLParams: map[string]string{"catalogus": "/catalogi"},
		Enums: map[string][]fields.Option{
			"vertrouwelijkheidaanduiding": VertrouwelijkheidOptions,
		},
		Editable: []string{
			"omschrijving", "doel", "aanleiding", "toelichting", "onderwerp",
			"vertrouwelijkheidaanduiding", "doorlooptijd",
			"beginGeldigheid", "eindeGeldigheid",
		},
		Expansions: map[string]expand.Spec{
			"statustypen":    {Resolve: expand.URLList("statustypen"), Prototype: Statustype{}},
			"resultaattypen": {Resolve: expand.URLList("resultaattypen"), Prototype: Resultaattype{}},
			"besluittypen":   {Resolve: expand.URLList("besluittypen"), Prototype: Besluittype{}},
			"catalogus":      {Resolve: expand.URLRef("catalogus"), Prototype: Catalogus{}},
		},
		Fieldsets: []fields.Fieldset{
			{Label: "Overzicht", Fields: []string{
				"identificatie", "omschrijving", "doel", "onderwerp",
				"vertrouwelijkheidaanduiding", "actief",
			}},
			{Label: "Algemeen", Fields: []string{
				"omschrijvingGeneriek", "aanleiding", "toelichting",
				"indicatieInternOfExtern", "handelingInitiator", "handelingBehandelaar",
				"doorlooptijd", "opschortingEnAanhoudingMogelijk", "verlengingMogelijk",
				"publicatieIndicatie", "selectielijstProcestype",
			}, Span: 2},
			{Label: "Geldigheid", Fields: []string{
				"beginGeldigheid", "eindeGeldigheid", "versiedatum", "concept",
			}},
		},
		Versions: resource.VersionsByIdentificatie("/zaaktypen"),
		Decorate: decorateActief,
		Actions:  []string{"publish"},
	}
}

// decorateActief derives the computed actief flag: published and valid
// today.
func decorateActief(item map[string]any) {
	today := time.Now().Format("2006-01-02")
	actief := true
	if concept, ok := item["concept"].(bool); ok && concept {
		actief = false
	}
	if begin, ok := item["beginGeldigheid"].(string); ok && begin > today {
		actief = false
	}
	if einde, ok := item["eindeGeldigheid"].(string); ok && einde != "" && einde < today {
		actief = false
	}
	item["actief"] = actief
}

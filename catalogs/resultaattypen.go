// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package catalogs

import (
	"github.com/openbeheer/bff/core/fields"
	"github.com/openbeheer/bff/core/registry"
	"github.com/openbeheer/bff/core/resource"
)

// Resultaattype is one possible outcome of a case-type, tied to a
// selection-list class that dictates archiving.
type Resultaattype struct {
	URL                       string `json:"url"`
	Zaaktype                  string `json:"zaaktype"`
	Omschrijving              string `json:"omschrijving"`
	ResultaattypeOmschrijving string `json:"resultaattypeomschrijving"`
	OmschrijvingGeneriek      string `json:"omschrijvingGeneriek"`
	Selectielijstklasse       string `json:"selectielijstklasse"`
	Toelichting               string `json:"toelichting"`
	Archiefnominatie          string `json:"archiefnominatie"`
	Archiefactietermijn       string `json:"archiefactietermijn"`
}

type resultaattypenQuery struct {
	Status string `schema:"status"`
	Page   int    `schema:"page"`
}

// ArchiefnominatieOptions is the fixed archiving value list.
var ArchiefnominatieOptions = []fields.Option{
	{Label: "Blijvend bewaren", Value: "blijvend_bewaren"},
	{Label: "Vernietigen", Value: "vernietigen"},
}

// Resultaattypen is the result-types bundle, nested under a case-type.
func Resultaattypen() *resource.Bundle {
	return &resource.Bundle{
		Resource:  "resultaattypen",
		Path:      "/resultaattypen",
		Kind:      registry.KindRecordTypes,
		Sub:       "zaaktype",
		SubPath:   "/zaaktypen",
		Prototype: Resultaattype{},
		NewQuery:  func() any { return &resultaattypenQuery{} },
		Enums: map[string][]fields.Option{
			"archiefnominatie": ArchiefnominatieOptions,
		},
		Editable: []string{
			"omschrijving", "selectielijstklasse", "toelichting",
			"archiefnominatie", "archiefactietermijn",
		},
	}
}

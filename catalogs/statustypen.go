// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package catalogs

import (
	"github.com/openbeheer/bff/core/registry"
	"github.com/openbeheer/bff/core/resource"
)

// Statustype is one status within the lifecycle of a case-type.
type Statustype struct {
	URL                  string `json:"url"`
	Omschrijving         string `json:"omschrijving"`
	OmschrijvingGeneriek string `json:"omschrijvingGeneriek"`
	Statustekst          string `json:"statustekst"`
	Zaaktype             string `json:"zaaktype"`
	Volgnummer           int    `json:"volgnummer"`
	IsEindstatus         bool   `json:"isEindstatus"`
	Informeren           bool   `json:"informeren"`
}

type statustypenQuery struct {
	Status string `schema:"status"`
	Page   int    `schema:"page"`
}

// Statustypen is the status-types bundle, nested under a case-type.
func Statustypen() *resource.Bundle {
	return &resource.Bundle{
		Resource:  "statustypen",
		Path:      "/statustypen",
		Kind:      registry.KindRecordTypes,
		Sub:       "zaaktype",
		SubPath:   "/zaaktypen",
		Prototype: Statustype{},
		NewQuery:  func() any { return &statustypenQuery{} },
		Editable: []string{
			"omschrijving", "statustekst", "volgnummer", "informeren",
		},
	}
}

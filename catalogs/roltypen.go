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

// Roltype is one involvement role within a case-type.
type Roltype struct {
	URL                  string `json:"url"`
	Zaaktype             string `json:"zaaktype"`
	Omschrijving         string `json:"omschrijving"`
	OmschrijvingGeneriek string `json:"omschrijvingGeneriek"`
}

// RolOmschrijvingOptions is the fixed generic role value list.
var RolOmschrijvingOptions = []fields.Option{
	{Label: "Adviseur", Value: "adviseur"},
	{Label: "Behandelaar", Value: "behandelaar"},
	{Label: "Belanghebbende", Value: "belanghebbende"},
	{Label: "Beslisser", Value: "beslisser"},
	{Label: "Initiator", Value: "initiator"},
	{Label: "Klantcontacter", Value: "klantcontacter"},
	{Label: "Zaakcoördinator", Value: "zaakcoordinator"},
	{Label: "Mede-initiator", Value: "mede_initiator"},
}

type roltypenQuery struct {
	OmschrijvingGeneriek string `schema:"omschrijving_generiek"`
	Status               string `schema:"status"`
	Page                 int    `schema:"page"`
}

// Roltypen is the role-types bundle, nested under a case-type.
func Roltypen() *resource.Bundle {
	return &resource.Bundle{
		Resource:    "roltypen",
		Path:        "/roltypen",
		Kind:        registry.KindRecordTypes,
		Sub:         "zaaktype",
		SubPath:     "/zaaktypen",
		Prototype:   Roltype{},
		NewQuery:    func() any { return &roltypenQuery{} },
		RenameQuery: true,
		Enums: map[string][]fields.Option{
			"omschrijvingGeneriek": RolOmschrijvingOptions,
		},
		Editable: []string{"omschrijving", "omschrijvingGeneriek"},
	}
}

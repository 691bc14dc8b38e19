// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package catalogs

import (
	"github.com/openbeheer/bff/core/expand"
	"github.com/openbeheer/bff/core/registry"
	"github.com/openbeheer/bff/core/resource"
)

// Zaakobjecttype relates a case-type to an object type in the object
// types service.
type Zaakobjecttype struct {
	URL                string `json:"url"`
	Zaaktype           string `json:"zaaktype"`
	Objecttype         string `json:"objecttype"`
	AnderObjecttype    bool   `json:"anderObjecttype"`
	RelatieOmschrijving string `json:"relatieOmschrijving"`
	BeginGeldigheid    string `json:"beginGeldigheid"`
	EindeGeldigheid    string `json:"eindeGeldigheid"`
}

type zaakobjecttypenQuery struct {
	Objecttype string `schema:"objecttype"`
	Page       int    `schema:"page"`
}

// Zaakobjecttypen is the case-object-types bundle, nested under a
// case-type.
func Zaakobjecttypen() *resource.Bundle {
	return &resource.Bundle{
		Resource:  "zaakobjecttypen",
		Path:      "/zaakobjecttypen",
		Kind:      registry.KindRecordTypes,
		Sub:       "zaaktype",
		SubPath:   "/zaaktypen",
		Prototype: Zaakobjecttype{},
		NewQuery:  func() any { return &zaakobjecttypenQuery{} },
		Expansions: map[string]expand.Spec{
			"zaaktype": {Resolve: expand.URLRef("zaaktype"), Prototype: Zaaktype{}},
		},
		Editable: []string{"objecttype", "relatieOmschrijving", "beginGeldigheid", "eindeGeldigheid"},
	}
}

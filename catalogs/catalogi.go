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

// Catalogus is one catalog within a record-types service.
type Catalogus struct {
	URL                      string `json:"url"`
	Domein                   string `json:"domein"`
	RSIN                     string `json:"rsin"`
	Naam                     string `json:"naam"`
	ContactpersoonBeheerNaam string `json:"contactpersoonBeheerNaam"`
}

type catalogiQuery struct {
	Domein string `schema:"domein"`
	RSIN   string `schema:"rsin"`
	Page   int    `schema:"page"`
}

// Catalogi is the catalogs bundle.
func Catalogi() *resource.Bundle {
	return &resource.Bundle{
		Resource:  "catalogi",
		Path:      "/catalogi",
		Kind:      registry.KindRecordTypes,
		Prototype: Catalogus{},
		NewQuery:  func() any { return &catalogiQuery{} },
		Editable:  []string{"naam", "contactpersoonBeheerNaam"},
	}
}

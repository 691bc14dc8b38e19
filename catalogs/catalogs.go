// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package catalogs wires the gateway's resource surface: one declarative
bundle per upstream catalog resource, plus the choices side routes. The
bundle table below is the complete description of what the gateway
proxies; the generic machinery in core/resource does everything else.
*/
package catalogs

import (
	"github.com/gorilla/mux"

	"github.com/openbeheer/bff/core/oas"
	"github.com/openbeheer/bff/core/registry"
	"github.com/openbeheer/bff/core/resource"
)

// Bundles returns the full bundle table.
func Bundles() []*resource.Bundle {
	return []*resource.Bundle{
		Zaaktypen(),
		Statustypen(),
		Resultaattypen(),
		Roltypen(),
		Eigenschappen(),
		Informatieobjecttypen(),
		Besluittypen(),
		Zaakobjecttypen(),
		Catalogi(),
	}
}

// Mount registers the whole resource surface on the /api/v1 subrouter.
// Side routes with literal segments go first so they are matched before
// the parameterized bundle routes.
func Mount(router *mux.Router, reg *registry.Registry, oasReg *oas.Registry) error {
	HandleChoicesRoutes(router, reg)
	engine := resource.NewEngine(reg, oasReg)
	for _, b := range Bundles() {
		if err := engine.Mount(router, b); err != nil {
			return err
		}
	}
	return nil
}

// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package resource

import (
	"context"

	"github.com/openbeheer/bff/core/expand"
	"github.com/openbeheer/bff/core/fields"
	"github.com/openbeheer/bff/core/registry"
	"github.com/openbeheer/bff/core/upstream"
)

// default page size per endpoint
const defaultPageSize = 100

// VersionSummary is one temporal variant of a logical resource.
type VersionSummary struct {
	UUID            string  `json:"uuid"`
	BeginGeldigheid string  `json:"beginGeldigheid"`
	EindeGeldigheid *string `json:"eindeGeldigheid,omitempty"`
	Concept         *bool   `json:"concept,omitempty"`
}

// VersionsFunc resolves all temporal variants of the given item.
type VersionsFunc func(ctx context.Context, client *upstream.Client, item map[string]any) ([]VersionSummary, error)

// RewriteFunc rewrites an outbound request body before it is forwarded.
type RewriteFunc func(ctx context.Context, body map[string]any) (map[string]any, error)

// PostCreateFunc runs after a successful create and may enrich the
// returned object, e.g. to attach the new child to its parent. It
// receives the pre-rewrite request body alongside the created object.
type PostCreateFunc func(ctx context.Context, client *upstream.Client, body, created map[string]any) (map[string]any, error)

// Bundle is the complete declarative description of one proxied upstream
// resource. The generic list/detail/write machinery consumes bundles; no
// per-resource control flow lives anywhere else.
type Bundle struct {
	// Resource is the gateway route segment, e.g. "zaaktypen".
	Resource string
	// Path is the upstream collection path, e.g. "/zaaktypen".
	Path string
	// Kind selects which family of services this bundle talks to.
	Kind registry.Kind

	// Sub nests the resource under a parent, e.g. "zaaktype" mounts the
	// bundle at /{slug}/{zaaktype}/… and scopes list and create calls to
	// that parent. SubPath is the parent's upstream collection path.
	Sub     string
	SubPath string

	// Prototype is the declared result type, reflected for field
	// metadata. When nil, field metadata is derived from the OAS instead.
	Prototype any
	// NewQuery returns a fresh pointer to the declared query-parameter
	// struct. Nil means the endpoint takes no filters.
	NewQuery func() any

	PageSize    int
	RenameQuery bool
	RenameBody  bool
	// URLParams maps query parameters whose UUID values expand to full
	// upstream URLs, e.g. "catalogus" -> "/catalogi".
	URLParams map[string]string
	Enums     map[string][]fields.Option
	Editable  []string

	// ListExpansions run per list page, Expansions per detail call.
	ListExpansions map[string]expand.Spec
	Expansions     map[string]expand.Spec

	Fieldsets []fields.Fieldset

	// Versions resolves the temporal variants for detail calls. Nil means
	// the resource does not version-partition and reports itself only.
	Versions VersionsFunc

	RewriteRequest RewriteFunc
	PostCreate     PostCreateFunc

	// Decorate runs over every emitted result object, for computed
	// attributes the upstream does not carry.
	Decorate func(item map[string]any)

	// Actions are POST subroutes forwarded verbatim, e.g. "publish".
	Actions []string
}

func (b *Bundle) pageSize() int {
	if b.PageSize > 0 {
		return b.PageSize
	}
	return defaultPageSize
}

func (b *Bundle) routePrefix() string {
	prefix := "/{slug}"
	if b.Sub != "" {
		prefix += "/{" + b.Sub + "}"
	}
	return prefix + "/" + b.Resource
}

func (b *Bundle) detailPath(uuid string) string {
	return b.Path + "/" + uuid
}

func (b *Bundle) decorate(items ...map[string]any) {
	if b.Decorate == nil {
		return
	}
	for _, item := range items {
		b.Decorate(item)
	}
}

// resultFields reflects the declared result type, including expansion
// subfields and declared editable fields.
func (b *Bundle) resultFields() []fields.Field {
	if b.Prototype == nil {
		return nil
	}
	out := fields.FromStruct(b.Prototype)
	prototypes := map[string]any{}
	for name, spec := range b.Expansions {
		if spec.Prototype != nil {
			prototypes[name] = spec.Prototype
		}
	}
	out = fields.WithExpansions(out, prototypes)
	return fields.MarkEditable(out, b.Editable)
}

// Validate checks the bundle's static configuration. It runs at boot.
func (b *Bundle) Validate() error {
	if b.Prototype == nil {
		// OAS-driven bundles are checked against the upstream at runtime
		return nil
	}
	return fields.ValidateFieldsets(b.Fieldsets, b.resultFields())
}

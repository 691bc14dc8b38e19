// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package resource

import (
	"context"
	"fmt"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/openbeheer/bff/core/paginate"
	"github.com/openbeheer/bff/core/upstream"
)

// VersionsByIdentificatie builds a version resolver for resources whose
// temporal variants share an identificatie within a catalogus. The
// upstream hides non-published versions unless status=alles is passed.
func VersionsByIdentificatie(path string) VersionsFunc {
	return func(ctx context.Context, client *upstream.Client, item map[string]any) ([]VersionSummary, error) {
		identificatie, ok := item["identificatie"].(string)
		if !ok || identificatie == "" {
			return []VersionSummary{SingleVersion(item)}, nil
		}

		query := url.Values{}
		query.Set("identificatie", identificatie)
		query.Set("status", "alles")
		if catalogus, ok := item["catalogus"].(string); ok && catalogus != "" {
			query.Set("catalogus", catalogus)
		}

		var versions []VersionSummary
		err := paginate.Each(ctx, client, path, query, func(raw json.RawMessage) error {
			var variant map[string]any
			if err := json.Unmarshal(raw, &variant); err != nil {
				return fmt.Errorf("version item: %w", err)
			}
			versions = append(versions, SingleVersion(variant))
			return nil
		})
		if err != nil {
			return nil, err
		}
		if len(versions) == 0 {
			versions = []VersionSummary{SingleVersion(item)}
		}
		return versions, nil
	}
}

// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package registry

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/xeipuuv/gojsonschema"
)

// configurationSchema describes the static services configuration. The
// configuration is validated against it at boot, so wiring mistakes fail
// the process instead of the first request.
const configurationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["services"],
  "properties": {
    "services": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["slug", "kind", "api_root"],
        "properties": {
          "slug": {"type": "string", "minLength": 1},
          "label": {"type": "string"},
          "kind": {"enum": ["record-types", "selection-list", "object-types"]},
          "api_root": {"type": "string", "pattern": "^https?://"},
          "oas_url": {"type": "string"},
          "auth_type": {"enum": ["none", "api_key", "bearer", "zgw"]},
          "header": {"type": "string"},
          "api_key": {"type": "string"},
          "client_id": {"type": "string"},
          "secret": {"type": "string"}
        },
        "additionalProperties": false
      }
    }
  }
}`

type servicesConfiguration struct {
	Services []Service `json:"services"`
}

// LoadConfiguration parses and validates a static services configuration.
func LoadConfiguration(data []byte) ([]Service, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configurationSchema),
		gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("parse error in services configuration: %s", err)
	}
	if !result.Valid() {
		var reasons []string
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return nil, fmt.Errorf("invalid services configuration: %s", strings.Join(reasons, "; "))
	}

	var config servicesConfiguration
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse error in services configuration: %s", err)
	}
	for i := range config.Services {
		if config.Services[i].AuthType == "" {
			config.Services[i].AuthType = "none"
		}
		if config.Services[i].Label == "" {
			config.Services[i].Label = config.Services[i].Slug
		}
	}
	return config.Services, nil
}

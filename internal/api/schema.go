package api

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	wferrors "github.com/Constantin2105/inspiratec-engine/internal/common/errors"
)

// actionSchema guards the shape of POST /api/v1/actions before any engine
// work. Action legality itself is the transition table's job; this only
// rejects malformed requests.
var actionSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"entityType", "entityId", "action"},
	"properties": map[string]interface{}{
		"entityType": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"ao", "candidature", "interview"},
		},
		"entityId": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"action": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"payload": map[string]interface{}{
			"type": "object",
		},
	},
	"additionalProperties": false,
}

func validateActionRequest(body map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(actionSchema)
	documentLoader := gojsonschema.NewGoLoader(body)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return wferrors.NewInternalError(err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return wferrors.NewMissingFieldError(strings.Join(errs, "; "))
	}
	return nil
}

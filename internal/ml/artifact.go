package ml

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const factorModelSchema = `{
  "type": "object",
  "required": ["name", "global_mean", "rating_scale", "factors", "users", "items"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "version": {"type": "string"},
    "global_mean": {"type": "number"},
    "rating_scale": {
      "type": "array",
      "items": {"type": "number"},
      "minItems": 2,
      "maxItems": 2
    },
    "factors": {"type": "integer", "minimum": 0},
    "users": {"type": "object", "additionalProperties": {"$ref": "#/definitions/term"}},
    "items": {"type": "object", "additionalProperties": {"$ref": "#/definitions/term"}}
  },
  "definitions": {
    "term": {
      "type": "object",
      "required": ["bias"],
      "properties": {
        "bias": {"type": "number"},
        "factors": {"type": "array", "items": {"type": "number"}}
      }
    }
  }
}`

const docVectorsSchema = `{
  "type": "object",
  "required": ["name", "dimensions", "vectors"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "version": {"type": "string"},
    "dimensions": {"type": "integer", "minimum": 1},
    "vectors": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {"type": "array", "items": {"type": "number"}}
    }
  }
}`

var (
	factorSchema = gojsonschema.NewStringLoader(factorModelSchema)
	vectorSchema = gojsonschema.NewStringLoader(docVectorsSchema)
)

// validateArtifact checks raw artifact bytes against a JSON schema and folds
// every violation into a single error.
func validateArtifact(schema gojsonschema.JSONLoader, data []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to validate artifact: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return fmt.Errorf("invalid artifact: %s", strings.Join(msgs, "; "))
}

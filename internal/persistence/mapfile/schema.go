package mapfile

import "github.com/santhosh-tekuri/jsonschema/v5"

// On-disk chunk shape: coordinate plus exactly 8 layers of exactly 1024 ids.
const chunkSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["x", "y", "group", "tile"],
  "properties": {
    "x": {"type": "integer", "minimum": -2147483648, "maximum": 2147483647},
    "y": {"type": "integer", "minimum": -2147483648, "maximum": 2147483647},
    "group": {"type": "integer", "minimum": 0},
    "tile": {
      "type": "array",
      "minItems": 8,
      "maxItems": 8,
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {
            "type": "array",
            "minItems": 1024,
            "maxItems": 1024,
            "items": {"type": "integer", "minimum": 0, "maximum": 4294967295}
          }
        }
      }
    }
  }
}`

var chunkSchema = jsonschema.MustCompileString("chunk.schema.json", chunkSchemaJSON)

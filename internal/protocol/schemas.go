package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const actSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "protocol_version", "cmd"],
  "properties": {
    "type": {"const": "ACT"},
    "protocol_version": {"type": "string"},
    "id": {"type": "string"},
    "cmd": {
      "enum": ["paint", "move", "jump", "save", "save_all", "select", "switch_source", "hover"]
    },
    "paint": {
      "type": "object",
      "required": ["x", "y", "layer"],
      "properties": {
        "x": {"type": "integer", "minimum": 0, "maximum": 31},
        "y": {"type": "integer", "minimum": 0, "maximum": 31},
        "layer": {"type": "integer", "minimum": 0, "maximum": 7}
      }
    },
    "move": {
      "type": "object",
      "required": ["dir"],
      "properties": {
        "dir": {
          "enum": ["north", "south", "east", "west", "northeast", "northwest", "southeast", "southwest"]
        }
      }
    },
    "jump": {
      "type": "object",
      "required": ["x", "y"],
      "properties": {
        "x": {"type": "integer", "minimum": -2147483648, "maximum": 2147483647},
        "y": {"type": "integer", "minimum": -2147483648, "maximum": 2147483647},
        "group": {"type": "integer", "minimum": 0}
      }
    },
    "select": {
      "type": "object",
      "required": ["start_x", "start_y", "end_x", "end_y"],
      "properties": {
        "start_x": {"type": "integer", "minimum": 0},
        "start_y": {"type": "integer", "minimum": 0},
        "end_x": {"type": "integer", "minimum": 0},
        "end_y": {"type": "integer", "minimum": 0}
      }
    },
    "source": {
      "type": "object",
      "required": ["index"],
      "properties": {"index": {"type": "integer", "minimum": 0}}
    },
    "hover": {
      "type": "object",
      "required": ["x", "y"],
      "properties": {
        "x": {"type": "integer"},
        "y": {"type": "integer"}
      }
    }
  },
  "allOf": [
    {"if": {"properties": {"cmd": {"const": "paint"}}}, "then": {"required": ["paint"]}},
    {"if": {"properties": {"cmd": {"const": "move"}}}, "then": {"required": ["move"]}},
    {"if": {"properties": {"cmd": {"const": "jump"}}}, "then": {"required": ["jump"]}},
    {"if": {"properties": {"cmd": {"const": "select"}}}, "then": {"required": ["select"]}},
    {"if": {"properties": {"cmd": {"const": "switch_source"}}}, "then": {"required": ["source"]}},
    {"if": {"properties": {"cmd": {"const": "hover"}}}, "then": {"required": ["hover"]}}
  ]
}`

var actSchema = jsonschema.MustCompileString("act.schema.json", actSchemaJSON)

// ValidateAct checks a raw ACT message against the schema before decode.
func ValidateAct(raw []byte) error {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if err := actSchema.Validate(v); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

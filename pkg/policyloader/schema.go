package policyloader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// bundleSchema rejects structurally broken bundles before knowledge
// base construction, so load errors point at the offending field rather
// than a downstream compile failure.
const bundleSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "documents"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "name": {"type": "string"},
    "created_at": {"type": "string"},
    "documents": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "category", "title", "extracted_rules"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "category": {"enum": ["whois", "abuse", "billing", "expiration", "transfer", "legal"]},
          "title": {"type": "string", "minLength": 1},
          "body": {"type": "string"},
          "extracted_rules": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id", "condition", "action", "precedence"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "category": {"enum": ["whois", "abuse", "billing", "expiration", "transfer", "legal"]},
                "summary": {"type": "string"},
                "condition": {"type": "string", "minLength": 1},
                "action": {"type": "string", "minLength": 1},
                "hard_constraint": {"type": "boolean"},
                "precedence": {"type": "integer", "minimum": 0},
                "escalation_team": {"enum": ["abuse", "billing", "legal", "support"]},
                "eta_hint": {"type": "string"},
                "resolves_state": {"type": "string"}
              },
              "additionalProperties": false
            }
          }
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func compiledBundleSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		const url = "https://triage.schemas.local/bundle.schema.json"
		if err := c.AddResource(url, bytes.NewReader([]byte(bundleSchema))); err != nil {
			schemaErr = fmt.Errorf("bundle schema load: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(url)
	})
	return compiledSchema, schemaErr
}

func validateBundle(data []byte) error {
	schema, err := compiledBundleSchema()
	if err != nil {
		return err
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("parse bundle: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("bundle schema: %w", err)
	}
	return nil
}

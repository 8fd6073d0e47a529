package api

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed decision.schema.json
var decisionSchemaJSON string

var decisionSchema = jsonschema.MustCompileString("decision.schema.json", decisionSchemaJSON)

// ValidateDecision checks a raw RecordDecision payload against the embedded
// schema before anything touches the ledger.
func ValidateDecision(body []byte) error {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return decisionSchema.Validate(v)
}

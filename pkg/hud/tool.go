package hud

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/kaptinlin/jsonrepair"

	"github.com/tablesight/tablesight/pkg/live"
)

// ToolName is the function the model calls to push a new table read.
const ToolName = "updatePokerState"

// Declaration returns the updatePokerState function declaration. The schema
// is derived from Update; the required set is pinned by hand because every
// Update field is optional on the Go side.
func Declaration() (*live.FunctionDeclaration, error) {
	schema, err := jsonschema.For[Update](&jsonschema.ForOptions{})
	if err != nil {
		return nil, err
	}
	schema.Required = []string{
		"winProbability",
		"suggestedAction",
		"reasoning",
		"handStrength",
		"holeCards",
		"communityCards",
	}
	return &live.FunctionDeclaration{
		Name:                 ToolName,
		Description:          "Update the on-screen poker analysis with the current read of the table.",
		ParametersJSONSchema: schema,
	}, nil
}

// DecodeUpdate parses tool-call arguments. Models occasionally emit slightly
// malformed JSON (trailing commas, single quotes); a syntax error triggers a
// repair pass before the final attempt.
func DecodeUpdate(args json.RawMessage) (*Update, error) {
	var u Update
	err := json.Unmarshal(args, &u)
	if err == nil {
		return &u, nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, rerr := jsonrepair.JSONRepair(string(args))
		if rerr != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(fixed), &u); err != nil {
			return nil, err
		}
		return &u, nil
	}
	return nil, err
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// ApplyQuery runs a jq expression over a result. The result is round-tripped
// through JSON first so struct fields are addressed by their wire names. A
// query producing a single value returns that value; multiple values come
// back as a slice.
func ApplyQuery(result any, query string) (any, error) {
	q, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("parse query %q: %w", query, err)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}

	var out []any
	iter := q.Run(v)
	for {
		item, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := item.(error); ok {
			return nil, fmt.Errorf("run query %q: %w", query, err)
		}
		out = append(out, item)
	}

	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0], nil
	default:
		return out, nil
	}
}

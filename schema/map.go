package schema

import (
	"github.com/goccy/go-json"

	"github.com/schemacol/schemacol/errs"
)

// mapSchema is the dictionary-shaped schema: any JSON object is accepted and
// round-trips as a map[string]any. It exists as its own type, rather than a
// derived jsonSchema over map[string]any, so that autogenerated migrations
// can re-express it as schema.Map().
type mapSchema struct{}

// Map returns a schema over free-form JSON objects. Non-object raw values
// (arrays, scalars) are rejected at validation time.
func Map() Schema[map[string]any] {
	return mapSchema{}
}

func (mapSchema) SourceExpr() string {
	return "schema.Map()"
}

func (mapSchema) Validate(raw any) (map[string]any, error) {
	// Fast path: drivers that decode JSON columns natively hand a map back.
	if m, ok := raw.(map[string]any); ok {
		return m, nil
	}

	data, err := rawJSON(raw)
	if err != nil {
		return nil, errs.Validation("", "raw value is not representable as JSON", nil, err)
	}

	var m map[string]any
	if err := unmarshalObject(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (mapSchema) Dump(v map[string]any, target Target) (any, error) {
	if target == TargetValue {
		return v, nil
	}
	return dumpJSON(v, target)
}

func unmarshalObject(data []byte, m *map[string]any) error {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return errs.Validation("", "value is not valid JSON", issuesFrom(err), err)
	}
	obj, ok := probe.(map[string]any)
	if !ok {
		return errs.Validation("", "value is not a JSON object",
			[]errs.Issue{{Path: "$", Expected: "object", Value: probe}}, nil)
	}
	*m = obj
	return nil
}

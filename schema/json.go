package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/goccy/go-json"

	"github.com/schemacol/schemacol/errs"
)

// derived memoizes one schema per Go type. LoadOrStore tolerates the benign
// race on first access: deriving the same schema twice yields interchangeable
// values, so all callers converge on a single shared instance.
var derived sync.Map // reflect.Type -> Schema[T] for that type

// For derives a Schema for the declared model type T from its JSON shape.
// Derivation happens once per Go type; every subsequent call returns the same
// shared schema instance, so all columns declared over T validate through one
// object.
//
// T must be a concrete type with a JSON representation. Interface types
// (including any) carry no shape to derive from and return a configuration
// error; supply an explicit schema instead.
func For[T any]() (Schema[T], error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	switch rt.Kind() {
	case reflect.Interface:
		return nil, errs.Configuration(
			fmt.Sprintf("cannot derive a schema for interface type %s: supply an explicit schema", typeName(rt)))
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return nil, errs.Configuration(
			fmt.Sprintf("type %s has no JSON representation", rt.String()))
	}

	if s, ok := derived.Load(rt); ok {
		return s.(Schema[T]), nil
	}
	s, _ := derived.LoadOrStore(rt, Schema[T](&jsonSchema[T]{goType: rt}))
	return s.(Schema[T]), nil
}

// MustFor is For, panicking on derivation failure. Intended for package-level
// column declarations where a bad type is a programming error.
func MustFor[T any]() Schema[T] {
	s, err := For[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// typeName renders an interface reflect.Type readably; the empty interface
// has no name of its own.
func typeName(rt reflect.Type) string {
	if rt.NumMethod() == 0 && rt.Name() == "" {
		return "any"
	}
	return rt.String()
}

// jsonSchema is the derived, fixed-declared-type schema: validation and
// dumping both go through the type's JSON shape.
type jsonSchema[T any] struct {
	goType reflect.Type
}

// GoType reports the declared model type. The migration render bridge uses it
// to re-express the column as a constructor over a named type.
func (s *jsonSchema[T]) GoType() reflect.Type {
	return s.goType
}

func (s *jsonSchema[T]) Validate(raw any) (T, error) {
	var zero T

	data, err := rawJSON(raw)
	if err != nil {
		return zero, errs.Validation("", "raw value is not representable as JSON", nil, err)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, errs.Validation("",
			fmt.Sprintf("value does not conform to %s", s.goType.String()),
			issuesFrom(err), err)
	}

	if hook, ok := any(v).(Validator); ok {
		if err := hook.Validate(); err != nil {
			return zero, errs.Validation("",
				fmt.Sprintf("%s rejected the decoded value", s.goType.String()), nil, err)
		}
	}
	return v, nil
}

func (s *jsonSchema[T]) Dump(v T, target Target) (any, error) {
	if hook, ok := any(v).(Validator); ok {
		if err := hook.Validate(); err != nil {
			return nil, errs.Wrap(errs.KindSerialization,
				fmt.Sprintf("%s failed its own validation", s.goType.String()), err)
		}
	}
	return dumpJSON(v, target)
}

// rawJSON normalizes a raw driver value into JSON bytes. Text columns hand
// back string or []byte; JSON columns on some drivers hand back an
// already-decoded value tree, which is re-encoded so one decode path serves
// both.
func rawJSON(raw any) ([]byte, error) {
	switch v := raw.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(raw)
	}
}

// dumpJSON encodes v and shapes the result for the requested target.
func dumpJSON(v any, target Target) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errs.Wrap(errs.KindSerialization, "value is not JSON-encodable", err)
	}
	if target == TargetText {
		return string(data), nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errs.Wrap(errs.KindSerialization, "re-decoding dumped value failed", err)
	}
	return out, nil
}

// issuesFrom extracts structured detail from a go-json decode error.
func issuesFrom(err error) []errs.Issue {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		path := typeErr.Field
		if path == "" {
			path = "$"
		}
		return []errs.Issue{{Path: path, Expected: typeErr.Type.String(), Value: typeErr.Value}}
	}
	var synErr *json.SyntaxError
	if errors.As(err, &synErr) {
		return []errs.Issue{{Path: "$", Expected: "valid JSON", Value: fmt.Sprintf("syntax error at offset %d", synErr.Offset)}}
	}
	return nil
}

package coltype

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"

	"github.com/schemacol/schemacol/errs"
)

// BindValue produces the storage primitive for a model about to be written:
// a string for Text columns, a JSON-compatible value tree for JSON columns.
// A nil model binds NULL (unless the type was declared WithNotNull). The
// serializer's output is checked against the declared kind; a mismatch is a
// serialization error, never a silently wrong write.
func (t *Type[T]) BindValue(v *T) (any, error) {
	if v == nil {
		if t.notNull {
			return nil, errs.Serialization(t.column, "nil model bound to a NOT NULL column", nil)
		}
		return nil, nil
	}

	out, err := t.serialize(*v)
	if err != nil {
		return nil, t.tagSerialization("serializer failed", err)
	}

	switch t.kind {
	case Text:
		if _, ok := out.(string); !ok {
			return nil, errs.Serialization(t.column,
				fmt.Sprintf("serializer returned %T, text-backed column needs string", out), nil)
		}
	case JSON:
		if !jsonCompatible(out) {
			return nil, errs.Serialization(t.column,
				fmt.Sprintf("serializer returned %T, JSON-backed column needs a JSON-compatible value", out), nil)
		}
	}
	return out, nil
}

// ResultValue validates a raw value fetched from storage and reconstructs the
// model. NULL yields nil. Validation failures propagate with the column
// context attached: stored data that no longer matches the schema must
// surface, not decay into a zero value.
func (t *Type[T]) ResultValue(raw any) (*T, error) {
	if raw == nil {
		return nil, nil
	}

	if t.kind == Text {
		// Drivers disagree on string vs []byte for text columns.
		s, err := cast.ToStringE(raw)
		if err != nil {
			return nil, errs.Validation(t.column,
				fmt.Sprintf("text-backed column returned unusable raw value %T", raw), nil, err)
		}
		raw = s
	}

	out, err := t.deserialize(raw)
	if err != nil {
		return nil, t.tagValidation(err)
	}
	return &out, nil
}

// tagSerialization attaches the column context to a serialization failure,
// preserving structured detail the hook already produced.
func (t *Type[T]) tagSerialization(msg string, err error) error {
	var e *errs.Error
	if errors.As(err, &e) && e.Kind == errs.KindSerialization {
		col := e.Column
		if col == "" {
			col = t.column
		}
		return &errs.Error{Kind: e.Kind, Message: e.Message, Column: col, Issues: e.Issues, Cause: e.Cause}
	}
	return errs.Serialization(t.column, msg, err)
}

// tagValidation attaches the column context to a validation failure. The
// original cause is never replaced, only wrapped.
func (t *Type[T]) tagValidation(err error) error {
	var e *errs.Error
	if errors.As(err, &e) && e.Kind == errs.KindValidation {
		col := e.Column
		if col == "" {
			col = t.column
		}
		return &errs.Error{Kind: e.Kind, Message: e.Message, Column: col, Issues: e.Issues, Cause: e.Cause}
	}
	return errs.Validation(t.column, "deserializer failed", nil, err)
}

// jsonCompatible reports whether v is a value tree a JSON column can hold:
// scalars, string-keyed maps, and slices thereof. Structs and other Go types
// are not; the serializer's job is to produce the storage representation,
// not an arbitrary Go value.
func jsonCompatible(v any) bool {
	if v == nil {
		return true
	}
	if _, ok := v.(json.Number); ok {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return false // raw bytes are not a JSON value tree
		}
		for i := 0; i < rv.Len(); i++ {
			if !jsonCompatible(rv.Index(i).Interface()) {
				return false
			}
		}
		return true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return false
		}
		iter := rv.MapRange()
		for iter.Next() {
			if !jsonCompatible(iter.Value().Interface()) {
				return false
			}
		}
		return true
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return jsonCompatible(rv.Elem().Interface())
	default:
		return false
	}
}

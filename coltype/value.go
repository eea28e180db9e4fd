package coltype

import (
	"database/sql/driver"

	"github.com/goccy/go-json"

	"github.com/schemacol/schemacol/errs"
)

// Value is one cell of a model column: a Type[T] plus the (possibly NULL)
// model it carries. It implements driver.Valuer and sql.Scanner, so it plugs
// straight into database/sql Exec and Scan calls.
type Value[T any] struct {
	typ *Type[T]
	ptr *T
}

// Wrap binds a model to the column for writing.
func (t *Type[T]) Wrap(v T) Value[T] {
	return Value[T]{typ: t, ptr: &v}
}

// WrapPtr binds a possibly-nil model to the column; nil writes NULL.
func (t *Type[T]) WrapPtr(p *T) Value[T] {
	return Value[T]{typ: t, ptr: p}
}

// Null returns an empty cell, ready to be scanned into.
func (t *Type[T]) Null() Value[T] {
	return Value[T]{typ: t}
}

// Value implements driver.Valuer: it binds the model through the column type
// and encodes the primitive for the wire. Text columns bind a string; JSON
// columns bind the encoded []byte the driver sends as the JSON payload.
func (v Value[T]) Value() (driver.Value, error) {
	if v.typ == nil {
		return nil, errs.Configuration("Value has no column type; construct it with Type.Wrap, Type.WrapPtr or Type.Null")
	}
	prim, err := v.typ.BindValue(v.ptr)
	if err != nil {
		return nil, err
	}
	if prim == nil {
		return nil, nil
	}
	if v.typ.kind == Text {
		return prim.(string), nil
	}
	data, err := json.Marshal(prim)
	if err != nil {
		return nil, errs.Serialization(v.typ.column, "encoding JSON payload", err)
	}
	return data, nil
}

// Scan implements sql.Scanner: it validates the raw driver value through the
// column type and stores the reconstructed model. NULL leaves the cell null.
func (v *Value[T]) Scan(src any) error {
	if v.typ == nil {
		return errs.Configuration("Value has no column type; construct it with Type.Null before scanning")
	}
	ptr, err := v.typ.ResultValue(src)
	if err != nil {
		return err
	}
	v.ptr = ptr
	return nil
}

// Get returns the model and whether the cell holds one (false means NULL).
func (v Value[T]) Get() (T, bool) {
	if v.ptr == nil {
		var zero T
		return zero, false
	}
	return *v.ptr, true
}

// Ptr returns the model pointer, nil when the cell is NULL.
func (v Value[T]) Ptr() *T { return v.ptr }

// IsNull reports whether the cell holds no model.
func (v Value[T]) IsNull() bool { return v.ptr == nil }

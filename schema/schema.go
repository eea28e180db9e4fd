// Package schema holds the validation authority behind a model column.
//
// A Schema[T] knows two things about the model type T: how to validate and
// construct a T from the raw value a database driver hands back, and how to
// dump a T into the representation the column's storage kind needs (a JSON
// text string, or a JSON-compatible value tree).
//
// Most callers never implement Schema themselves: For[T] derives one from the
// Go type via its JSON shape, Map covers dictionary-shaped data, and FromFuncs
// adapts existing validate/dump callables. Anything satisfying the interface
// can be plugged into a column type, which is how external validators are
// wired in.
package schema

// Target selects the representation Dump produces.
type Target int

const (
	// TargetText dumps to a JSON-encoded string, for text-backed columns.
	TargetText Target = iota

	// TargetValue dumps to a JSON-compatible value tree
	// (map[string]any / []any / scalars), for JSON-backed columns.
	TargetValue
)

func (t Target) String() string {
	if t == TargetText {
		return "text"
	}
	return "value"
}

// Schema validates raw database values into T and dumps T back into a
// storable representation. Implementations must be stateless with respect to
// the values they convert: the column layer may call them any number of times
// concurrently on the same instance.
type Schema[T any] interface {
	// Validate constructs a T from a raw value ([]byte, string, or an
	// already-decoded value tree). It returns a validation error when the
	// raw value does not conform; it never returns a partially constructed T.
	Validate(raw any) (T, error)

	// Dump converts v into the target representation.
	Dump(v T, target Target) (any, error)
}

// Validator is an optional hook for model types. When the model implements
// it, derived schemas run Validate after decoding and before dumping, so
// invariants the JSON shape cannot express still hold on both paths.
type Validator interface {
	Validate() error
}

// Expressible is implemented by schemas that can be reconstructed from a Go
// source expression. The migration render bridge refuses to render explicit
// schemas that do not implement it, since emitting a non-reconstructible
// expression would corrupt the generated script.
type Expressible interface {
	// SourceExpr returns a package-qualified expression, e.g. "schema.Map()".
	SourceExpr() string
}

// Funcs adapts two callables into a Schema. Use it when validation lives in
// code that cannot be named as a Go type, e.g. a closure over request state.
// Funcs schemas are not Expressible and therefore cannot appear in
// autogenerated migrations.
type Funcs[T any] struct {
	ValidateFunc func(raw any) (T, error)
	DumpFunc     func(v T, target Target) (any, error)
}

// FromFuncs wraps validate and dump callables into a Schema[T].
func FromFuncs[T any](validate func(raw any) (T, error), dump func(v T, target Target) (any, error)) Schema[T] {
	return Funcs[T]{ValidateFunc: validate, DumpFunc: dump}
}

func (f Funcs[T]) Validate(raw any) (T, error) {
	return f.ValidateFunc(raw)
}

func (f Funcs[T]) Dump(v T, target Target) (any, error) {
	return f.DumpFunc(v, target)
}

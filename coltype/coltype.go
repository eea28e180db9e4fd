// Package coltype binds a structured, schema-validated Go value to one
// relational column that physically stores TEXT or JSON.
//
// A Type[T] is one column's conversion policy: it resolves the validation
// schema for T once at construction, serializes models to the storage
// primitive on write, and validates raw values back into models on read.
// Instances are immutable after construction and safe for unbounded
// concurrent use.
//
// Usage:
//
//	type UserMeta struct {
//	    Flags      []Flag `json:"flags"`
//	    LoginCount int    `json:"login_count"`
//	}
//
//	var metaCol = coltype.MustNew[UserMeta](coltype.JSON, coltype.WithColumn[UserMeta]("meta"))
//
//	// write
//	_, err := db.ExecContext(ctx, `UPDATE users SET meta = $1 WHERE id = $2`,
//	    metaCol.Wrap(meta), id)
//
//	// read
//	cell := metaCol.Null()
//	err = db.QueryRowContext(ctx, `SELECT meta FROM users WHERE id = $1`, id).Scan(&cell)
//	meta, ok := cell.Get()
package coltype

import (
	"reflect"

	"github.com/schemacol/schemacol/schema"
)

// Kind is the storage kind a column type targets: the primitive
// representation the database actually holds.
type Kind int

const (
	// Text stores the model as a JSON-encoded string in a text-like column
	// (TEXT, VARCHAR). Works on every backend.
	Text Kind = iota

	// JSON stores the model in a native JSON column (JSONB on Postgres,
	// JSON on MySQL).
	JSON
)

func (k Kind) String() string {
	if k == Text {
		return "text"
	}
	return "json"
}

// GoExpr returns the Go source expression for the kind, used by the
// migration render bridge.
func (k Kind) GoExpr() string {
	if k == Text {
		return "coltype.Text"
	}
	return "coltype.JSON"
}

// Serializer converts a model into the storage primitive: a string for Text
// columns, a JSON-compatible value tree for JSON columns.
type Serializer[T any] func(v T) (any, error)

// Deserializer validates a raw stored value and reconstructs the model.
type Deserializer[T any] func(raw any) (T, error)

// Type is one configured column's conversion policy. Construct with New or
// MustNew; the zero value is unusable. A Type is immutable after construction:
// its schema binding never changes for the instance's lifetime, which is what
// lets statement-plan caches key on its configuration.
type Type[T any] struct {
	kind           Kind
	sch            schema.Schema[T]
	explicitSchema bool
	serialize      Serializer[T]
	deserialize    Deserializer[T]
	customSer      bool
	customDeser    bool
	cacheOK        bool
	column         string
	notNull        bool
}

type options[T any] struct {
	schema       schema.Schema[T]
	serializer   Serializer[T]
	deserializer Deserializer[T]
	cacheOK      *bool
	column       string
	notNull      bool
}

// Option configures a Type at construction.
type Option[T any] func(*options[T])

// WithSchema supplies an explicit validation schema. Explicit configuration
// always wins over the schema New would otherwise derive from T. Required
// when T is an interface type (there is nothing to derive from).
func WithSchema[T any](s schema.Schema[T]) Option[T] {
	return func(o *options[T]) { o.schema = s }
}

// WithSerializer overrides the schema-driven serializer.
func WithSerializer[T any](fn Serializer[T]) Option[T] {
	return func(o *options[T]) { o.serializer = fn }
}

// WithDeserializer overrides the schema-driven deserializer.
func WithDeserializer[T any](fn Deserializer[T]) Option[T] {
	return func(o *options[T]) { o.deserializer = fn }
}

// WithCacheOK overrides plan-cache eligibility. The default is true for
// schema-driven types and false once a custom serializer or deserializer is
// supplied, because func values carry no comparable identity for a cache key.
func WithCacheOK[T any](ok bool) Option[T] {
	return func(o *options[T]) { o.cacheOK = &ok }
}

// WithColumn names the column this type is bound to. The name appears in
// validation and serialization errors so failures trace back to a column
// without extra instrumentation.
func WithColumn[T any](name string) Option[T] {
	return func(o *options[T]) { o.column = name }
}

// WithNotNull makes BindValue reject nil models instead of passing NULL
// through to the driver, surfacing the mistake before the database does.
func WithNotNull[T any]() Option[T] {
	return func(o *options[T]) { o.notNull = true }
}

// New builds the conversion policy for one column. The schema is resolved
// exactly once here, with explicit configuration winning over derivation:
//
//  1. a WithSchema adapter, when supplied;
//  2. otherwise the schema derived from T (shared across all columns over T).
//
// Hooks resolve the same way: WithSerializer/WithDeserializer win, otherwise
// the schema-driven defaults apply. New fails with a configuration error when
// T is an interface type and no explicit schema is supplied.
func New[T any](kind Kind, opts ...Option[T]) (*Type[T], error) {
	var o options[T]
	for _, opt := range opts {
		opt(&o)
	}

	sch := o.schema
	explicit := sch != nil
	if sch == nil {
		derived, err := schema.For[T]()
		if err != nil {
			return nil, err
		}
		sch = derived
	}
	// An explicitly passed derived schema is indistinguishable from the one
	// New resolves itself; fold it back so rendering stays canonical.
	if explicit && isDerivedFor[T](sch) {
		explicit = false
	}

	t := &Type[T]{
		kind:           kind,
		sch:            sch,
		explicitSchema: explicit,
		customSer:      o.serializer != nil,
		customDeser:    o.deserializer != nil,
		column:         o.column,
		notNull:        o.notNull,
	}

	t.serialize = o.serializer
	if t.serialize == nil {
		t.serialize = defaultSerializer(sch, kind)
	}
	t.deserialize = o.deserializer
	if t.deserialize == nil {
		t.deserialize = sch.Validate
	}

	if o.cacheOK != nil {
		t.cacheOK = *o.cacheOK
	} else {
		t.cacheOK = !t.customSer && !t.customDeser
	}
	return t, nil
}

// MustNew is New, panicking on misconfiguration. Intended for package-level
// column declarations, where failing at init is the right outcome.
func MustNew[T any](kind Kind, opts ...Option[T]) *Type[T] {
	t, err := New[T](kind, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// defaultSerializer dumps through the schema into the representation the
// storage kind requires.
func defaultSerializer[T any](sch schema.Schema[T], kind Kind) Serializer[T] {
	target := schema.TargetValue
	if kind == Text {
		target = schema.TargetText
	}
	return func(v T) (any, error) {
		return sch.Dump(v, target)
	}
}

// isDerivedFor reports whether sch is the derived schema for T itself.
func isDerivedFor[T any](sch schema.Schema[T]) bool {
	g, ok := sch.(interface{ GoType() reflect.Type })
	return ok && g.GoType() == reflect.TypeOf((*T)(nil)).Elem()
}

// Kind reports the storage kind the column targets.
func (t *Type[T]) Kind() Kind { return t.kind }

// Column reports the column name configured with WithColumn, "" if none.
func (t *Type[T]) Column() string { return t.column }

// CacheOK reports whether statement-plan caches may treat distinct instances
// with this configuration as interchangeable.
func (t *Type[T]) CacheOK() bool { return t.cacheOK }

// Schema returns the resolved validation schema. It is the same object for
// every call and, for derived schemas, for every Type declared over T.
func (t *Type[T]) Schema() schema.Schema[T] { return t.sch }

// Descriptor returns the non-generic view of this type's configuration for
// tooling (see the migrate package).
func (t *Type[T]) Descriptor() Descriptor {
	d := Descriptor{
		Kind:               t.kind,
		GoType:             reflect.TypeOf((*T)(nil)).Elem(),
		ExplicitSchema:     t.explicitSchema,
		CustomSerializer:   t.customSer,
		CustomDeserializer: t.customDeser,
		NotNull:            t.notNull,
		CacheOK:            t.cacheOK,
		Column:             t.column,
	}
	if t.explicitSchema {
		if e, ok := t.sch.(schema.Expressible); ok {
			d.SchemaExpr = e.SourceExpr()
		}
	}
	return d
}

var _ ColumnType = (*Type[struct{}])(nil)

// ColumnType is the non-generic view of a Type[T], letting tooling inspect
// any instantiation without knowing the model type.
type ColumnType interface {
	Kind() Kind
	Column() string
	CacheOK() bool
	Descriptor() Descriptor
}

// Descriptor is the declared configuration of a column type: everything
// that defines its identity, and nothing that depends on the runtime
// instance.
type Descriptor struct {
	Kind               Kind
	GoType             reflect.Type // declared model type T
	ExplicitSchema     bool         // schema came from WithSchema
	SchemaExpr         string       // source expression for the explicit schema, "" if none
	CustomSerializer   bool
	CustomDeserializer bool
	NotNull            bool
	CacheOK            bool
	Column             string
}

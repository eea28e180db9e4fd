package coltype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemacol/schemacol/errs"
	"github.com/schemacol/schemacol/schema"
)

type profile struct {
	Roles    []string `json:"roles"`
	IsActive bool     `json:"is_active"`
}

type flag struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type userMeta struct {
	Flags      []flag `json:"flags"`
	LoginCount int    `json:"login_count"`
}

func TestTextColumnRoundTrip(t *testing.T) {
	typ := MustNew[profile](Text, WithColumn[profile]("profile"))

	in := profile{Roles: []string{"admin"}, IsActive: true}
	prim, err := typ.BindValue(&in)
	require.NoError(t, err)
	assert.Equal(t, `{"roles":["admin"],"is_active":true}`, prim)

	out, err := typ.ResultValue(prim)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, []string{"admin"}, out.Roles)
	assert.True(t, out.IsActive)
}

func TestJSONColumnRoundTrip(t *testing.T) {
	typ := MustNew[userMeta](JSON)

	in := userMeta{Flags: []flag{{Name: "f1", Enabled: true}}, LoginCount: 42}
	prim, err := typ.BindValue(&in)
	require.NoError(t, err)
	_, ok := prim.(map[string]any)
	require.True(t, ok, "JSON column binds a value tree, got %T", prim)

	out, err := typ.ResultValue(prim)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in, *out)
}

func TestNullPreservation(t *testing.T) {
	for _, kind := range []Kind{Text, JSON} {
		t.Run(kind.String(), func(t *testing.T) {
			typ := MustNew[profile](kind)

			prim, err := typ.BindValue(nil)
			require.NoError(t, err)
			assert.Nil(t, prim)

			out, err := typ.ResultValue(nil)
			require.NoError(t, err)
			assert.Nil(t, out)
		})
	}
}

func TestNotNullRejectsNilBind(t *testing.T) {
	typ := MustNew[profile](JSON, WithNotNull[profile](), WithColumn[profile]("profile"))

	_, err := typ.BindValue(nil)
	require.Error(t, err)
	assert.True(t, errs.IsSerialization(err))
	assert.Contains(t, err.Error(), `"profile"`)
}

func TestValidationRejection(t *testing.T) {
	typ := MustNew[profile](Text, WithColumn[profile]("profile"))

	tests := []struct {
		name string
		raw  any
	}{
		{name: "not json", raw: "not json"},
		{name: "wrong shape", raw: `{"roles":"admin","is_active":true}`},
		{name: "bytes, wrong shape", raw: []byte(`{"roles":{},"is_active":1}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := typ.ResultValue(tt.raw)
			require.Error(t, err)
			assert.Nil(t, out, "no partially-constructed model on failure")
			assert.True(t, errs.IsValidation(err), "want validation error, got %v", err)
			assert.Contains(t, err.Error(), `"profile"`)
		})
	}
}

func TestTextColumnAcceptsBytes(t *testing.T) {
	// MySQL and sqlite drivers hand TEXT back as []byte.
	typ := MustNew[profile](Text)

	out, err := typ.ResultValue([]byte(`{"roles":["ops"],"is_active":false}`))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, []string{"ops"}, out.Roles)
}

func TestOpenPlaceholderNeedsExplicitSchema(t *testing.T) {
	_, err := New[any](JSON)
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))

	// With an adapter the same declaration is fine.
	adapter := schema.FromFuncs(
		func(raw any) (any, error) { return raw, nil },
		func(v any, _ schema.Target) (any, error) { return v, nil },
	)
	typ, err := New[any](JSON, WithSchema[any](adapter))
	require.NoError(t, err)
	assert.Equal(t, JSON, typ.Kind())
}

func TestExplicitSchemaWinsOverDerivation(t *testing.T) {
	calls := 0
	adapter := schema.FromFuncs(
		func(raw any) (profile, error) {
			calls++
			return profile{Roles: []string{"from-adapter"}}, nil
		},
		func(v profile, _ schema.Target) (any, error) {
			calls++
			return `{}`, nil
		},
	)

	typ, err := New[profile](Text, WithSchema[profile](adapter))
	require.NoError(t, err)

	out, err := typ.ResultValue(`{"roles":["ignored"],"is_active":true}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"from-adapter"}, out.Roles)

	in := profile{}
	_, err = typ.BindValue(&in)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "conversions must use the supplied adapter exclusively")
}

func TestCustomHookPrecedence(t *testing.T) {
	serCalls, deserCalls := 0, 0
	typ := MustNew[profile](Text,
		WithSerializer[profile](func(v profile) (any, error) {
			serCalls++
			return `{"roles":[],"is_active":false}`, nil
		}),
		WithDeserializer[profile](func(raw any) (profile, error) {
			deserCalls++
			return profile{IsActive: true}, nil
		}),
	)

	in := profile{Roles: []string{"admin"}}
	prim, err := typ.BindValue(&in)
	require.NoError(t, err)
	assert.Equal(t, `{"roles":[],"is_active":false}`, prim)

	out, err := typ.ResultValue("anything")
	require.NoError(t, err)
	assert.True(t, out.IsActive)

	assert.Equal(t, 1, serCalls)
	assert.Equal(t, 1, deserCalls)
}

func TestBindKindMismatch(t *testing.T) {
	t.Run("text column, non-string", func(t *testing.T) {
		typ := MustNew[profile](Text,
			WithSerializer[profile](func(profile) (any, error) { return 42, nil }),
			WithColumn[profile]("profile"))

		in := profile{}
		_, err := typ.BindValue(&in)
		require.Error(t, err)
		assert.True(t, errs.IsSerialization(err))
	})

	t.Run("json column, unencodable value", func(t *testing.T) {
		typ := MustNew[profile](JSON,
			WithSerializer[profile](func(p profile) (any, error) { return p, nil }))

		in := profile{}
		_, err := typ.BindValue(&in)
		require.Error(t, err)
		assert.True(t, errs.IsSerialization(err))
	})
}

func TestCacheEligibility(t *testing.T) {
	assert.True(t, MustNew[profile](Text).CacheOK(),
		"schema-driven types are plan-cache eligible")

	custom := MustNew[profile](Text,
		WithDeserializer[profile](func(any) (profile, error) { return profile{}, nil }))
	assert.False(t, custom.CacheOK(),
		"custom hooks have no comparable identity")

	forced := MustNew[profile](Text,
		WithDeserializer[profile](func(any) (profile, error) { return profile{}, nil }),
		WithCacheOK[profile](true))
	assert.True(t, forced.CacheOK())
}

func TestSchemaSharedAcrossInstances(t *testing.T) {
	a := MustNew[userMeta](JSON)
	b := MustNew[userMeta](Text)
	assert.Same(t, a.Schema(), b.Schema(),
		"all columns over one model type share the derived schema")
}

func TestDescriptor(t *testing.T) {
	typ := MustNew[map[string]any](JSON,
		WithSchema[map[string]any](schema.Map()),
		WithColumn[map[string]any]("settings"))

	d := typ.Descriptor()
	assert.Equal(t, JSON, d.Kind)
	assert.True(t, d.ExplicitSchema)
	assert.Equal(t, "schema.Map()", d.SchemaExpr)
	assert.Equal(t, "settings", d.Column)
	assert.False(t, d.CustomSerializer)
	assert.True(t, d.CacheOK)
}

func TestExplicitDerivedSchemaFoldsBack(t *testing.T) {
	// Passing the schema New would derive anyway is the same configuration.
	typ := MustNew[profile](JSON, WithSchema[profile](schema.MustFor[profile]()))
	assert.False(t, typ.Descriptor().ExplicitSchema)
}

package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemacol/schemacol/coltype"
	"github.com/schemacol/schemacol/errs"
	"github.com/schemacol/schemacol/schema"
)

type UserMeta struct {
	Flags      []string `json:"flags"`
	LoginCount int      `json:"login_count"`
}

func TestRenderItemPassThrough(t *testing.T) {
	actx := NewAutogenContext()

	for _, item := range []any{42, "VARCHAR(255)", struct{}{}, nil} {
		_, err := RenderItem(item, actx)
		assert.ErrorIs(t, err, ErrDefaultRender, "unrecognized item %T must fall through", item)
	}
}

func TestRenderItemDerivedType(t *testing.T) {
	typ := coltype.MustNew[UserMeta](coltype.JSON)

	expr, err := RenderItem(typ, NewAutogenContext())
	require.NoError(t, err)
	assert.Equal(t, "coltype.MustNew[migrate.UserMeta](coltype.JSON)", expr)
}

func TestRenderItemRecordsImports(t *testing.T) {
	actx := NewAutogenContext()
	_, err := RenderItem(coltype.MustNew[UserMeta](coltype.Text), actx)
	require.NoError(t, err)
	assert.Equal(t, []string{"github.com/schemacol/schemacol/migrate"}, actx.Imports())
}

func TestRenderItemWithOptions(t *testing.T) {
	typ := coltype.MustNew[UserMeta](coltype.Text,
		coltype.WithColumn[UserMeta]("meta"),
		coltype.WithNotNull[UserMeta]())

	expr, err := RenderItem(typ, NewAutogenContext())
	require.NoError(t, err)
	assert.Equal(t,
		`coltype.MustNew[migrate.UserMeta](coltype.Text, coltype.WithColumn[migrate.UserMeta]("meta"), coltype.WithNotNull[migrate.UserMeta]())`,
		expr)
}

func TestRenderItemExplicitMapSchema(t *testing.T) {
	typ := coltype.MustNew[map[string]any](coltype.JSON,
		coltype.WithSchema[map[string]any](schema.Map()))

	expr, err := RenderItem(typ, NewAutogenContext())
	require.NoError(t, err)
	assert.Equal(t,
		"coltype.MustNew[map[string]any](coltype.JSON, coltype.WithSchema[map[string]any](schema.Map()))",
		expr)
}

func TestRenderIdempotence(t *testing.T) {
	typ := coltype.MustNew[UserMeta](coltype.JSON, coltype.WithColumn[UserMeta]("meta"))

	first, err := RenderItem(typ, NewAutogenContext())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := RenderItem(typ, NewAutogenContext())
		require.NoError(t, err)
		assert.Equal(t, first, again, "rendering must be byte-identical across runs")
	}

	// A second instance with the identical declared configuration renders
	// identically; instance identity never leaks into the output.
	other := coltype.MustNew[UserMeta](coltype.JSON, coltype.WithColumn[UserMeta]("meta"))
	otherExpr, err := RenderItem(other, NewAutogenContext())
	require.NoError(t, err)
	assert.Equal(t, first, otherExpr)
}

func TestTypesEquivalent(t *testing.T) {
	a := coltype.MustNew[UserMeta](coltype.JSON)
	b := coltype.MustNew[UserMeta](coltype.JSON)
	c := coltype.MustNew[UserMeta](coltype.Text)

	eq, err := TypesEquivalent(a, b)
	require.NoError(t, err)
	assert.True(t, eq, "same configuration must not look like a type change")

	eq, err = TypesEquivalent(a, c)
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestRenderFailsLoudly(t *testing.T) {
	t.Run("custom hooks", func(t *testing.T) {
		typ := coltype.MustNew[UserMeta](coltype.JSON,
			coltype.WithSerializer[UserMeta](func(UserMeta) (any, error) { return nil, nil }))

		_, err := RenderItem(typ, NewAutogenContext())
		require.Error(t, err)
		assert.True(t, errs.IsRender(err))
	})

	t.Run("unnamed model type", func(t *testing.T) {
		typ := coltype.MustNew[struct {
			A int `json:"a"`
		}](coltype.JSON)

		_, err := RenderItem(typ, NewAutogenContext())
		require.Error(t, err)
		assert.True(t, errs.IsRender(err))
	})

	t.Run("inexpressible explicit schema", func(t *testing.T) {
		adapter := schema.FromFuncs(
			func(raw any) (UserMeta, error) { return UserMeta{}, nil },
			func(v UserMeta, _ schema.Target) (any, error) { return nil, nil },
		)
		typ := coltype.MustNew[UserMeta](coltype.JSON, coltype.WithSchema[UserMeta](adapter))

		_, err := RenderItem(typ, NewAutogenContext())
		require.Error(t, err)
		assert.True(t, errs.IsRender(err))
	})
}

func TestRenderCustomPrefix(t *testing.T) {
	actx := NewAutogenContext()
	actx.TypePrefix = "ct."

	expr, err := RenderItem(coltype.MustNew[UserMeta](coltype.Text), actx)
	require.NoError(t, err)
	assert.Equal(t, "ct.MustNew[migrate.UserMeta](ct.Text)", expr)
}

package coltype

import (
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemacol/schemacol/errs"
)

var (
	_ driver.Valuer = Value[profile]{}
	_ sql.Scanner   = (*Value[profile])(nil)
)

func TestValueBindsTextColumn(t *testing.T) {
	typ := MustNew[profile](Text)

	v, err := typ.Wrap(profile{Roles: []string{"admin"}, IsActive: true}).Value()
	require.NoError(t, err)
	assert.Equal(t, `{"roles":["admin"],"is_active":true}`, v)
}

func TestValueBindsJSONColumnAsBytes(t *testing.T) {
	typ := MustNew[profile](JSON)

	v, err := typ.Wrap(profile{Roles: []string{"admin"}, IsActive: true}).Value()
	require.NoError(t, err)
	data, ok := v.([]byte)
	require.True(t, ok, "JSON column sends the encoded payload, got %T", v)
	assert.JSONEq(t, `{"roles":["admin"],"is_active":true}`, string(data))
}

func TestValueScanRoundTrip(t *testing.T) {
	typ := MustNew[profile](JSON)

	in := profile{Roles: []string{"admin", "ops"}, IsActive: true}
	bound, err := typ.Wrap(in).Value()
	require.NoError(t, err)

	cell := typ.Null()
	require.NoError(t, cell.Scan(bound))

	got, ok := cell.Get()
	require.True(t, ok)
	assert.Equal(t, in, got)
}

func TestValueNullSemantics(t *testing.T) {
	typ := MustNew[profile](Text)

	v, err := typ.WrapPtr(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	cell := typ.Null()
	require.NoError(t, cell.Scan(nil))
	assert.True(t, cell.IsNull())
	assert.Nil(t, cell.Ptr())

	_, ok := cell.Get()
	assert.False(t, ok)
}

func TestValueScanPropagatesValidation(t *testing.T) {
	typ := MustNew[profile](Text, WithColumn[profile]("profile"))

	cell := typ.Null()
	err := cell.Scan("not json")
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.True(t, cell.IsNull(), "failed scan must not leave a partial model")
}

func TestZeroValueIsUnusable(t *testing.T) {
	var cell Value[profile]

	_, err := cell.Value()
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))

	err = cell.Scan(`{}`)
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
}

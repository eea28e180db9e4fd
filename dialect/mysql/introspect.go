package mysql

import (
	"context"
	"fmt"

	"github.com/schemacol/schemacol/dialect"
	"github.com/schemacol/schemacol/errs"
)

// Introspector implements dialect.Introspector for MySQL using
// information_schema. The schema argument is the database name.
type Introspector struct {
	db dialect.Reader
}

// NewIntrospector creates a MySQL schema introspector over any
// dialect.Reader (normally a *Driver).
func NewIntrospector(db dialect.Reader) *Introspector {
	return &Introspector{db: db}
}

// ListTables returns all user-defined table names in the given database.
func (m *Introspector) ListTables(ctx context.Context, schema string) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := m.db.Query(ctx, q, schema)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// TableExists checks whether a specific table exists.
func (m *Introspector) TableExists(ctx context.Context, schema, table string) (bool, error) {
	const q = `
		SELECT COUNT(*) > 0
		FROM information_schema.tables
		WHERE table_schema = ? AND table_name = ?`

	var exists bool
	if err := m.db.QueryRow(ctx, q, schema, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("table exists check: %w", err)
	}
	return exists, nil
}

// InspectTable returns column details for a single table.
func (m *Introspector) InspectTable(ctx context.Context, schema, table string) (*dialect.TableInfo, error) {
	const q = `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES'  AS is_nullable,
			c.column_default,
			c.character_maximum_length,
			(c.column_key = 'PRI') AS is_primary_key,
			(c.column_key = 'UNI') AS is_unique
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position`

	rows, err := m.db.Query(ctx, q, schema, table)
	if err != nil {
		return nil, fmt.Errorf("inspect table %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	info := &dialect.TableInfo{Schema: schema, Name: table}
	for rows.Next() {
		var col dialect.ColumnInfo
		var defaultVal *string
		var maxLen *int

		if err := rows.Scan(
			&col.Name,
			&col.DataType,
			&col.IsNullable,
			&defaultVal,
			&maxLen,
			&col.IsPrimaryKey,
			&col.IsUnique,
		); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}

		col.DefaultValue = defaultVal
		col.MaxLength = maxLen
		info.Columns = append(info.Columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(info.Columns) == 0 {
		return nil, errs.New(errs.KindNotFound,
			fmt.Sprintf("table %s.%s not found or has no columns", schema, table))
	}
	return info, nil
}

// InspectSchema returns all tables in the database.
func (m *Introspector) InspectSchema(ctx context.Context, schema string) (*dialect.SchemaInfo, error) {
	tables, err := m.ListTables(ctx, schema)
	if err != nil {
		return nil, err
	}

	info := &dialect.SchemaInfo{}
	for _, table := range tables {
		ti, err := m.InspectTable(ctx, schema, table)
		if err != nil {
			return nil, err
		}
		info.Tables = append(info.Tables, *ti)
	}
	return info, nil
}

// Package dialect abstracts the database backends a model column can live
// on: which DDL type a storage kind maps to, how to connect, and how to
// introspect the live schema that migration diffing compares against.
//
// Layers above this package talk only to the interfaces here; they never
// import the postgres or mysql packages directly.
package dialect

import (
	"strconv"

	"github.com/schemacol/schemacol/coltype"
)

// Dialect identifies the database engine.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// Valid reports whether d names a supported engine.
func (d Dialect) Valid() bool {
	switch d {
	case Postgres, MySQL, SQLite:
		return true
	}
	return false
}

// ddlTypes maps a storage kind to the column DDL type per engine. JSONB is
// preferred on Postgres; SQLite has no native JSON column and stores text.
var ddlTypes = map[Dialect]map[coltype.Kind]string{
	Postgres: {coltype.Text: "TEXT", coltype.JSON: "JSONB"},
	MySQL:    {coltype.Text: "TEXT", coltype.JSON: "JSON"},
	SQLite:   {coltype.Text: "TEXT", coltype.JSON: "TEXT"},
}

// TypeFor returns the DDL type a storage kind occupies on this engine.
// Unknown dialects fall back to TEXT, which every engine accepts.
func TypeFor(d Dialect, k coltype.Kind) string {
	if m, ok := ddlTypes[d]; ok {
		if t, ok := m[k]; ok {
			return t
		}
	}
	return "TEXT"
}

// Placeholder returns the bind-parameter placeholder for position n (1-based)
// in this engine's SQL syntax.
func Placeholder(d Dialect, n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

package migrate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/schemacol/schemacol/coltype"
	"github.com/schemacol/schemacol/dialect"
	"github.com/schemacol/schemacol/errs"
	"github.com/schemacol/schemacol/internal/logger"
)

// TableDef declares one table the application expects to exist. Diff
// compares these declarations against the introspected live schema.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}

// ColumnDef declares one column. A model column sets Type; a plain column
// sets DDL with the engine type verbatim (e.g. "BIGINT").
type ColumnDef struct {
	Name       string
	Type       coltype.ColumnType // model column, nil for plain columns
	DDL        string             // DDL type for plain columns
	NotNull    bool
	PrimaryKey bool
	Default    *string
}

// ddlType resolves the column's engine type on the given dialect.
func (c ColumnDef) ddlType(d dialect.Dialect) string {
	if c.Type != nil {
		return dialect.TypeFor(d, c.Type.Kind())
	}
	return c.DDL
}

// ChangeKind classifies one schema difference.
type ChangeKind int

const (
	AddTable ChangeKind = iota
	DropTable
	AddColumn
	DropColumn
	AlterColumnType
)

func (k ChangeKind) String() string {
	switch k {
	case AddTable:
		return "add_table"
	case DropTable:
		return "drop_table"
	case AddColumn:
		return "add_column"
	case DropColumn:
		return "drop_column"
	case AlterColumnType:
		return "alter_column_type"
	default:
		return "unknown"
	}
}

// Change is one difference between the declared tables and the live schema.
type Change struct {
	Kind   ChangeKind
	Table  string
	Column string   // empty for table-level changes
	Def    *ColumnDef // declared column, nil for drops
	Target *TableDef  // declared table for AddTable
	From   string     // live engine type, for AlterColumnType
	To     string     // declared engine type, for AlterColumnType
}

// Diff compares the live schema against the declared tables and returns the
// changes that would bring the database in line, in deterministic order.
// Live tables that are not declared are reported as drops, mirroring what a
// full-model autogenerate does.
func Diff(current *dialect.SchemaInfo, desired []TableDef, d dialect.Dialect) []Change {
	var changes []Change

	declared := make(map[string]*TableDef, len(desired))
	for i := range desired {
		declared[desired[i].Name] = &desired[i]
	}

	for i := range desired {
		td := &desired[i]
		live := current.Table(td.Name)
		if live == nil {
			changes = append(changes, Change{Kind: AddTable, Table: td.Name, Target: td})
			continue
		}

		liveCols := make(map[string]*dialect.ColumnInfo, len(live.Columns))
		for j := range live.Columns {
			liveCols[live.Columns[j].Name] = &live.Columns[j]
		}

		for j := range td.Columns {
			cd := &td.Columns[j]
			lc, ok := liveCols[cd.Name]
			if !ok {
				changes = append(changes, Change{Kind: AddColumn, Table: td.Name, Column: cd.Name, Def: cd})
				continue
			}
			want := cd.ddlType(d)
			if !sameEngineType(lc.DataType, want) {
				changes = append(changes, Change{
					Kind: AlterColumnType, Table: td.Name, Column: cd.Name,
					Def: cd, From: lc.DataType, To: want,
				})
			}
		}

		for j := range live.Columns {
			if !hasColumn(td, live.Columns[j].Name) {
				changes = append(changes, Change{Kind: DropColumn, Table: td.Name, Column: live.Columns[j].Name})
			}
		}
	}

	for i := range current.Tables {
		if _, ok := declared[current.Tables[i].Name]; !ok {
			changes = append(changes, Change{Kind: DropTable, Table: current.Tables[i].Name})
		}
	}

	sort.SliceStable(changes, func(i, j int) bool {
		if changes[i].Table != changes[j].Table {
			return changes[i].Table < changes[j].Table
		}
		if changes[i].Kind != changes[j].Kind {
			return changes[i].Kind < changes[j].Kind
		}
		return changes[i].Column < changes[j].Column
	})
	return changes
}

func hasColumn(td *TableDef, name string) bool {
	for i := range td.Columns {
		if td.Columns[i].Name == name {
			return true
		}
	}
	return false
}

// engineTypeAliases maps the names information_schema reports to the names
// DDL uses, so "character varying" does not diff against "VARCHAR".
var engineTypeAliases = map[string]string{
	"character varying": "varchar",
	"character":         "char",
	"integer":           "int",
	"int4":              "int",
	"int8":              "bigint",
	"boolean":           "bool",
}

func sameEngineType(live, want string) bool {
	return normalizeEngineType(live) == normalizeEngineType(want)
}

func normalizeEngineType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	if alias, ok := engineTypeAliases[t]; ok {
		return alias
	}
	return t
}

// GenerateScript renders the changes as a DDL script. Every model column is
// annotated with the Go expression that reconstructs its column type, so the
// script records which configuration produced it. Output is deterministic.
func GenerateScript(changes []Change, d dialect.Dialect, actx *AutogenContext) (string, error) {
	if len(changes) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, ch := range changes {
		switch ch.Kind {
		case AddTable:
			if err := writeCreateTable(&sb, ch.Target, d, actx); err != nil {
				return "", err
			}
		case DropTable:
			fmt.Fprintf(&sb, "DROP TABLE %s;\n", quoteIdent(ch.Table, d))
		case AddColumn:
			if err := writeColumnComment(&sb, ch.Table, ch.Def, actx); err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "ALTER TABLE %s ADD COLUMN %s;\n",
				quoteIdent(ch.Table, d), columnDDL(ch.Def, d))
		case DropColumn:
			fmt.Fprintf(&sb, "ALTER TABLE %s DROP COLUMN %s;\n",
				quoteIdent(ch.Table, d), quoteIdent(ch.Column, d))
		case AlterColumnType:
			if err := writeColumnComment(&sb, ch.Table, ch.Def, actx); err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "-- type change: %s -> %s\n", ch.From, ch.To)
			if d == dialect.MySQL {
				fmt.Fprintf(&sb, "ALTER TABLE %s MODIFY COLUMN %s;\n",
					quoteIdent(ch.Table, d), columnDDL(ch.Def, d))
			} else {
				fmt.Fprintf(&sb, "ALTER TABLE %s ALTER COLUMN %s TYPE %s;\n",
					quoteIdent(ch.Table, d), quoteIdent(ch.Column, d), ch.To)
			}
		}
	}
	return sb.String(), nil
}

func writeCreateTable(sb *strings.Builder, td *TableDef, d dialect.Dialect, actx *AutogenContext) error {
	for i := range td.Columns {
		if err := writeColumnComment(sb, td.Name, &td.Columns[i], actx); err != nil {
			return err
		}
	}
	fmt.Fprintf(sb, "CREATE TABLE %s (\n", quoteIdent(td.Name, d))
	for i := range td.Columns {
		sb.WriteString("    ")
		sb.WriteString(columnDDL(&td.Columns[i], d))
		if i < len(td.Columns)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(");\n")
	return nil
}

// writeColumnComment records the reconstructing Go expression for a model
// column. Plain columns need no annotation.
func writeColumnComment(sb *strings.Builder, table string, cd *ColumnDef, actx *AutogenContext) error {
	if cd == nil || cd.Type == nil {
		return nil
	}
	expr, err := RenderItem(cd.Type, actx)
	if err != nil {
		return err
	}
	fmt.Fprintf(sb, "-- column %s.%s uses %s\n", table, cd.Name, expr)
	return nil
}

func columnDDL(cd *ColumnDef, d dialect.Dialect) string {
	var sb strings.Builder
	sb.WriteString(quoteIdent(cd.Name, d))
	sb.WriteString(" ")
	sb.WriteString(cd.ddlType(d))
	if cd.PrimaryKey {
		sb.WriteString(" PRIMARY KEY")
	}
	if cd.NotNull && !cd.PrimaryKey {
		sb.WriteString(" NOT NULL")
	}
	if cd.Default != nil {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(*cd.Default)
	}
	return sb.String()
}

func quoteIdent(name string, d dialect.Dialect) string {
	if d == dialect.MySQL {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

// Autogen ties introspection, diffing and script generation together for one
// configured database.
type Autogen struct {
	cfg  *Config
	intr dialect.Introspector
	log  *logger.Logger
}

// NewAutogen builds an autogen runner. A nil log falls back to defaults.
func NewAutogen(cfg *Config, intr dialect.Introspector, log *logger.Logger) *Autogen {
	if log == nil {
		log = logger.New(nil)
	}
	return &Autogen{cfg: cfg, intr: intr, log: log.Component("autogen")}
}

// Generate introspects the live schema, diffs it against the declared tables
// and returns the DDL script. An empty script means the schemas already
// match.
func (a *Autogen) Generate(ctx context.Context, desired []TableDef) (string, error) {
	current, err := a.intr.InspectSchema(ctx, a.cfg.Schema)
	if err != nil {
		return "", errs.Wrap(errs.KindQuery, "introspecting live schema", err)
	}

	changes := Diff(current, desired, a.cfg.DialectName())
	a.log.Infof("diff found %d change(s) across %d declared table(s)", len(changes), len(desired))
	if len(changes) == 0 {
		return "", nil
	}

	actx := NewAutogenContext()
	if a.cfg.TypePrefix != "" {
		actx.TypePrefix = a.cfg.TypePrefix
	}
	script, err := GenerateScript(changes, a.cfg.DialectName(), actx)
	if err != nil {
		a.log.Err("script generation failed", err)
		return "", err
	}
	return script, nil
}

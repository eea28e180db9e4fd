// Package migrate is the bridge between model column types and migration
// autogeneration: it renders a column type's configuration as reproducible Go
// source text, diffs the declared tables against the live schema, and emits
// the DDL script for the difference.
//
// Rendering is the identity mechanism: two column types are the same
// configuration exactly when their renderings are byte-identical. Anything
// nondeterministic in the output would make every autogen run see a phantom
// type change, so renderings are built only from declared configuration,
// never from runtime attributes.
package migrate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/schemacol/schemacol/coltype"
	"github.com/schemacol/schemacol/errs"
)

// ErrDefaultRender signals that RenderItem does not recognize the item and
// the caller should fall back to its own default rendering. The convention
// follows driver.ErrSkip: a sentinel, not a failure.
var ErrDefaultRender = errors.New("migrate: use default rendering")

// AutogenContext carries rendering state for one autogeneration run: the
// package qualifiers to use in emitted expressions and the imports those
// expressions need.
type AutogenContext struct {
	// TypePrefix qualifies the coltype package in emitted expressions.
	// Defaults to "coltype.".
	TypePrefix string

	// SchemaPrefix qualifies the schema package. Defaults to "schema.".
	SchemaPrefix string

	imports map[string]struct{}
}

// NewAutogenContext returns a context with the default package qualifiers.
func NewAutogenContext() *AutogenContext {
	return &AutogenContext{
		TypePrefix:   "coltype.",
		SchemaPrefix: "schema.",
		imports:      map[string]struct{}{},
	}
}

// Imports returns the package paths the rendered expressions referenced,
// sorted for stable output.
func (a *AutogenContext) Imports() []string {
	paths := make([]string, 0, len(a.imports))
	for p := range a.imports {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (a *AutogenContext) addImport(path string) {
	if a.imports == nil {
		a.imports = map[string]struct{}{}
	}
	a.imports[path] = struct{}{}
}

// RenderItem renders one item encountered during migration autogeneration as
// Go source text. Model column types render as the constructor expression
// that reconstructs an equivalent instance; any other item returns
// ErrDefaultRender so the caller's stock rendering applies.
//
// Rendering the same configuration always yields identical text. When a
// configuration cannot be safely re-expressed (custom hook functions,
// unnamed model types, explicit schemas without a source expression) the
// result is a render error, never best-guess code.
func RenderItem(item any, actx *AutogenContext) (string, error) {
	ct, ok := item.(coltype.ColumnType)
	if !ok {
		return "", ErrDefaultRender
	}
	return renderColumnType(ct.Descriptor(), actx)
}

// TypesEquivalent reports whether two column types carry the same declared
// configuration, by comparing their renderings. It is how autogen decides a
// column's type did not change, so equal configurations must never render
// differently.
func TypesEquivalent(a, b coltype.ColumnType) (bool, error) {
	ra, err := renderColumnType(a.Descriptor(), NewAutogenContext())
	if err != nil {
		return false, err
	}
	rb, err := renderColumnType(b.Descriptor(), NewAutogenContext())
	if err != nil {
		return false, err
	}
	return ra == rb, nil
}

func renderColumnType(d coltype.Descriptor, actx *AutogenContext) (string, error) {
	if d.CustomSerializer || d.CustomDeserializer {
		return "", errs.Render("column type carries custom serializer/deserializer hooks, which cannot be re-expressed as source text")
	}
	if d.ExplicitSchema && d.SchemaExpr == "" {
		return "", errs.Render("explicit schema has no source expression (implement schema.Expressible or use a derived schema)")
	}

	typeParam, err := typeExpr(d.GoType, actx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(actx.TypePrefix)
	sb.WriteString("MustNew[")
	sb.WriteString(typeParam)
	sb.WriteString("](")
	sb.WriteString(actx.TypePrefix)
	if d.Kind == coltype.Text {
		sb.WriteString("Text")
	} else {
		sb.WriteString("JSON")
	}

	// Options in fixed declaration order keeps output canonical.
	if d.ExplicitSchema {
		expr := d.SchemaExpr
		if strings.HasPrefix(expr, "schema.") {
			expr = actx.SchemaPrefix + strings.TrimPrefix(expr, "schema.")
		}
		fmt.Fprintf(&sb, ", %sWithSchema[%s](%s)", actx.TypePrefix, typeParam, expr)
	}
	if d.Column != "" {
		fmt.Fprintf(&sb, ", %sWithColumn[%s](%s)", actx.TypePrefix, typeParam, strconv.Quote(d.Column))
	}
	if d.NotNull {
		fmt.Fprintf(&sb, ", %sWithNotNull[%s]()", actx.TypePrefix, typeParam)
	}
	if !d.CacheOK {
		fmt.Fprintf(&sb, ", %sWithCacheOK[%s](false)", actx.TypePrefix, typeParam)
	}

	sb.WriteString(")")
	return sb.String(), nil
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// typeExpr renders a Go type as a source expression, recording the imports a
// named type needs. Types without an importable name cannot be reconstructed
// and fail loudly.
func typeExpr(rt reflect.Type, actx *AutogenContext) (string, error) {
	if rt == nil {
		return "", errs.Render("column type has no declared model type")
	}
	if rt == anyType {
		return "any", nil
	}

	if rt.Name() != "" {
		if rt.PkgPath() == "" {
			return rt.Name(), nil // builtin: string, int, bool, …
		}
		actx.addImport(rt.PkgPath())
		alias := rt.PkgPath()
		if i := strings.LastIndex(alias, "/"); i >= 0 {
			alias = alias[i+1:]
		}
		return alias + "." + rt.Name(), nil
	}

	switch rt.Kind() {
	case reflect.Ptr:
		elem, err := typeExpr(rt.Elem(), actx)
		if err != nil {
			return "", err
		}
		return "*" + elem, nil
	case reflect.Slice:
		elem, err := typeExpr(rt.Elem(), actx)
		if err != nil {
			return "", err
		}
		return "[]" + elem, nil
	case reflect.Map:
		key, err := typeExpr(rt.Key(), actx)
		if err != nil {
			return "", err
		}
		elem, err := typeExpr(rt.Elem(), actx)
		if err != nil {
			return "", err
		}
		return "map[" + key + "]" + elem, nil
	default:
		return "", errs.Render(
			fmt.Sprintf("model type %s has no importable name and cannot be re-expressed as source text", rt.String()))
	}
}

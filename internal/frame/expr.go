package frame

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a column expression. Expressions compile to engine SQL.
type Expr interface {
	SQL() string
}

// QuoteIdent quotes an identifier for the engine.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteString quotes a string literal for the engine.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

type column struct{ name string }

func (c column) SQL() string { return QuoteIdent(c.name) }

// Col references a column of the input frame.
func Col(name string) Expr { return column{name: name} }

type literal struct{ value any }

func (l literal) SQL() string {
	switch v := l.value.(type) {
	case nil:
		return "NULL"
	case string:
		return QuoteString(v)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return QuoteString(fmt.Sprint(v))
	}
}

// Lit is a literal value.
func Lit(v any) Expr { return literal{value: v} }

type cast struct {
	expr     Expr
	typeName string
}

func (c cast) SQL() string { return "CAST(" + c.expr.SQL() + " AS " + c.typeName + ")" }

// CastTo converts an expression to the named engine type.
func CastTo(e Expr, typeName string) Expr { return cast{expr: e, typeName: typeName} }

// Null is a typed NULL.
func Null(typeName string) Expr { return CastTo(Lit(nil), typeName) }

type call struct {
	fn   string
	args []Expr
}

func (c call) SQL() string {
	args := make([]string, len(c.args))
	for i, a := range c.args {
		args[i] = a.SQL()
	}
	return c.fn + "(" + strings.Join(args, ", ") + ")"
}

// Func calls an engine function by name.
func Func(name string, args ...Expr) Expr { return call{fn: name, args: args} }

// Length is the character length of a text expression.
func Length(e Expr) Expr { return Func("length", e) }

// ListLength is the element count of a list expression.
func ListLength(e Expr) Expr { return Func("len", e) }

// Epoch converts a temporal expression to seconds since the epoch.
func Epoch(e Expr) Expr { return CastTo(Func("epoch", e), "DOUBLE") }

// Coalesce returns the first non-null argument.
func Coalesce(args ...Expr) Expr { return Func("coalesce", args...) }

// Aggregate functions.

// Count counts non-null values.
func Count(e Expr) Expr { return Func("count", e) }

// Sum adds values.
func Sum(e Expr) Expr { return Func("sum", e) }

// Avg is the arithmetic mean.
func Avg(e Expr) Expr { return Func("avg", e) }

// Stddev is the sample standard deviation.
func Stddev(e Expr) Expr { return Func("stddev_samp", e) }

// Min is the smallest value.
func Min(e Expr) Expr { return Func("min", e) }

// Max is the largest value.
func Max(e Expr) Expr { return Func("max", e) }

// Median is the middle value.
func Median(e Expr) Expr { return Func("median", e) }

type isNull struct{ expr Expr }

func (n isNull) SQL() string { return "(" + n.expr.SQL() + " IS NULL)" }

// IsNull is true when the expression is NULL.
func IsNull(e Expr) Expr { return isNull{expr: e} }

type alias struct {
	expr Expr
	name string
}

func (a alias) SQL() string { return a.expr.SQL() + " AS " + QuoteIdent(a.name) }

// As names an expression in a projection.
func As(e Expr, name string) Expr { return alias{expr: e, name: name} }

// CaseBuilder builds a searched CASE expression.
type CaseBuilder struct {
	whens []Expr
	thens []Expr
}

// Case starts a CASE expression.
func Case() *CaseBuilder { return &CaseBuilder{} }

// When adds a branch.
func (b *CaseBuilder) When(cond, then Expr) *CaseBuilder {
	b.whens = append(b.whens, cond)
	b.thens = append(b.thens, then)
	return b
}

// Otherwise closes the expression with a default value.
func (b *CaseBuilder) Otherwise(e Expr) Expr {
	var sb strings.Builder
	sb.WriteString("CASE")
	for i := range b.whens {
		sb.WriteString(" WHEN ")
		sb.WriteString(b.whens[i].SQL())
		sb.WriteString(" THEN ")
		sb.WriteString(b.thens[i].SQL())
	}
	sb.WriteString(" ELSE ")
	sb.WriteString(e.SQL())
	sb.WriteString(" END")
	return raw(sb.String())
}

type raw string

func (r raw) SQL() string { return string(r) }

// SortKey orders a frame by an expression.
type SortKey struct {
	Expr       Expr
	Descending bool
}

// Asc sorts ascending.
func Asc(e Expr) SortKey { return SortKey{Expr: e} }

// Desc sorts descending.
func Desc(e Expr) SortKey { return SortKey{Expr: e, Descending: true} }

func (k SortKey) sql() string {
	if k.Descending {
		return k.Expr.SQL() + " DESC"
	}
	return k.Expr.SQL() + " ASC"
}

// Package frame provides lazily evaluated dataframes over an embedded SQL engine.
//
// A Frame is an immutable handle on a node in a plan arena. Transformations
// append a node that refers to its inputs by index and return a new Frame;
// nothing runs until Schema, Collect or Display is called. Frames derived from
// the same root share the arena, so deriving many frames from one input is cheap.
package frame

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Querier runs SQL against the engine. *sql.DB and *sql.Conn satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type nodeKind int

const (
	scanTable nodeKind = iota
	scanQuery
	project
	filter
	aggregate
	union
	sortBy
	limit
)

type node struct {
	kind    nodeKind
	inputs  []int
	table   string
	query   string
	raw     bool // scanQuery text that cannot be nested
	exprs   []Expr
	groupBy []Expr
	keys    []SortKey
	limit   int
}

type arena struct {
	mu      sync.Mutex
	nodes   []node
	schemas map[int]Schema
}

func newArena() *arena {
	return &arena{schemas: make(map[int]Schema)}
}

func (a *arena) add(n node) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nodes = append(a.nodes, n)
	return len(a.nodes) - 1
}

func (a *arena) node(id int) node {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nodes[id]
}

// graft copies the subtree rooted at id from src into a and returns its new index.
func (a *arena) graft(src *arena, id int) int {
	n := src.node(id)
	inputs := make([]int, len(n.inputs))
	for i, in := range n.inputs {
		inputs[i] = a.graft(src, in)
	}
	n.inputs = inputs
	return a.add(n)
}

// Frame is a lazy, re-executable query plan.
type Frame struct {
	plan *arena
	id   int
	q    Querier
}

// Table scans a registered dataset.
func Table(q Querier, name string) Frame {
	p := newArena()
	return Frame{plan: p, id: p.add(node{kind: scanTable, table: name}), q: q}
}

// Query wraps arbitrary query text. Trailing comments and terminators are
// dropped. EXPLAIN, PRAGMA and CALL statements run as written; any frame
// derived from them fails in the engine.
func Query(q Querier, text string) Frame {
	text = TrimStatement(text)
	p := newArena()
	return Frame{plan: p, id: p.add(node{kind: scanQuery, query: text, raw: standalone(text)}), q: q}
}

// ErrEmptyProjection is returned when a projection has no expressions.
var ErrEmptyProjection = errors.New("projection needs at least one expression")

func (f Frame) derive(n node) Frame {
	n.inputs = append([]int{f.id}, n.inputs...)
	return Frame{plan: f.plan, id: f.plan.add(n), q: f.q}
}

// Select projects the frame onto the given expressions.
func (f Frame) Select(exprs ...Expr) (Frame, error) {
	if len(exprs) == 0 {
		return Frame{}, ErrEmptyProjection
	}
	return f.derive(node{kind: project, exprs: exprs}), nil
}

// Cast converts a single column, keeping its name and the other columns.
func (f Frame) Cast(ctx context.Context, name, typeName string) (Frame, error) {
	schema, err := f.Schema(ctx)
	if err != nil {
		return Frame{}, err
	}

	found := false
	exprs := make([]Expr, len(schema))
	for i, field := range schema {
		if field.Name == name {
			exprs[i] = As(CastTo(Col(name), typeName), name)
			found = true
			continue
		}
		exprs[i] = Col(field.Name)
	}
	if !found {
		return Frame{}, fmt.Errorf("cast: column %q not found", name)
	}
	return f.Select(exprs...)
}

// Filter keeps rows matching the predicate.
func (f Frame) Filter(pred Expr) (Frame, error) {
	if pred == nil {
		return Frame{}, errors.New("filter needs a predicate")
	}
	return f.derive(node{kind: filter, exprs: []Expr{pred}}), nil
}

// Aggregate groups by groupBy and computes aggs. An empty groupBy is a global
// aggregate, which always yields exactly one row.
func (f Frame) Aggregate(groupBy []Expr, aggs []Expr) (Frame, error) {
	return f.derive(node{kind: aggregate, groupBy: groupBy, exprs: aggs}), nil
}

// Union stacks the rows of other below the rows of f. Columns are matched by position.
func (f Frame) Union(other Frame) (Frame, error) {
	if f.plan == nil || other.plan == nil {
		return Frame{}, errors.New("union of an empty frame")
	}
	if f.q != other.q {
		return Frame{}, errors.New("union of frames from different engines")
	}
	right := other.id
	if other.plan != f.plan {
		right = f.plan.graft(other.plan, other.id)
	}
	return f.derive(node{kind: union, inputs: []int{right}}), nil
}

// Sort orders rows by the given keys.
func (f Frame) Sort(keys ...SortKey) (Frame, error) {
	if len(keys) == 0 {
		return Frame{}, errors.New("sort needs at least one key")
	}
	return f.derive(node{kind: sortBy, keys: keys}), nil
}

// Limit keeps the first n rows.
func (f Frame) Limit(n int) (Frame, error) {
	if n < 0 {
		return Frame{}, fmt.Errorf("limit must not be negative, got %d", n)
	}
	return f.derive(node{kind: limit, limit: n}), nil
}

// SQL compiles the plan into a single engine query.
func (f Frame) SQL() string {
	return f.plan.compile(f.id)
}

func (a *arena) compile(id int) string {
	n := a.node(id)
	from := func(i int) string {
		return "(" + a.compile(n.inputs[i]) + ") AS " + QuoteIdent("t"+strconv.Itoa(n.inputs[i]))
	}

	switch n.kind {
	case scanTable:
		return "SELECT * FROM " + QuoteIdent(n.table)
	case scanQuery:
		if n.raw {
			return n.query
		}
		// Newlines keep a trailing line comment from swallowing the parenthesis.
		return "SELECT * FROM (\n" + n.query + "\n) AS " + QuoteIdent("q"+strconv.Itoa(id))
	case project:
		return "SELECT " + joinExprs(n.exprs) + " FROM " + from(0)
	case filter:
		return "SELECT * FROM " + from(0) + " WHERE " + n.exprs[0].SQL()
	case aggregate:
		items := append(append([]Expr{}, n.groupBy...), n.exprs...)
		if len(items) == 0 {
			items = []Expr{As(Func("count", raw("*")), "__rows")}
		}
		q := "SELECT " + joinExprs(items) + " FROM " + from(0)
		if len(n.groupBy) > 0 {
			q += " GROUP BY ALL"
		}
		return q
	case union:
		return "SELECT * FROM " + from(0) + " UNION ALL SELECT * FROM " + from(1)
	case sortBy:
		keys := make([]string, len(n.keys))
		for i, k := range n.keys {
			keys[i] = k.sql()
		}
		return "SELECT * FROM " + from(0) + " ORDER BY " + strings.Join(keys, ", ")
	case limit:
		return "SELECT * FROM " + from(0) + " LIMIT " + strconv.Itoa(n.limit)
	default:
		panic(fmt.Sprintf("frame: unknown node kind %d", n.kind))
	}
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.SQL()
	}
	return strings.Join(parts, ", ")
}

// Package describe builds a per-column statistical summary of a frame.
//
// Every column is first normalized to a number: temporal values become epoch
// seconds, lists become their length and anything that is neither numeric nor
// temporal becomes the length of its text form. A fixed battery of global
// aggregates runs over the normalized frame, each producing one labelled row.
// The rows are stacked, cast back toward the original column types and sorted
// by label, descending.
//
// Temporal columns are not returned to their temporal type. Their statistics
// stay BIGINT epoch seconds, so Total reads as a count rather than a date.
// List columns come back as INTEGER lengths.
package describe

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapframe/internal/frame"
)

// LabelColumn holds the statistic name in a summary.
const LabelColumn = "describe"

// Describer summarizes one input frame.
type Describer struct {
	input   frame.Frame
	methods []Method
}

// New prepares a summary of f using the default battery.
func New(f frame.Frame) *Describer {
	return &Describer{input: f, methods: Methods()}
}

// Describe plans the summary. The returned frame is lazy; nothing runs until
// it is collected. Planning fails as a whole if any statistic cannot be built.
func (d *Describer) Describe(ctx context.Context) (frame.Frame, error) {
	schema, err := d.input.Schema(ctx)
	if err != nil {
		return frame.Frame{}, fmt.Errorf("describe: plan input: %w", err)
	}
	for _, f := range schema {
		if f.Name == LabelColumn {
			return frame.Frame{}, fmt.Errorf("describe: column name %q is reserved", LabelColumn)
		}
	}

	transformed, err := normalize(d.input, schema)
	if err != nil {
		return frame.Frame{}, fmt.Errorf("describe: normalize: %w", err)
	}

	var stacked frame.Frame
	for i, m := range d.methods {
		row, err := statistic(transformed, schema, m)
		if err != nil {
			return frame.Frame{}, fmt.Errorf("describe: %s: %w", m.Label(), err)
		}
		if i == 0 {
			stacked = row
			continue
		}
		if stacked, err = stacked.Union(row); err != nil {
			return frame.Frame{}, fmt.Errorf("describe: %s: %w", m.Label(), err)
		}
	}

	restored, err := castBack(stacked, schema)
	if err != nil {
		return frame.Frame{}, fmt.Errorf("describe: cast back: %w", err)
	}
	return restored.Sort(frame.Desc(frame.Col(LabelColumn)))
}

// normalize maps every column to a comparable numeric expression under its
// original name.
func normalize(f frame.Frame, schema frame.Schema) (frame.Frame, error) {
	if len(schema) == 0 {
		return f, nil
	}

	exprs := make([]frame.Expr, len(schema))
	for i, field := range schema {
		col := frame.Col(field.Name)
		var e frame.Expr
		switch field.Type.Kind {
		case frame.Numeric:
			e = col
		case frame.Temporal:
			e = frame.Epoch(col)
		case frame.List:
			e = frame.ListLength(col)
		default:
			e = frame.Length(frame.CastTo(col, "VARCHAR"))
		}
		exprs[i] = frame.As(e, field.Name)
	}
	return f.Select(exprs...)
}

// statistic computes one labelled summary row.
func statistic(transformed frame.Frame, schema frame.Schema, m Method) (frame.Frame, error) {
	aggs := make([]frame.Expr, len(schema))
	for i, field := range schema {
		aggs[i] = frame.As(m.aggregate(frame.Col(field.Name), field.Type.Kind == frame.Numeric), field.Name)
	}
	agg, err := transformed.Aggregate(nil, aggs)
	if err != nil {
		return frame.Frame{}, err
	}

	labelled := make([]frame.Expr, 0, len(schema)+1)
	labelled = append(labelled, frame.As(frame.Lit(m.Label()), LabelColumn))
	for _, field := range schema {
		labelled = append(labelled, frame.Col(field.Name))
	}
	return agg.Select(labelled...)
}

// castBack moves summary columns toward the original types. Temporal columns
// only ever carry counts and nulls, so they come back as BIGINT rather than as
// the original temporal type. List columns become INTEGER.
func castBack(f frame.Frame, schema frame.Schema) (frame.Frame, error) {
	exprs := make([]frame.Expr, 0, len(schema)+1)
	exprs = append(exprs, frame.Col(LabelColumn))
	for _, field := range schema {
		col := frame.Col(field.Name)
		switch field.Type.Kind {
		case frame.Temporal:
			exprs = append(exprs, frame.As(frame.CastTo(col, "BIGINT"), field.Name))
		case frame.List:
			exprs = append(exprs, frame.As(frame.CastTo(col, "INTEGER"), field.Name))
		default:
			exprs = append(exprs, col)
		}
	}
	return f.Select(exprs...)
}

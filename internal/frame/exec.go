package frame

import (
	"context"
	"fmt"
)

// Result is a materialized frame.
type Result struct {
	Columns []string
	Types   []string
	Rows    [][]any
}

// Schema plans the frame and returns its columns without running it.
// Standalone statements such as EXPLAIN cannot be planned on their own, so
// they are run once to learn their columns.
func (f Frame) Schema(ctx context.Context) (Schema, error) {
	f.plan.mu.Lock()
	cached, ok := f.plan.schemas[f.id]
	f.plan.mu.Unlock()
	if ok {
		return cached, nil
	}

	var (
		schema Schema
		err    error
	)
	if n := f.plan.node(f.id); n.kind == scanQuery && n.raw {
		schema, err = f.resultSchema(ctx)
	} else {
		schema, err = f.describeSchema(ctx)
	}
	if err != nil {
		return nil, err
	}

	f.plan.mu.Lock()
	f.plan.schemas[f.id] = schema
	f.plan.mu.Unlock()

	return schema, nil
}

// describeSchema asks the engine to plan the frame without running it.
func (f Frame) describeSchema(ctx context.Context) (Schema, error) {
	rows, err := f.q.QueryContext(ctx, "DESCRIBE "+f.SQL())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(cols) < 2 {
		return nil, fmt.Errorf("unexpected describe output: %v", cols)
	}

	var schema Schema
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		schema = append(schema, Field{
			Name: asString(values[0]),
			Type: TypeOf(asString(values[1])),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schema, nil
}

// resultSchema runs a statement that cannot be described and reads the
// column types of its result.
func (f Frame) resultSchema(ctx context.Context) (Schema, error) {
	rows, err := f.q.QueryContext(ctx, f.SQL())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	schema := make(Schema, len(colTypes))
	for i, ct := range colTypes {
		schema[i] = Field{Name: ct.Name(), Type: TypeOf(ct.DatabaseTypeName())}
	}
	return schema, rows.Err()
}

// Collect runs the frame and materializes every row.
func (f Frame) Collect(ctx context.Context) (*Result, error) {
	rows, err := f.q.QueryContext(ctx, f.SQL())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: cols, Types: make([]string, len(cols))}
	for i, ct := range colTypes {
		res.Types[i] = ct.DatabaseTypeName()
	}

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return res, nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

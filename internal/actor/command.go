package actor

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapframe/internal/backend"
	"github.com/leapstack-labs/leapframe/internal/frame"
	"github.com/leapstack-labs/leapframe/internal/source"
)

// Command is a request served by the actor. The set is closed: Connect, List,
// Schema, Describe, Head and SQL.
type Command interface {
	// Name is the command word, used in logs and the journal.
	Name() string
	execute(ctx context.Context, b backend.Backend) (string, error)
}

// Connect registers a dataset.
type Connect struct {
	Source source.Descriptor
	Table  string
	Name   string
}

// List shows the registered datasets.
type List struct{}

// Schema shows the columns of a dataset.
type Schema struct {
	Name string
}

// Describe shows the statistical summary of a dataset.
type Describe struct {
	Name string
}

// Head shows the first N rows of a dataset.
type Head struct {
	Name string
	N    int
}

// SQL runs a query.
type SQL struct {
	Query string
}

func (Connect) Name() string  { return "connect" }
func (List) Name() string     { return "list" }
func (Schema) Name() string   { return "schema" }
func (Describe) Name() string { return "describe" }
func (Head) Name() string     { return "head" }
func (SQL) Name() string      { return "sql" }

func (c Connect) execute(ctx context.Context, b backend.Backend) (string, error) {
	if c.Source == nil {
		return "", fmt.Errorf("connect: no source given")
	}
	err := b.Connect(ctx, backend.ConnectOptions{Source: c.Source, Table: c.Table, Name: c.Name})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Registered dataset %q from %s", c.Name, c.Source), nil
}

func (List) execute(ctx context.Context, b backend.Backend) (string, error) {
	return render(ctx)(b.List(ctx))
}

func (c Schema) execute(ctx context.Context, b backend.Backend) (string, error) {
	return render(ctx)(b.Schema(ctx, c.Name))
}

func (c Describe) execute(ctx context.Context, b backend.Backend) (string, error) {
	return render(ctx)(b.Describe(ctx, c.Name))
}

func (c Head) execute(ctx context.Context, b backend.Backend) (string, error) {
	return render(ctx)(b.Head(ctx, c.Name, c.N))
}

func (c SQL) execute(ctx context.Context, b backend.Backend) (string, error) {
	return render(ctx)(b.SQL(ctx, c.Query))
}

// render materializes a planned frame. Failures while running the plan are
// engine diagnostics and surface as query errors.
func render(ctx context.Context) func(frame.Frame, error) (string, error) {
	return func(f frame.Frame, err error) (string, error) {
		if err != nil {
			return "", err
		}
		out, err := f.Display(ctx)
		if err != nil {
			return "", &backend.QueryError{Query: f.SQL(), Err: err}
		}
		return out, nil
	}
}

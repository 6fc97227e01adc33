package frame

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"INTEGER", Numeric},
		{"BIGINT", Numeric},
		{"DOUBLE", Numeric},
		{"DECIMAL(18,3)", Numeric},
		{"hugeint", Numeric},
		{"DATE", Temporal},
		{"TIMESTAMP", Temporal},
		{"TIMESTAMP WITH TIME ZONE", Temporal},
		{"INTERVAL", Temporal},
		{"INTEGER[]", List},
		{"VARCHAR[3]", List},
		{"STRUCT(a INTEGER)[]", List},
		{"VARCHAR", Text},
		{"BOOLEAN", Other},
		{"BLOB", Other},
		{"STRUCT(a INTEGER, b VARCHAR)", Other},
		{"MAP(VARCHAR, INTEGER)", Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TypeOf(tt.name)
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, tt.name, got.Name)
		})
	}
}

func TestExprSQL(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"column", Col("amount"), `"amount"`},
		{"column with quote", Col(`we"ird`), `"we""ird"`},
		{"string literal", Lit("it's"), `'it''s'`},
		{"int literal", Lit(42), `42`},
		{"float literal", Lit(1.5), `1.5`},
		{"null literal", Lit(nil), `NULL`},
		{"typed null", Null("BIGINT"), `CAST(NULL AS BIGINT)`},
		{"alias", As(Count(Col("a")), "a"), `count("a") AS "a"`},
		{"list length", ListLength(Col("tags")), `len("tags")`},
		{"text length", Length(CastTo(Col("x"), "VARCHAR")), `length(CAST("x" AS VARCHAR))`},
		{"epoch", Epoch(Col("ts")), `CAST(epoch("ts") AS DOUBLE)`},
		{
			"case",
			Case().When(IsNull(Col("a")), Lit(1)).Otherwise(Lit(0)),
			`CASE WHEN ("a" IS NULL) THEN 1 ELSE 0 END`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.expr.SQL())
		})
	}
}

func TestFrame_SQL(t *testing.T) {
	base := Table(nil, "sales")

	t.Run("scan", func(t *testing.T) {
		assert.Equal(t, `SELECT * FROM "sales"`, base.SQL())
	})

	t.Run("limit", func(t *testing.T) {
		f, err := base.Limit(5)
		require.NoError(t, err)
		assert.Equal(t, `SELECT * FROM (SELECT * FROM "sales") AS "t0" LIMIT 5`, f.SQL())
	})

	t.Run("global aggregate", func(t *testing.T) {
		f, err := base.Aggregate(nil, []Expr{As(Count(Col("id")), "id")})
		require.NoError(t, err)
		assert.Equal(t, `SELECT count("id") AS "id" FROM (SELECT * FROM "sales") AS "t0"`, f.SQL())
	})

	t.Run("grouped aggregate", func(t *testing.T) {
		f, err := base.Aggregate([]Expr{Col("region")}, []Expr{As(Sum(Col("amount")), "total")})
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(f.SQL(), " GROUP BY ALL"), f.SQL())
	})

	t.Run("empty aggregate still yields one row", func(t *testing.T) {
		f, err := base.Aggregate(nil, nil)
		require.NoError(t, err)
		assert.Contains(t, f.SQL(), `count(*) AS "__rows"`)
	})

	t.Run("filter then sort", func(t *testing.T) {
		f, err := Table(nil, "sales").Filter(IsNull(Col("region")))
		require.NoError(t, err)
		f, err = f.Sort(Desc(Col("amount")))
		require.NoError(t, err)
		assert.Equal(t,
			`SELECT * FROM (SELECT * FROM (SELECT * FROM "sales") AS "t0" WHERE ("region" IS NULL)) AS "t1" ORDER BY "amount" DESC`,
			f.SQL())
	})

	t.Run("union shares lineage", func(t *testing.T) {
		left, err := base.Select(As(Lit("a"), "label"))
		require.NoError(t, err)
		right, err := base.Select(As(Lit("b"), "label"))
		require.NoError(t, err)
		u, err := left.Union(right)
		require.NoError(t, err)
		assert.Contains(t, u.SQL(), " UNION ALL ")
		assert.Same(t, base.plan, u.plan)
	})

	t.Run("derived frames do not disturb their parent", func(t *testing.T) {
		before := base.SQL()
		_, err := base.Limit(1)
		require.NoError(t, err)
		assert.Equal(t, before, base.SQL())
	})
}

func TestFrame_Union_Grafts(t *testing.T) {
	a := Table(nil, "a")
	b := Table(nil, "b")

	u, err := a.Union(b)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM (SELECT * FROM "a") AS "t0" UNION ALL SELECT * FROM (SELECT * FROM "b") AS "t1"`, u.SQL())
	assert.Equal(t, `SELECT * FROM "b"`, b.SQL(), "source frame must be untouched")
}

func TestFrame_Errors(t *testing.T) {
	base := Table(nil, "t")

	_, err := base.Select()
	assert.ErrorIs(t, err, ErrEmptyProjection)

	_, err = base.Limit(-1)
	assert.Error(t, err)

	_, err = base.Sort()
	assert.Error(t, err)

	_, err = base.Filter(nil)
	assert.Error(t, err)
}

func TestQuery_TrimsTerminator(t *testing.T) {
	f := Query(nil, "  select 1;  ")
	assert.Equal(t, "SELECT * FROM (\nselect 1\n) AS \"q0\"", f.SQL())
}

func TestTrimStatement(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "SELECT 1", "SELECT 1"},
		{"terminator", "SELECT 1;", "SELECT 1"},
		{"repeated terminators", "SELECT 1 ;; ", "SELECT 1"},
		{"trailing line comment", "SELECT 1 AS x -- trailing comment", "SELECT 1 AS x"},
		{"terminator then comment", "SELECT 1;\n-- done", "SELECT 1"},
		{"block comment", "SELECT 1 /* note */ ;", "SELECT 1"},
		{"inner comment kept", "SELECT 1 -- one\n, 2", "SELECT 1 -- one\n, 2"},
		{"dashes in string", "SELECT 'a -- b'", "SELECT 'a -- b'"},
		{"semicolon in string", "SELECT ';'", "SELECT ';'"},
		{"escaped quote", "SELECT 'it''s;' -- c", "SELECT 'it''s;'"},
		{"quoted identifier", `SELECT 1 AS "x;--"`, `SELECT 1 AS "x;--"`},
		{"only comment", "-- nothing here", ""},
		{"only terminators", "  ;  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrimStatement(tt.text))
		})
	}
}

func TestQuery_Standalone(t *testing.T) {
	tests := []struct {
		text    string
		wantSQL string
	}{
		{"EXPLAIN SELECT 1", "EXPLAIN SELECT 1"},
		{"pragma version;", "pragma version"},
		{"-- lead\nCALL pragma_version()", "-- lead\nCALL pragma_version()"},
		{"EXPLAIN ANALYZE SELECT 1", "SELECT * FROM (\nEXPLAIN ANALYZE SELECT 1\n) AS \"q0\""},
		{"SELECT 'EXPLAIN'", "SELECT * FROM (\nSELECT 'EXPLAIN'\n) AS \"q0\""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.wantSQL, Query(nil, tt.text).SQL())
		})
	}
}

func TestFrame_Schema_Standalone(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("EXPLAIN SELECT 1").WillReturnRows(
		sqlmock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("explain_key").OfType("VARCHAR", ""),
			sqlmock.NewColumn("explain_value").OfType("VARCHAR", ""),
		).AddRow("physical_plan", "PROJECTION"),
	)

	schema, err := Query(db, "EXPLAIN SELECT 1;").Schema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"explain_key", "explain_value"}, schema.Names())
	assert.Equal(t, Text, schema[0].Type.Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFrame_Schema(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	f := Table(db, "events")
	mock.ExpectQuery(`DESCRIBE SELECT * FROM "events"`).WillReturnRows(
		sqlmock.NewRows([]string{"column_name", "column_type", "null", "key", "default", "extra"}).
			AddRow("id", "BIGINT", "YES", nil, nil, nil).
			AddRow("at", "TIMESTAMP", "YES", nil, nil, nil).
			AddRow("tags", "VARCHAR[]", "YES", nil, nil, nil),
	)

	ctx := context.Background()
	schema, err := f.Schema(ctx)
	require.NoError(t, err)
	require.Len(t, schema, 3)
	assert.Equal(t, []string{"id", "at", "tags"}, schema.Names())
	assert.Equal(t, Numeric, schema[0].Type.Kind)
	assert.Equal(t, Temporal, schema[1].Type.Kind)
	assert.Equal(t, List, schema[2].Type.Kind)

	// Second call is served from the plan cache.
	again, err := f.Schema(ctx)
	require.NoError(t, err)
	assert.Equal(t, schema, again)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFrame_Cast(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	f := Table(db, "m")
	mock.ExpectQuery(`DESCRIBE SELECT * FROM "m"`).WillReturnRows(
		sqlmock.NewRows([]string{"column_name", "column_type"}).
			AddRow("a", "INTEGER").
			AddRow("b", "VARCHAR"),
	)

	ctx := context.Background()
	casted, err := f.Cast(ctx, "a", "DOUBLE")
	require.NoError(t, err)
	assert.Equal(t, `SELECT CAST("a" AS DOUBLE) AS "a", "b" FROM (SELECT * FROM "m") AS "t0"`, casted.SQL())

	_, err = f.Cast(ctx, "missing", "DOUBLE")
	assert.ErrorContains(t, err, "not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFrame_Display(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT * FROM "people"`).WillReturnRows(
		sqlmock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("name").OfType("VARCHAR", ""),
			sqlmock.NewColumn("score").OfType("DOUBLE", 0.0),
			sqlmock.NewColumn("born").OfType("DATE", time.Time{}),
		).
			AddRow([]byte("ada"), 2.5, day).
			AddRow("bob", nil, nil),
	)

	out, err := Table(db, "people").Display(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "ada")
	assert.Contains(t, out, "2.5")
	assert.Contains(t, out, "2024-03-09")
	assert.Contains(t, out, "NULL")
	assert.True(t, strings.HasSuffix(out, "(2 rows)"), out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResult_Render_Empty(t *testing.T) {
	r := &Result{Columns: []string{"a", "b"}, Types: []string{"INTEGER", "VARCHAR"}}
	out := r.Render()
	assert.Contains(t, out, "a")
	assert.Contains(t, out, "b")
	assert.True(t, strings.HasSuffix(out, "(0 rows)"), out)
}

package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/leapstack-labs/leapframe/internal/adapter"
	"github.com/leapstack-labs/leapframe/internal/describe"
	"github.com/leapstack-labs/leapframe/internal/frame"
	"github.com/leapstack-labs/leapframe/internal/source"
)

// EngineDuckDB is the name the embedded engine registers under.
const EngineDuckDB = "duckdb"

func init() {
	Register(EngineDuckDB, func(ctx context.Context, cfg Config) (Backend, error) {
		return OpenDuckDB(ctx, cfg)
	})
}

// DuckDB is a Backend over an embedded DuckDB database. File sources are
// registered as views, so the data is read at query time. Sources DuckDB
// cannot decompress natively are staged into tables instead.
type DuckDB struct {
	conn   *adapter.DuckDB
	logger *slog.Logger
}

// OpenDuckDB opens the database at cfg.Database.
func OpenDuckDB(ctx context.Context, cfg Config) (*DuckDB, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	conn, err := adapter.Open(ctx, adapter.Config{Path: cfg.Database, Options: cfg.Settings}, logger)
	if err != nil {
		return nil, err
	}
	return &DuckDB{conn: conn, logger: logger}, nil
}

// Connect registers a dataset.
func (b *DuckDB) Connect(ctx context.Context, opts ConnectOptions) error {
	if opts.Source == nil {
		return errors.New("connect: no source given")
	}
	if strings.TrimSpace(opts.Name) == "" {
		return &RegistrationError{Name: opts.Name, Source: opts.Source.String(), Err: errors.New("dataset name must not be empty")}
	}

	var err error
	switch src := opts.Source.(type) {
	case source.Relational:
		b.logger.Warn("relational sources are not supported",
			slog.String("name", opts.Name),
			slog.String("host", src.Host),
			slog.String("database", src.Database),
			slog.String("table", opts.Table))
		return fmt.Errorf("connect %q to %s:%s: %w", opts.Name, src.Host, src.Database, ErrUnsupported)
	case source.DelimitedFile:
		err = b.registerFile(ctx, opts.Name, src.FileSpec, "read_csv", "auto_detect=true", "header=true")
	case source.RecordFile:
		err = b.registerFile(ctx, opts.Name, src.FileSpec, "read_json", "auto_detect=true", "format="+jsonLayout(src.Format))
	case source.ColumnarFile:
		err = b.registerFile(ctx, opts.Name, source.FileSpec{Path: src.Path, Format: source.FormatParquet}, "read_parquet")
	default:
		return fmt.Errorf("connect: unknown source type %T", opts.Source)
	}
	if err != nil {
		return &RegistrationError{Name: opts.Name, Source: opts.Source.String(), Err: err}
	}
	b.logger.Debug("registered dataset", slog.String("name", opts.Name), slog.String("source", opts.Source.String()))
	return nil
}

func jsonLayout(format string) string {
	if format == source.FormatJSON {
		return frame.QuoteString("auto")
	}
	return frame.QuoteString("newline_delimited")
}

// registerFile binds name to a reader call over spec. Columnar files pass no
// compression option.
func (b *DuckDB) registerFile(ctx context.Context, name string, spec source.FileSpec, reader string, options ...string) error {
	pattern, err := resolvePath(spec)
	if err != nil {
		return err
	}

	if spec.Compression == source.Bzip2 || spec.Compression == source.Xz {
		return b.stage(ctx, name, spec, pattern, reader, options)
	}

	if reader != "read_parquet" {
		options = append(options, "compression="+frame.QuoteString(spec.Compression.DuckDB()))
	}
	stmt := fmt.Sprintf("CREATE VIEW %s AS SELECT * FROM %s", frame.QuoteIdent(name), readerCall(reader, pattern, options))
	b.logger.Debug("registering view", slog.String("sql", stmt))
	return b.conn.Exec(ctx, stmt)
}

// resolvePath returns the absolute file path, or a glob over the directory's
// files when spec.Path is a directory.
func resolvePath(spec source.FileSpec) (string, error) {
	abs, err := filepath.Abs(spec.Path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return abs, nil
	}

	ext := "." + spec.Format
	if spec.Compression != source.None {
		ext += "." + spec.Compression.Extension()
	}
	matches, err := filepath.Glob(filepath.Join(abs, "*"+ext))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("directory %s has no *%s files", abs, ext)
	}
	return filepath.Join(abs, "*"+ext), nil
}

func readerCall(reader, path string, options []string) string {
	args := append([]string{frame.QuoteString(path)}, options...)
	return reader + "(" + strings.Join(args, ", ") + ")"
}

// List returns the catalog's tables and views.
func (b *DuckDB) List(_ context.Context) (frame.Frame, error) {
	return frame.Query(b.conn, `
		SELECT table_name AS name, table_type AS kind
		FROM information_schema.tables
		WHERE table_schema = 'main'
		ORDER BY table_name`), nil
}

// Schema returns the columns of a dataset.
func (b *DuckDB) Schema(ctx context.Context, name string) (frame.Frame, error) {
	if err := b.requireDataset(ctx, name); err != nil {
		return frame.Frame{}, err
	}
	return frame.Query(b.conn, fmt.Sprintf(`
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'main' AND lower(table_name) = lower(%s)
		ORDER BY ordinal_position`, frame.QuoteString(name))), nil
}

// Head returns the first n rows of a dataset.
func (b *DuckDB) Head(ctx context.Context, name string, n int) (frame.Frame, error) {
	if err := b.requireDataset(ctx, name); err != nil {
		return frame.Frame{}, err
	}
	return frame.Table(b.conn, name).Limit(n)
}

// Describe returns the statistical summary of a dataset.
func (b *DuckDB) Describe(ctx context.Context, name string) (frame.Frame, error) {
	if err := b.requireDataset(ctx, name); err != nil {
		return frame.Frame{}, err
	}
	return describe.New(frame.Table(b.conn, name)).Describe(ctx)
}

// SQL plans query against the catalog. Planning happens eagerly so parse
// and binding errors surface here rather than at display time.
func (b *DuckDB) SQL(ctx context.Context, query string) (frame.Frame, error) {
	if frame.TrimStatement(query) == "" {
		return frame.Frame{}, &QueryError{Query: query, Err: errors.New("empty query")}
	}

	f := frame.Query(b.conn, query)
	if _, err := f.Schema(ctx); err != nil {
		return frame.Frame{}, &QueryError{Query: query, Err: err}
	}
	return f, nil
}

func (b *DuckDB) requireDataset(ctx context.Context, name string) error {
	ok, err := b.conn.TableExists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return &UnknownDatasetError{Name: name}
	}
	return nil
}

// Close checkpoints a file-backed database and closes the engine.
func (b *DuckDB) Close() error {
	var result *multierror.Error
	if !b.conn.InMemory() {
		if err := b.conn.Exec(context.Background(), "CHECKPOINT"); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := b.conn.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

var _ Backend = (*DuckDB)(nil)

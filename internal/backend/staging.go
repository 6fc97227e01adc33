package backend

import (
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"

	"github.com/leapstack-labs/leapframe/internal/frame"
	"github.com/leapstack-labs/leapframe/internal/source"
)

// stage decompresses every file matched by pattern into a scratch directory,
// loads them into a table and removes the scratch copies. DuckDB has no
// reader for bzip2 or xz, so these sources are copied in rather than viewed.
func (b *DuckDB) stage(ctx context.Context, name string, spec source.FileSpec, pattern, reader string, options []string) error {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match %s", pattern)
	}

	dir, err := os.MkdirTemp("", "leapframe-stage-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	for i, f := range files {
		dst := filepath.Join(dir, fmt.Sprintf("part-%04d.%s", i, spec.Format))
		if err := decompressFile(f, dst, spec.Compression); err != nil {
			return err
		}
	}

	staged := filepath.Join(dir, "*."+spec.Format)
	stmt := fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s", frame.QuoteIdent(name), readerCall(reader, staged, options))
	b.logger.Debug("staging compressed source",
		slog.String("name", name),
		slog.String("codec", spec.Compression.String()),
		slog.Int("files", len(files)))
	return b.conn.Exec(ctx, stmt)
}

func decompressFile(src, dst string, codec source.Compression) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	r, err := decompressor(in, codec)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return fmt.Errorf("%s: decompress: %w", src, err)
	}
	return out.Close()
}

func decompressor(r io.Reader, codec source.Compression) (io.Reader, error) {
	switch codec {
	case source.Bzip2:
		return bzip2.NewReader(r), nil
	case source.Xz:
		return xz.NewReader(r)
	default:
		return nil, fmt.Errorf("codec %s is read natively", codec)
	}
}

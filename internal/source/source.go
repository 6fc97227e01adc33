// Package source describes where a dataset comes from.
//
// A connection string typed by the user is parsed into a Descriptor before
// it ever reaches the engine. Parsing is purely syntactic: files are not
// opened and relational endpoints are not dialed.
package source

import (
	"fmt"
	"path/filepath"
)

// Compression is the codec a file-backed dataset is compressed with.
type Compression int

// Supported compression codecs.
const (
	None Compression = iota
	Gzip
	Bzip2
	Xz
	Zstd
)

var compressionTokens = map[string]Compression{
	"gz":   Gzip,
	"bz2":  Bzip2,
	"xz":   Xz,
	"zstd": Zstd,
}

// Extension returns the file suffix for the codec, without the dot.
func (c Compression) Extension() string {
	switch c {
	case Gzip:
		return "gz"
	case Bzip2:
		return "bz2"
	case Xz:
		return "xz"
	case Zstd:
		return "zstd"
	default:
		return ""
	}
}

// DuckDB returns the reader option value for the codec. Codecs DuckDB cannot
// read natively return an empty string.
func (c Compression) DuckDB() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return ""
	}
}

func (c Compression) String() string {
	if c == None {
		return "none"
	}
	return c.Extension()
}

// FileSpec describes a file-backed dataset.
type FileSpec struct {
	Path        string
	Format      string
	Compression Compression
}

// Descriptor is a parsed data source. The set of implementations is closed:
// Relational, DelimitedFile, ColumnarFile and RecordFile.
type Descriptor interface {
	fmt.Stringer
	descriptor()
}

// Relational is a remote relational source addressed by a connection string.
type Relational struct {
	ConnString string
	Host       string
	Database   string
}

// DelimitedFile is a CSV file, optionally compressed.
type DelimitedFile struct {
	FileSpec
}

// ColumnarFile is a Parquet file. Columnar files carry their own compression.
type ColumnarFile struct {
	Path string
}

// RecordFile is a JSON or newline-delimited JSON file, optionally compressed.
type RecordFile struct {
	FileSpec
}

func (Relational) descriptor()    {}
func (DelimitedFile) descriptor() {}
func (ColumnarFile) descriptor()  {}
func (RecordFile) descriptor()    {}

func (r Relational) String() string { return r.ConnString }

func (d DelimitedFile) String() string { return d.Path }

func (c ColumnarFile) String() string { return c.Path }

func (r RecordFile) String() string { return r.Path }

// Canonical returns a connection string for d that does not depend on the
// working directory. File paths are made absolute; relational connection
// strings are returned unchanged.
func Canonical(d Descriptor) string {
	var path string
	switch src := d.(type) {
	case DelimitedFile:
		path = src.Path
	case ColumnarFile:
		path = src.Path
	case RecordFile:
		path = src.Path
	default:
		return d.String()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// ParseError is returned when a connection string cannot be understood.
type ParseError struct {
	Input  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid connection string %q: %s: %v", e.Input, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid connection string %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

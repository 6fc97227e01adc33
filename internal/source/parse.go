package source

import (
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"
)

// RelationalPrefix marks a connection string as a relational source.
const RelationalPrefix = "postgres://"

// Format tokens.
const (
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatJSONL   = "jsonl"
	FormatNDJSON  = "ndjson"
	FormatParquet = "parquet"
)

// Parse turns a user supplied connection string into a Descriptor.
//
// Strings starting with postgres:// are relational. Anything else is a file
// path whose trailing dot-segments are read right to left as
// [compression].[format], e.g. "events.ndjson.zstd".
func Parse(s string) (Descriptor, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, &ParseError{Input: s, Reason: "empty connection string"}
	}

	if strings.HasPrefix(s, RelationalPrefix) {
		return parseRelational(s)
	}

	return parseFile(s)
}

func parseRelational(s string) (Descriptor, error) {
	cfg, err := pgx.ParseConfig(s)
	if err != nil {
		return nil, &ParseError{Input: s, Reason: "malformed postgres url", Err: err}
	}
	return Relational{
		ConnString: s,
		Host:       cfg.Host,
		Database:   cfg.Database,
	}, nil
}

func parseFile(path string) (Descriptor, error) {
	segments := strings.Split(filepath.Base(path), ".")
	if len(segments) < 2 {
		return nil, &ParseError{Input: path, Reason: "missing file extension"}
	}

	last := strings.ToLower(segments[len(segments)-1])
	compression := None
	formatToken := last
	if c, ok := compressionTokens[last]; ok {
		if len(segments) < 3 {
			return nil, &ParseError{Input: path, Reason: "compressed file without a format extension"}
		}
		compression = c
		formatToken = strings.ToLower(segments[len(segments)-2])
	}

	spec := FileSpec{Path: path, Format: formatToken, Compression: compression}

	switch formatToken {
	case FormatCSV:
		return DelimitedFile{FileSpec: spec}, nil
	case FormatJSON, FormatJSONL, FormatNDJSON:
		return RecordFile{FileSpec: spec}, nil
	case FormatParquet:
		if compression != None {
			return nil, &ParseError{Input: path, Reason: "parquet files cannot carry an outer compression"}
		}
		return ColumnarFile{Path: path}, nil
	default:
		if compression == None {
			return nil, &ParseError{Input: path, Reason: "unsupported extension ." + last}
		}
		return nil, &ParseError{Input: path, Reason: "unsupported format ." + formatToken}
	}
}

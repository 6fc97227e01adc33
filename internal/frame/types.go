package frame

import (
	"regexp"
	"strings"
)

// Kind is the coarse family of a column type. It drives how a column is
// summarized and how summaries are cast back.
type Kind int

// Column kinds.
const (
	Other Kind = iota
	Numeric
	Temporal
	List
	Text
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Temporal:
		return "temporal"
	case List:
		return "list"
	case Text:
		return "text"
	default:
		return "other"
	}
}

// DataType is an engine column type.
type DataType struct {
	// Name is the engine's spelling of the type, e.g. "DECIMAL(18,3)" or "INTEGER[]".
	Name string
	Kind Kind
}

// Field is one column of a schema.
type Field struct {
	Name string
	Type DataType
}

// Schema is the ordered column list of a frame. Names are unique.
type Schema []Field

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

var (
	listSuffix   = regexp.MustCompile(`\[\d*\]$`)
	numericTypes = map[string]bool{
		"TINYINT": true, "SMALLINT": true, "INTEGER": true, "BIGINT": true, "HUGEINT": true,
		"UTINYINT": true, "USMALLINT": true, "UINTEGER": true, "UBIGINT": true, "UHUGEINT": true,
		"FLOAT": true, "REAL": true, "DOUBLE": true, "DECIMAL": true, "NUMERIC": true,
		"INT": true, "INT1": true, "INT2": true, "INT4": true, "INT8": true,
		"FLOAT4": true, "FLOAT8": true,
	}
	temporalTypes = map[string]bool{
		"DATE": true, "TIME": true, "TIMESTAMP": true, "DATETIME": true, "INTERVAL": true,
		"TIMESTAMP WITH TIME ZONE": true, "TIMESTAMPTZ": true, "TIME WITH TIME ZONE": true,
		"TIMETZ": true, "TIMESTAMP_S": true, "TIMESTAMP_MS": true, "TIMESTAMP_NS": true,
	}
	textTypes = map[string]bool{
		"VARCHAR": true, "CHAR": true, "BPCHAR": true, "TEXT": true, "STRING": true,
	}
)

// TypeOf classifies an engine type name.
func TypeOf(name string) DataType {
	return DataType{Name: name, Kind: kindOf(name)}
}

func kindOf(name string) Kind {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if listSuffix.MatchString(upper) {
		return List
	}
	if strings.HasPrefix(upper, "LIST(") {
		return List
	}

	base := upper
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}

	switch {
	case numericTypes[base]:
		return Numeric
	case temporalTypes[base]:
		return Temporal
	case textTypes[base]:
		return Text
	default:
		return Other
	}
}

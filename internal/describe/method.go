package describe

import (
	"fmt"

	"github.com/leapstack-labs/leapframe/internal/frame"
)

type methodKind int

const (
	total methodKind = iota
	nullTotal
	mean
	stddev
	minimum
	maximum
	median
	percentile
)

// Method is one summary statistic.
type Method struct {
	kind methodKind
	p    float64
}

// The default battery.
var (
	Total     = Method{kind: total}
	NullTotal = Method{kind: nullTotal}
	Mean      = Method{kind: mean}
	Stddev    = Method{kind: stddev}
	Min       = Method{kind: minimum}
	Max       = Method{kind: maximum}
	Median    = Method{kind: median}
)

// Percentile is the p-th percentile. It is declared but not computed; using
// it in a summary panics.
func Percentile(p float64) Method {
	return Method{kind: percentile, p: p}
}

// Methods is the battery computed by Describe, in evaluation order.
func Methods() []Method {
	return []Method{Total, NullTotal, Mean, Stddev, Min, Max, Median}
}

// Label is the row label shown in the describe column.
func (m Method) Label() string {
	switch m.kind {
	case total:
		return "Total"
	case nullTotal:
		return "Null Total"
	case mean:
		return "Mean"
	case stddev:
		return "Stddev"
	case minimum:
		return "Min"
	case maximum:
		return "Max"
	case median:
		return "Median"
	case percentile:
		return fmt.Sprintf("Percentile(%g)", m.p)
	default:
		return "unknown"
	}
}

func (m Method) String() string { return m.Label() }

// valueOnly reports whether the statistic is restricted to numeric columns.
func (m Method) valueOnly() bool {
	return m.kind != total && m.kind != nullTotal
}

// aggregate returns the aggregate for one transformed column. Value statistics
// over a column that was not numeric before normalization are a typed NULL.
func (m Method) aggregate(col frame.Expr, numeric bool) frame.Expr {
	if m.kind == percentile {
		panic("describe: percentile statistic is not implemented")
	}
	if m.valueOnly() && !numeric {
		return frame.Null("BIGINT")
	}

	switch m.kind {
	case total:
		return frame.Count(col)
	case nullTotal:
		isNull := frame.Case().When(frame.IsNull(col), frame.Lit(1)).Otherwise(frame.Lit(0))
		return frame.CastTo(frame.Coalesce(frame.Sum(isNull), frame.Lit(0)), "BIGINT")
	case mean:
		return frame.Avg(col)
	case stddev:
		return frame.Stddev(col)
	case minimum:
		return frame.Min(col)
	case maximum:
		return frame.Max(col)
	case median:
		return frame.Median(col)
	default:
		panic(fmt.Sprintf("describe: unknown method %d", m.kind))
	}
}

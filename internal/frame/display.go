package frame

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Display materializes the frame and renders it as a fixed-width table.
func (f Frame) Display(ctx context.Context) (string, error) {
	res, err := f.Collect(ctx)
	if err != nil {
		return "", err
	}
	return res.Render(), nil
}

// Render formats the result as a fixed-width table followed by a row count.
// A result without rows still renders its header.
func (r *Result) Render() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(r.Columns))
	for i, col := range r.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, values := range r.Rows {
		row := make(table.Row, len(values))
		for i, v := range values {
			row[i] = formatValue(v, r.Types[i])
		}
		t.AppendRow(row)
	}

	noun := "rows"
	if len(r.Rows) == 1 {
		noun = "row"
	}
	return fmt.Sprintf("%s\n(%d %s)", t.Render(), len(r.Rows), noun)
}

func formatValue(v any, typeName string) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case time.Time:
		switch strings.ToUpper(typeName) {
		case "DATE":
			return val.Format(time.DateOnly)
		case "TIME":
			return val.Format(time.TimeOnly)
		default:
			return val.Format("2006-01-02 15:04:05.999999")
		}
	default:
		return fmt.Sprintf("%v", val)
	}
}

package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the declared target type of an output column.
type ColumnType string

const (
	TypeInteger  ColumnType = "integer"
	TypeDatetime ColumnType = "datetime"
	TypeTime     ColumnType = "time"
	TypeString   ColumnType = "string"
	TypeList     ColumnType = "list"
)

// Valid reports whether t is a known column type.
func (t ColumnType) Valid() bool {
	switch t {
	case TypeInteger, TypeDatetime, TypeTime, TypeString, TypeList:
		return true
	}
	return false
}

// DateLayout is the rendering of datetime columns in text outputs.
const DateLayout = "2006-01-02"

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour, Minute, Second int
}

// String renders the time as HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Millis returns milliseconds since midnight.
func (t TimeOfDay) Millis() int32 {
	return int32((t.Hour*3600 + t.Minute*60 + t.Second) * 1000)
}

// TypedRow maps column names to converted values; nil is null.
type TypedRow map[string]any

// TypedTable is the final, fully typed output.
type TypedTable struct {
	Columns []string
	Types   map[string]ColumnType
	Rows    []TypedRow
}

// FormatTyped renders a converted value as text. List values are joined with sep.
func FormatTyped(v any, sep string) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case int64:
		return strconv.FormatInt(x, 10), true
	case time.Time:
		return x.Format(DateLayout), true
	case TimeOfDay:
		return x.String(), true
	case string:
		return x, true
	case []string:
		if x == nil {
			return "", false
		}
		return strings.Join(x, sep), true
	default:
		return fmt.Sprint(x), true
	}
}

// AsTable renders the typed table back into text cells, used for profiling
// and text exports.
func (t *TypedTable) AsTable(listSep string) *Table {
	out := &Table{Columns: append([]string(nil), t.Columns...), Rows: make([]Row, len(t.Rows))}
	for i, tr := range t.Rows {
		r := make(Row, len(t.Columns))
		for _, c := range t.Columns {
			if s, ok := FormatTyped(tr[c], listSep); ok {
				r[c] = Str(s)
			} else {
				r[c] = Null
			}
		}
		out.Rows[i] = r
	}
	return out
}

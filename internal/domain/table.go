package domain

import "strings"

// Value is a nullable text cell.
type Value struct {
	S     string
	Valid bool
}

// Null is the null cell.
var Null = Value{}

// Str returns a non-null cell holding s.
func Str(s string) Value {
	return Value{S: s, Valid: true}
}

// String renders null as the empty string.
func (v Value) String() string {
	if !v.Valid {
		return ""
	}
	return v.S
}

// Row maps column names to cells. A missing key reads as null.
type Row map[string]Value

// Get returns the cell for column, or Null when absent.
func (r Row) Get(column string) Value {
	return r[column]
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RawRecordTable is the content of one source file after header detection.
type RawRecordTable struct {
	SourceFile      string
	SourceYear      int
	HeaderRowOffset int
	Columns         []string
	Rows            []Row
}

// Table is an ordered set of columns over untyped rows.
type Table struct {
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the table declares column.
func (t *Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// AddColumn declares column if absent. Existing rows read it as null.
func (t *Table) AddColumn(column string) {
	if !t.HasColumn(column) {
		t.Columns = append(t.Columns, column)
	}
}

// Column returns the cells of column in row order.
func (t *Table) Column(column string) []Value {
	out := make([]Value, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Get(column)
	}
	return out
}

// SetColumn replaces the cells of column, declaring it if needed.
// values must have one entry per row.
func (t *Table) SetColumn(column string, values []Value) {
	t.AddColumn(column)
	for i, r := range t.Rows {
		r[column] = values[i]
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// SnakeCase folds a column label into its canonical lowercase_with_underscores form.
func SnakeCase(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

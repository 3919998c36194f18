package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_SetColumn(t *testing.T) {
	tbl := &Table{Columns: []string{"a"}, Rows: []Row{{"a": Str("1")}, {"a": Null}}}

	tbl.SetColumn("b", []Value{Str("x"), Null})

	assert.Equal(t, []string{"a", "b"}, tbl.Columns)
	assert.Equal(t, Str("x"), tbl.Rows[0].Get("b"))
	assert.False(t, tbl.Rows[1].Get("b").Valid)
	assert.False(t, tbl.Rows[0].Get("missing").Valid)
	assert.Equal(t, []Value{Str("1"), Null}, tbl.Column("a"))
}

func TestTable_AddColumnIdempotent(t *testing.T) {
	tbl := &Table{}
	tbl.AddColumn("year")
	tbl.AddColumn("year")
	assert.Equal(t, []string{"year"}, tbl.Columns)
}

func TestFormatTyped(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{"nil", nil, "", false},
		{"int", int64(42), "42", true},
		{"date", time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC), "2019-06-01", true},
		{"time", TimeOfDay{Hour: 7, Minute: 5}, "07:05:00", true},
		{"string", "maine", "maine", true},
		{"list", []string{"rf", "serc"}, "rf|serc", true},
		{"nil list", []string(nil), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatTyped(tt.in, "|")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTypedTable_AsTable(t *testing.T) {
	typed := &TypedTable{
		Columns: []string{"year", "affected_states"},
		Rows: []TypedRow{
			{"year": int64(2019), "affected_states": []string{"texas", "maine"}},
			{"year": int64(2020), "affected_states": nil},
		},
	}

	tbl := typed.AsTable("|")
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, Str("texas|maine"), tbl.Rows[0]["affected_states"])
	assert.False(t, tbl.Rows[1]["affected_states"].Valid)
	assert.Equal(t, Str("2020"), tbl.Rows[1]["year"])
}

func TestTimeOfDay_Millis(t *testing.T) {
	assert.Equal(t, int32(3_723_000), TimeOfDay{Hour: 1, Minute: 2, Second: 3}.Millis())
}

func TestReconciliationSummary_RenamedAliases(t *testing.T) {
	s := ReconciliationSummary{Renamed: []Rename{{Canonical: "Area Affected", Aliases: []string{"Area"}}}}
	assert.Equal(t, [][]string{{"Area"}}, s.RenamedAliases())
}

func TestMalformedFileNameError(t *testing.T) {
	err := &MalformedFileNameError{Name: "annual.xlsx"}
	assert.Contains(t, err.Error(), "annual.xlsx")
}

func TestNow_UsesInjectedClock(t *testing.T) {
	fixed := time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	assert.Equal(t, fixed, Now())
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Demand Loss (MW)":                  "demand_loss_(mw)",
		"  Number of  Customers\tAffected ": "number_of_customers_affected",
		" NERC Region":                      "nerc_region",
		"year":                              "year",
	}
	for in, want := range tests {
		assert.Equal(t, want, SnakeCase(in), in)
	}
}

func TestQuarantineRow_FailedColumns(t *testing.T) {
	q := QuarantineRow{Failures: map[string]CoercionIssue{
		"year":             {Reason: "not an integer"},
		"date_event_began": {Reason: "not a date"},
	}}
	assert.Equal(t, []string{"date_event_began", "year"}, q.FailedColumns())
	assert.Empty(t, QuarantineRow{}.FailedColumns())
}

package normalize

import (
	"testing"
	"time"

	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
	"github.com/couchcryptid/disturbance-data-etl/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	r, err := rules.Default()
	require.NoError(t, err)
	return New(r)
}

func TestNormalizer_Value(t *testing.T) {
	n := defaultNormalizer(t)

	tests := []struct {
		name   string
		column string
		in     string
		want   string
		null   bool
	}{
		{name: "state with trailing separator", column: "area_affected", in: "Maine;", want: "maine:"},
		{name: "padded separators", column: "area_affected", in: "Texas  :  Harris County  ;", want: "texas:harris county"},
		{name: "footnote inside list", column: "area_affected", in: "Massachusetts: Hampden County[13];", want: "massachusetts:hampden county"},
		{name: "comma list", column: "area_affected", in: "Ohio, Michigan", want: "ohio:michigan"},
		{name: "city prefix", column: "area_affected", in: "City of San Diego", want: "san diego"},
		{name: "plural county", column: "area_affected", in: "Harris and Fort Bend Counties", want: "harris and fort bend county"},
		{name: "directional", column: "area_affected", in: "South East Texas", want: "southeast texas"},
		{name: "quoted", column: "area_affected", in: `"Maine"`, want: "maine"},
		{name: "html entity", column: "area_affected", in: "Queen Anne&#39;s County", want: "queen anne's county"},
		{name: "mojibake", column: "area_affected", in: "CanÃ³vanas", want: "canóvanas"},
		{name: "non breaking space", column: "area_affected", in: "New\u00a0York", want: "new york"},
		{name: "unknown sentinel", column: "area_affected", in: " Unknown ", null: true},
		{name: "nan sentinel", column: "alert_criteria", in: "NaN", null: true},
		{name: "quoted zero", column: "demand_loss_(mw)", in: "'0'", want: "0"},
		{name: "thousands separator", column: "number_of_customers_affected", in: "1,500", want: "1500"},
		{name: "retired regions", column: "nerc_region", in: "TRE/RFC", want: "texas re,rf"},
		{name: "bare re", column: "nerc_region", in: "RE", want: "texas re"},
		{name: "texas re stays", column: "nerc_region", in: "Texas RE; SERC", want: "texas re,serc"},
		{name: "event type slash", column: "event_type", in: "Vandalism/Sabotage [1]", want: "vandalism-sabotage"},
		{name: "event type filler", column: "event_type", in: "Load Shed of 100+ MW", want: "load shed"},
		{name: "event type fault", column: "event_type", in: "Transmission Fault", want: "transmission failure"},
		{name: "event type plural", column: "event_type", in: "Natural Disasters", want: "natural disaster"},
		{name: "us date", column: "date_event_began", in: "6/1/2019", want: "2019-06-01"},
		{name: "excel serial date", column: "restoration_date", in: "43617", want: "2019-06-01"},
		{name: "month only", column: "date_event_began", in: "June", want: "1900-06-01"},
		{name: "month and year", column: "date_event_began", in: "June, 2019", want: "2019-06-01"},
		{name: "placeholder date", column: "restoration_date", in: "1/0/1900", null: true},
		{name: "ongoing restoration", column: "restoration_date", in: "Ongoing", null: true},
		{name: "only separators", column: "area_affected", in: " ; , ", null: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Value(domain.Str(tt.in), tt.column)
			if tt.null {
				assert.False(t, got.Valid, "want null, got %q", got.S)
				return
			}
			require.True(t, got.Valid)
			assert.Equal(t, tt.want, got.S)
		})
	}
}

func TestNormalizer_NullPreserved(t *testing.T) {
	n := defaultNormalizer(t)
	r, err := rules.Default()
	require.NoError(t, err)

	for _, c := range append(r.CanonicalColumns(), "comments") {
		assert.False(t, n.Value(domain.Null, c).Valid, c)
	}
}

func TestNormalizer_Idempotent(t *testing.T) {
	n := defaultNormalizer(t)

	inputs := map[string][]string{
		"area_affected": {
			"Maine;", "Texas  :  Harris County  ;", "Massachusetts: Hampden County[13];",
			"City of Highland, Entire State of Utah", "Harris Co., Texas", "\"Ohio\"; Michigan",
			"King County and Pierce County", "North-West Oregon [a]",
			"city city of of x", "state state of of utah",
		},
		"nerc_region":      {"TRE/RFC", "RE", "MPCC; SERC", "WECC", "texas re"},
		"event_type":       {"Vandalism/Sabotage [1]", "Severe Weather - Thunderstorms", "Fuel Supply Emergencies", "Loss of 100+ MW", "m100w", "o+f weather", "unknown o+f"},
		"date_event_began": {"6/1/2019", "June", "2019-06-01 00:00:00", "Jan 5, 2020"},
		"demand_loss_(mw)": {"1,500", "'0'", "approx. 300"},
		"alert_criteria":   {"Public appeal to reduce the use of electricity for purposes of maintaining the continuity of the Electric Power System."},
	}

	for column, values := range inputs {
		for _, in := range values {
			once := n.Value(domain.Str(in), column)
			twice := n.Value(once, column)
			assert.Equal(t, once, twice, "%s: %q", column, in)
		}
	}
}

func TestNormalizer_BareYearDate(t *testing.T) {
	n := defaultNormalizer(t)
	assert.Equal(t, domain.Str("2019-01-01"), n.Value(domain.Str("2019"), "date_event_began"))
}

func TestNormalizer_SubstitutionReachesFixedPoint(t *testing.T) {
	n := defaultNormalizer(t)

	tests := []struct {
		column string
		in     string
		want   domain.Value
	}{
		{"area_affected", "city city of of x", domain.Str("x")},
		{"event_type", "m100w", domain.Null},
		{"event_type", "o+f weather", domain.Str("weather")},
		{"event_type", "unknown o+f", domain.Null},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Value(domain.Str(tt.in), tt.column))
		})
	}
}

func TestNormalizer_NormalizeTable(t *testing.T) {
	n := defaultNormalizer(t)
	tbl := &domain.Table{
		Columns: []string{"area_affected", "year"},
		Rows: []domain.Row{
			{"area_affected": domain.Str("Maine;"), "year": domain.Str("2019")},
			{"area_affected": domain.Str("Texas"), "year": domain.Str("2019")},
			{"area_affected": domain.Null, "year": domain.Str("2020")},
		},
	}

	audits := n.NormalizeTable(tbl, map[string]bool{"year": true})

	require.Len(t, audits, 1)
	a := audits[0]
	assert.Equal(t, "area_affected", a.Column)
	assert.Equal(t, []string{"maine:", "texas"}, a.Added)
	assert.Equal(t, []string{"Maine;", "Texas"}, a.Removed)
	assert.Empty(t, a.Retained)
	assert.Equal(t, []domain.Change{{Original: "Maine;", Corrected: "maine:"}}, a.Changes)

	assert.Equal(t, domain.Str("maine:"), tbl.Rows[0]["area_affected"])
	assert.False(t, tbl.Rows[2]["area_affected"].Valid)
	assert.Equal(t, domain.Str("2019"), tbl.Rows[0]["year"])
}

func TestFillEventMonth(t *testing.T) {
	tbl := &domain.Table{
		Columns: []string{"event_month", "date_event_began"},
		Rows: []domain.Row{
			{"event_month": domain.Null, "date_event_began": domain.Str("2019-06-01")},
			{"event_month": domain.Str("july"), "date_event_began": domain.Str("2019-06-01")},
			{"event_month": domain.Null, "date_event_began": domain.Null},
		},
	}

	filled := FillEventMonth(tbl, "event_month", "date_event_began")

	assert.Equal(t, 1, filled)
	assert.Equal(t, domain.Str("june"), tbl.Rows[0]["event_month"])
	assert.Equal(t, domain.Str("july"), tbl.Rows[1]["event_month"])
	assert.False(t, tbl.Rows[2]["event_month"].Valid)
}

func TestFillEventMonth_MissingDateColumn(t *testing.T) {
	tbl := &domain.Table{Columns: []string{"event_month"}, Rows: []domain.Row{{"event_month": domain.Null}}}
	assert.Zero(t, FillEventMonth(tbl, "event_month", "date_event_began"))
}

func TestSubstitution_LongestVariantWins(t *testing.T) {
	rp := buildReplacer([]rules.Substitution{
		{Canonical: "", Variants: []string{"city of"}},
		{Canonical: "", Variants: []string{"city and county of"}},
	})
	require.NotNil(t, rp)
	assert.Equal(t, " denver", rp.Replace("city and county of denver"))
	assert.Nil(t, buildReplacer(nil))
}

func TestParseDatetime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"6/1/2019", time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"06-01-19", time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"2019-06-01 13:45:00", time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"September 3, 2018", time.Date(2018, 9, 3, 0, 0, 0, 0, time.UTC), true},
		{"sept", time.Date(1900, 9, 1, 0, 0, 0, 0, time.UTC), true},
		{"Dec. 2017", time.Date(2017, 12, 1, 0, 0, 0, 0, time.UTC), true},
		{"unknown", time.Time{}, false},
		{"", time.Time{}, false},
		{"1/0/1900", time.Time{}, false},
		{"2019", time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"1850", time.Time{}, false},
		{"43617", time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDatetime(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalizeDelimiter(t *testing.T) {
	tests := []struct {
		in        string
		correct   string
		incorrect []string
		want      string
	}{
		{"maine;", ":", []string{";", ","}, "maine:"},
		{"texas : harris county ;", ":", []string{";", ","}, "texas:harris county"},
		{"a::b", ":", nil, "a:b"},
		{":maine", ":", nil, "maine"},
		{"1,000,000", "", []string{","}, "1000000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalizeDelimiter(tt.in, tt.correct, tt.incorrect), tt.in)
	}
}

func TestStripBracketRefs(t *testing.T) {
	assert.Equal(t, "massachusetts: hampden county;", StripBracketRefs("massachusetts: hampden county[13];"))
	assert.Equal(t, "Area Affected", StripBracketRefs("Area Affected[ A ]"))
	assert.Equal(t, "a [] b", StripBracketRefs("a [] b"))
}

func TestRepairText(t *testing.T) {
	assert.Equal(t, "don’t", RepairText("donâ€™t"))
	assert.Equal(t, "Ã alone", RepairText("Ã alone"))
	assert.Equal(t, "fi", RepairText("ﬁ"))
}

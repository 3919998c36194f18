package profile

import (
	"testing"

	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTable(values []string, years []string) *domain.Table {
	tbl := &domain.Table{Columns: []string{"event_type", "year"}}
	for i, v := range values {
		cell := domain.Str(v)
		if v == "" {
			cell = domain.Null
		}
		tbl.Rows = append(tbl.Rows, domain.Row{"event_type": cell, "year": domain.Str(years[i])})
	}
	return tbl
}

func TestColumn(t *testing.T) {
	values := []string{"a", "a", "a", "a", "a", "b", "b", "b", "c", "d", "", ""}
	years := []string{"2019", "2019", "2020", "2020", "2021", "2019", "2019", "2019", "2020", "2021", "2019", "2020"}
	tbl := buildTable(values, years)

	p := Column(tbl, "event_type", DefaultOptions())

	assert.Equal(t, 2, p.NullCount)
	assert.InDelta(t, 2.0/12, p.NullRate, 1e-9)
	assert.Equal(t, KindString, p.Kind)
	assert.Equal(t, 4, p.Distinct)
	assert.Equal(t, 1, p.MinCount)
	assert.Equal(t, 4, p.MaxCount)

	require.Len(t, p.Outliers, 1)
	o := p.Outliers[0]
	assert.Equal(t, "a", o.Value)
	assert.Equal(t, 5, o.Count)
	assert.InDelta(t, 100*5.0/12, o.Percent, 1e-9)
	assert.Equal(t, []string{"2019", "2020", "2021"}, o.Years)
}

func TestColumn_AllNull(t *testing.T) {
	tbl := buildTable([]string{"", ""}, []string{"2019", "2019"})

	p := Column(tbl, "event_type", DefaultOptions())

	assert.Equal(t, KindEmpty, p.Kind)
	assert.Equal(t, 1.0, p.NullRate)
	assert.Zero(t, p.Distinct)
	assert.Empty(t, p.Outliers)
}

func TestColumn_KindVote(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"integers", []string{"1", "2", "x"}, KindInteger},
		{"floats", []string{"1.5", "2.5", "3"}, KindFloat},
		{"dates", []string{"2019-06-01", "2020-01-01", "n/a"}, KindDatetime},
		{"tie favors integer", []string{"1", "x"}, KindInteger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			years := make([]string, len(tt.values))
			p := Column(buildTable(tt.values, years), "event_type", DefaultOptions())
			assert.Equal(t, tt.want, p.Kind)
		})
	}
}

func TestQuantile(t *testing.T) {
	assert.Zero(t, Quantile(nil, 0.5))
	assert.Equal(t, 3.0, Quantile([]int{1, 3, 5}, 0.5))
	assert.InDelta(t, 4.4, Quantile([]int{1, 1, 3, 5}, 0.9), 1e-9)
	assert.Equal(t, 5.0, Quantile([]int{1, 3, 5}, 2))
}

func TestTableAndCompare(t *testing.T) {
	before := Table(buildTable([]string{"1", ""}, []string{"2019", "2019"}), DefaultOptions())
	after := Table(&domain.Table{
		Columns: []string{"event_type", "event_category"},
		Rows:    []domain.Row{{"event_type": domain.Str("1"), "event_category": domain.Str("unknown")}},
	}, DefaultOptions())

	require.Len(t, before, 2)
	deltas := Compare(before, after)

	require.Len(t, deltas, 1)
	assert.Equal(t, Delta{Column: "event_type", NullBefore: 0.5, NullAfter: 0, KindBefore: KindInteger, KindAfter: KindInteger}, deltas[0])
}

// Package profile computes per-column diagnostics used to check each stage:
// null rates, the dominant value type and values whose frequency falls outside
// the usual band for the column.
package profile

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
)

// Default quantile band of value counts. Values counted outside the band are
// reported as outliers.
const (
	DefaultMinQuantile = 0.25
	DefaultMaxQuantile = 0.9
)

// Inferred value types.
const (
	KindInteger  = "integer"
	KindFloat    = "float"
	KindDatetime = "datetime"
	KindString   = "string"
	KindEmpty    = "empty"
)

// ValueCount is one value with its frequency and the years it occurs in.
type ValueCount struct {
	Value   string   `json:"value"`
	Count   int      `json:"count"`
	Percent float64  `json:"percent"`
	Years   []string `json:"years,omitempty"`
}

// ColumnProfile describes one column.
type ColumnProfile struct {
	Column    string       `json:"column"`
	NullCount int          `json:"null_count"`
	NullRate  float64      `json:"null_rate"`
	Kind      string       `json:"kind"`
	Distinct  int          `json:"distinct"`
	MinCount  int          `json:"min_count"`
	MaxCount  int          `json:"max_count"`
	Outliers  []ValueCount `json:"outliers,omitempty"`
}

// Options tunes the frequency band.
type Options struct {
	MinQuantile float64
	MaxQuantile float64
	// YearColumn names the column used to attribute outliers to source years.
	YearColumn string
}

// DefaultOptions returns the standard band keyed on the year column.
func DefaultOptions() Options {
	return Options{MinQuantile: DefaultMinQuantile, MaxQuantile: DefaultMaxQuantile, YearColumn: "year"}
}

// Table profiles every column of t in column order.
func Table(t *domain.Table, opts Options) []ColumnProfile {
	out := make([]ColumnProfile, 0, len(t.Columns))
	for _, c := range t.Columns {
		out = append(out, Column(t, c, opts))
	}
	return out
}

// Column profiles one column of t. Nulls are counted but take no part in the
// type vote or the frequency band.
func Column(t *domain.Table, column string, opts Options) ColumnProfile {
	p := ColumnProfile{Column: column}
	counts := make(map[string]int)
	years := make(map[string]map[string]bool)
	votes := make(map[string]int)

	for _, r := range t.Rows {
		v := r.Get(column)
		if !v.Valid {
			p.NullCount++
			continue
		}
		counts[v.S]++
		votes[kindOf(v.S)]++
		if y := r.Get(opts.YearColumn); y.Valid {
			if years[v.S] == nil {
				years[v.S] = make(map[string]bool)
			}
			years[v.S][y.S] = true
		}
	}

	if n := t.Len(); n > 0 {
		p.NullRate = float64(p.NullCount) / float64(n)
	}
	p.Kind = vote(votes)
	p.Distinct = len(counts)
	if len(counts) == 0 {
		return p
	}

	freq := make([]int, 0, len(counts))
	for _, c := range counts {
		freq = append(freq, c)
	}
	sort.Ints(freq)
	p.MinCount = int(Quantile(freq, opts.MinQuantile))
	p.MaxCount = int(Quantile(freq, opts.MaxQuantile))

	for val, c := range counts {
		if c >= p.MinCount && c <= p.MaxCount {
			continue
		}
		p.Outliers = append(p.Outliers, ValueCount{
			Value:   val,
			Count:   c,
			Percent: 100 * float64(c) / float64(t.Len()),
			Years:   sortedKeys(years[val]),
		})
	}
	sort.Slice(p.Outliers, func(i, j int) bool {
		if p.Outliers[i].Count != p.Outliers[j].Count {
			return p.Outliers[i].Count > p.Outliers[j].Count
		}
		return p.Outliers[i].Value < p.Outliers[j].Value
	})
	return p
}

// Quantile returns the q-quantile of sorted by linear interpolation between
// the closest ranks.
func Quantile(sorted []int, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	q = math.Max(0, math.Min(1, q))
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[hi]-sorted[lo])
}

func kindOf(s string) string {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return KindInteger
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return KindFloat
	}
	if _, err := time.Parse(domain.DateLayout, s); err == nil {
		return KindDatetime
	}
	return KindString
}

var kindOrder = []string{KindInteger, KindFloat, KindDatetime, KindString}

func vote(votes map[string]int) string {
	best, n := KindEmpty, 0
	for _, k := range kindOrder {
		if votes[k] > n {
			best, n = k, votes[k]
		}
	}
	return best
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Delta is the change of one column's null rate between two profiles.
type Delta struct {
	Column     string  `json:"column"`
	NullBefore float64 `json:"null_rate_before"`
	NullAfter  float64 `json:"null_rate_after"`
	KindBefore string  `json:"kind_before"`
	KindAfter  string  `json:"kind_after"`
}

// Compare pairs the profiles of columns present in both sets, in the order of after.
func Compare(before, after []ColumnProfile) []Delta {
	idx := make(map[string]ColumnProfile, len(before))
	for _, p := range before {
		idx[p.Column] = p
	}
	var out []Delta
	for _, a := range after {
		b, ok := idx[a.Column]
		if !ok {
			continue
		}
		out = append(out, Delta{
			Column:     a.Column,
			NullBefore: b.NullRate,
			NullAfter:  a.NullRate,
			KindBefore: b.Kind,
			KindAfter:  a.Kind,
		})
	}
	return out
}

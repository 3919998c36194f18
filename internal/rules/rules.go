// Package rules holds the static rule tables that drive reconciliation,
// normalization, reduction and coercion. Tables are loaded from YAML and are
// treated as immutable once parsed.
package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRules []byte

// ColumnAlias maps one canonical column to its historical header names.
type ColumnAlias struct {
	Canonical string   `yaml:"canonical"`
	Aliases   []string `yaml:"aliases"`
}

// Delimiter is the delimiter canonicalization rule of one column. An empty
// Correct removes the incorrect delimiters without splitting.
type Delimiter struct {
	Column    string   `yaml:"column"`
	Correct   string   `yaml:"correct"`
	Incorrect []string `yaml:"incorrect"`
}

// Replacement is an exact-value substitution. A nil Replace means null.
type Replacement struct {
	Match   string  `yaml:"match"`
	Replace *string `yaml:"replace"`
}

// Substitution maps variant substrings to one canonical text.
type Substitution struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

// ColumnSubstitutions is the ordered substitution table of one column.
type ColumnSubstitutions struct {
	Column  string         `yaml:"column"`
	Entries []Substitution `yaml:"entries"`
}

// Postprocess rewrites a whole delimited token of a column.
type Postprocess struct {
	Column  string `yaml:"column"`
	Token   string `yaml:"token"`
	Replace string `yaml:"replace"`
}

// Unification maps whole area values to one canonical area.
type Unification struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

// Category is one event category and the keywords that select it.
type Category struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// Target declares the output type of a column. Separator applies to lists.
type Target struct {
	Column    string            `yaml:"column"`
	Type      domain.ColumnType `yaml:"type"`
	Separator string            `yaml:"separator"`
}

// Rules is the full configuration surface of the ETL.
type Rules struct {
	Columns         []ColumnAlias         `yaml:"columns"`
	DatetimeColumns []string              `yaml:"datetime_columns"`
	Delimiters      []Delimiter           `yaml:"delimiters"`
	Replacements    []Replacement         `yaml:"replacements"`
	Substitutions   []ColumnSubstitutions `yaml:"substitutions"`
	Postprocess     []Postprocess         `yaml:"postprocess"`
	AreaUnification []Unification         `yaml:"area_unification"`
	EventCategories []Category            `yaml:"event_categories"`
	NERCRegions     []string              `yaml:"nerc_regions"`
	States          []string              `yaml:"states"`
	Targets         []Target              `yaml:"targets"`
}

// Default returns the embedded rule tables.
func Default() (*Rules, error) {
	return Parse(defaultRules)
}

// Load reads rule tables from path, or the embedded defaults when path is empty.
func Load(path string) (*Rules, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	r, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	return r, nil
}

// Parse decodes YAML rule tables. Unknown keys are rejected.
func Parse(b []byte) (*Rules, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var r Rules
	if err := dec.Decode(&r); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("parse rules: empty document")
		}
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return &r, nil
}

// Delimiter returns the delimiter rule of column.
func (r *Rules) Delimiter(column string) (Delimiter, bool) {
	for _, d := range r.Delimiters {
		if d.Column == column {
			return d, true
		}
	}
	return Delimiter{}, false
}

// PostprocessFor returns the token rewrites of column.
func (r *Rules) PostprocessFor(column string) []Postprocess {
	var out []Postprocess
	for _, p := range r.Postprocess {
		if p.Column == column {
			out = append(out, p)
		}
	}
	return out
}

// IsDatetime reports whether column is parsed as a date in the normalizer.
func (r *Rules) IsDatetime(column string) bool {
	for _, c := range r.DatetimeColumns {
		if c == column {
			return true
		}
	}
	return false
}

// Target returns the declared output type of column.
func (r *Rules) Target(column string) (Target, bool) {
	for _, t := range r.Targets {
		if t.Column == column {
			return t, true
		}
	}
	return Target{}, false
}

// CanonicalColumns returns the snake_case names of every canonical column.
func (r *Rules) CanonicalColumns() []string {
	out := make([]string, 0, len(r.Columns))
	for _, c := range r.Columns {
		out = append(out, domain.SnakeCase(c.Canonical))
	}
	return out
}

// Package scoring computes ranking points (CRS, FSW grid) from an applicant
// profile. Scores are informational and never affect eligibility.
package scoring

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/spigell/pr-pathways/internal/normalize"
)

// Input names a profile dimension a factor reads.
type Input string

const (
	InputAge           Input = "age"
	InputEducation     Input = "education"
	InputCLB           Input = "clb"
	InputWorkYears     Input = "work_years"
	InputCanadianYears Input = "canadian_years"
	InputJobOffer      Input = "job_offer"
	InputJobOfferTEER  Input = "job_offer_teer"
)

var numericInputs = map[Input]bool{
	InputAge:           true,
	InputCLB:           true,
	InputWorkYears:     true,
	InputCanadianYears: true,
	InputJobOfferTEER:  true,
}

// Band awards points when a numeric input falls within [Min, Max]. A nil
// bound is open.
type Band struct {
	Min    *int `yaml:"min,omitempty"`
	Max    *int `yaml:"max,omitempty"`
	Points int  `yaml:"points"`
}

func (b Band) contains(v int) bool {
	return (b.Min == nil || v >= *b.Min) && (b.Max == nil || v <= *b.Max)
}

// Factor maps one input to points. Exactly one of Bands, Levels or Award is set.
type Factor struct {
	Name       string         `yaml:"name"`
	Input      Input          `yaml:"input"`
	Bands      []Band         `yaml:"bands,omitempty"`
	Levels     map[string]int `yaml:"levels,omitempty"`
	Award      *int           `yaml:"award,omitempty"`
	PerAbility int            `yaml:"per_ability,omitempty"`
	Max        *int           `yaml:"max,omitempty"`
	Group      string         `yaml:"group,omitempty"`
}

// Table is a point system. Groups cap the combined points of their factors.
type Table struct {
	Name     string         `yaml:"name"`
	Label    string         `yaml:"label"`
	Max      int            `yaml:"max"`
	PassMark *int           `yaml:"pass_mark,omitempty"`
	Groups   map[string]int `yaml:"groups,omitempty"`
	Factors  []Factor       `yaml:"factors"`
}

// LoadTable decodes and validates a YAML point table.
func LoadTable(r io.Reader) (*Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var t Table
	if err := dec.Decode(&t); err != nil {
		return nil, errors.Wrap(err, "decode point table")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTableFile reads a point table from disk.
func LoadTableFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read point table %s", path)
	}
	t, err := LoadTable(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "point table %s", path)
	}
	return t, nil
}

// Validate rejects tables that would score ambiguously.
func (t *Table) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("point table: name is required")
	}
	if t.Max <= 0 {
		return fmt.Errorf("point table %s: max must be positive", t.Name)
	}
	if t.PassMark != nil && (*t.PassMark < 0 || *t.PassMark > t.Max) {
		return fmt.Errorf("point table %s: pass_mark %d is outside 0-%d", t.Name, *t.PassMark, t.Max)
	}
	if len(t.Factors) == 0 {
		return fmt.Errorf("point table %s: no factors", t.Name)
	}

	for group, limit := range t.Groups {
		if limit < 0 {
			return fmt.Errorf("point table %s: group %s has a negative cap", t.Name, group)
		}
	}

	seen := make(map[string]bool, len(t.Factors))
	for i := range t.Factors {
		f := &t.Factors[i]
		if seen[f.Name] {
			return fmt.Errorf("point table %s: duplicate factor %q", t.Name, f.Name)
		}
		seen[f.Name] = true

		if err := t.validateFactor(f); err != nil {
			return fmt.Errorf("point table %s: factor %q: %w", t.Name, f.Name, err)
		}
	}

	return nil
}

func (t *Table) validateFactor(f *Factor) error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if f.PerAbility < 0 {
		return fmt.Errorf("per_ability must not be negative")
	}
	if f.Max != nil && *f.Max < 0 {
		return fmt.Errorf("max must not be negative")
	}
	if f.Group != "" {
		if _, ok := t.Groups[f.Group]; !ok {
			return fmt.Errorf("unknown group %q", f.Group)
		}
	}

	kinds := 0
	if len(f.Bands) > 0 {
		kinds++
	}
	if len(f.Levels) > 0 {
		kinds++
	}
	if f.Award != nil {
		kinds++
	}
	if kinds != 1 {
		return fmt.Errorf("exactly one of bands, levels or award must be set")
	}

	switch {
	case numericInputs[f.Input]:
		if len(f.Bands) == 0 {
			return fmt.Errorf("input %s needs bands", f.Input)
		}
		return validateBands(f.Bands)
	case f.Input == InputEducation:
		if len(f.Levels) == 0 {
			return fmt.Errorf("input %s needs levels", f.Input)
		}
		return validateLevels(f.Levels)
	case f.Input == InputJobOffer:
		if f.Award == nil {
			return fmt.Errorf("input %s needs award", f.Input)
		}
		if *f.Award < 0 {
			return fmt.Errorf("award must not be negative")
		}
		return nil
	default:
		return fmt.Errorf("unknown input %q", f.Input)
	}
}

func validateBands(bands []Band) error {
	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lower(sorted[i]) < lower(sorted[j])
	})

	for i, b := range sorted {
		if b.Points < 0 {
			return fmt.Errorf("band %s has negative points", b)
		}
		if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
			return fmt.Errorf("band %s is inverted", b)
		}
		if i > 0 {
			prev := sorted[i-1]
			if prev.Max == nil || b.Min == nil || *prev.Max >= *b.Min {
				return fmt.Errorf("bands %s and %s overlap", prev, b)
			}
		}
	}
	return nil
}

func lower(b Band) int {
	if b.Min == nil {
		return -1 << 31
	}
	return *b.Min
}

func (b Band) String() string {
	bound := func(v *int) string {
		if v == nil {
			return "*"
		}
		return fmt.Sprint(*v)
	}
	return "[" + bound(b.Min) + ".." + bound(b.Max) + "]"
}

func validateLevels(levels map[string]int) error {
	known := make(map[string]bool)
	for l := normalize.LessThanHighSchool; l <= normalize.Doctorate; l++ {
		known[l.String()] = true
	}

	for name, points := range levels {
		if !known[name] {
			return fmt.Errorf("unknown education level %q", name)
		}
		if points < 0 {
			return fmt.Errorf("level %s has negative points", name)
		}
	}
	return nil
}

package scoring

import (
	"bytes"
	_ "embed"
	"math"
	"strconv"
	"sync"

	"github.com/spigell/pr-pathways/internal/applicant"
	"github.com/spigell/pr-pathways/internal/normalize"
)

var (
	//go:embed tables/crs.yaml
	crsTable []byte
	//go:embed tables/fsw.yaml
	fswTable []byte
)

var (
	defaultCRS = sync.OnceValues(func() (*Table, error) { return LoadTable(bytes.NewReader(crsTable)) })
	defaultFSW = sync.OnceValues(func() (*Table, error) { return LoadTable(bytes.NewReader(fswTable)) })
)

// DefaultCRS returns the embedded CRS table. The table is shared; do not modify it.
func DefaultCRS() (*Table, error) { return defaultCRS() }

// DefaultFSW returns the embedded FSW selection grid. The table is shared; do not modify it.
func DefaultFSW() (*Table, error) { return defaultFSW() }

// Inputs are the profile values a table can read. Year counts are completed years.
type Inputs struct {
	Age           int
	Education     normalize.EducationLevel
	CLB           int
	WorkYears     int
	CanadianYears int
	JobOffer      bool
	// JobOfferTEER is -1 without a job offer.
	JobOfferTEER int
}

// InputsFromProfile derives scoring inputs. The profile records only whether
// Canadian experience exists, which counts as one year; use canadianYears to
// override when the caller knows more. A negative value keeps the default.
func InputsFromProfile(p *applicant.Profile, canadianYears int) Inputs {
	level, _ := normalize.ParseEducationLevel(p.EducationLevel)

	in := Inputs{
		Age:          p.Age,
		Education:    level,
		CLB:          p.CLBScore,
		WorkYears:    int(math.Floor(p.WorkExperienceYears)),
		JobOffer:     p.HasJobOffer,
		JobOfferTEER: -1,
	}
	if p.HasCanadianExperience {
		in.CanadianYears = 1
	}
	if canadianYears >= 0 {
		in.CanadianYears = canadianYears
	}
	if p.HasJobOffer {
		if teer, err := strconv.Atoi(string(p.NOCTEERLevel)); err == nil {
			in.JobOfferTEER = teer
		}
	}
	return in
}

// FactorScore is the contribution of one factor.
type FactorScore struct {
	Name   string `json:"name"`
	Input  Input  `json:"input"`
	Value  string `json:"value"`
	Points int    `json:"points"`
	Group  string `json:"group,omitempty"`
	Capped bool   `json:"capped,omitempty"`
}

// Score is a computed point total.
type Score struct {
	System        string        `json:"system"`
	Label         string        `json:"label"`
	Total         int           `json:"total"`
	Max           int           `json:"max"`
	PassMark      *int          `json:"pass_mark,omitempty"`
	MeetsPassMark *bool         `json:"meets_pass_mark,omitempty"`
	Breakdown     []FactorScore `json:"breakdown"`
}

// Score applies the table to the inputs.
func (t *Table) Score(in Inputs) Score {
	s := Score{
		System:    t.Name,
		Label:     t.Label,
		Max:       t.Max,
		PassMark:  t.PassMark,
		Breakdown: make([]FactorScore, 0, len(t.Factors)),
	}

	groups := make(map[string]int)
	for _, f := range t.Factors {
		fs := f.score(in)
		s.Breakdown = append(s.Breakdown, fs)

		if f.Group != "" {
			groups[f.Group] += fs.Points
			continue
		}
		s.Total += fs.Points
	}

	for group, points := range groups {
		s.Total += min(points, t.Groups[group])
	}
	s.Total = min(s.Total, t.Max)

	if t.PassMark != nil {
		meets := s.Total >= *t.PassMark
		s.MeetsPassMark = &meets
	}
	return s
}

// Compute validates the profile and scores it with the table.
func Compute(t *Table, p *applicant.Profile) (Score, error) {
	if err := p.Validate(); err != nil {
		return Score{}, err
	}
	return t.Score(InputsFromProfile(p, -1)), nil
}

func (f Factor) score(in Inputs) FactorScore {
	fs := FactorScore{Name: f.Name, Input: f.Input, Group: f.Group}

	switch {
	case len(f.Levels) > 0:
		fs.Value = in.Education.String()
		fs.Points = f.Levels[fs.Value]
	case f.Award != nil:
		fs.Value = strconv.FormatBool(in.JobOffer)
		if in.JobOffer {
			fs.Points = *f.Award
		}
	default:
		v, ok := in.numeric(f.Input)
		if !ok {
			// Only reachable for tables that skipped Validate.
			return fs
		}
		fs.Value = strconv.Itoa(v)
		for _, band := range f.Bands {
			if band.contains(v) {
				fs.Points = band.Points
				break
			}
		}
	}

	if f.PerAbility > 0 {
		fs.Points *= f.PerAbility
	}
	if f.Max != nil && fs.Points > *f.Max {
		fs.Points = *f.Max
		fs.Capped = true
	}
	return fs
}

func (in Inputs) numeric(input Input) (int, bool) {
	switch input {
	case InputAge:
		return in.Age, true
	case InputCLB:
		return in.CLB, true
	case InputWorkYears:
		return in.WorkYears, true
	case InputCanadianYears:
		return in.CanadianYears, true
	case InputJobOfferTEER:
		return in.JobOfferTEER, true
	default:
		return 0, false
	}
}

package eligibility

import (
	"strings"

	"github.com/spigell/pr-pathways/internal/catalog"
)

// Status is the verdict for one program.
type Status string

const (
	Eligible   Status = "eligible"
	Ineligible Status = "ineligible"
)

// Check is one criterion verdict, kept in checker order.
type Check struct {
	Criterion string `json:"criterion"`
	Passed    bool   `json:"passed"`
	Reason    string `json:"reason"`
}

// ProgramResult describes the verdict for one program. Eligible programs
// carry every criterion reason in Details; ineligible programs carry only the
// failing ones in FailedRequirements.
type ProgramResult struct {
	ProgramName        string            `json:"program_name"`
	OfficialURL        string            `json:"official_url"`
	Type               catalog.Kind      `json:"type"`
	Province           *string           `json:"province"`
	LastUpdated        string            `json:"last_updated,omitempty"`
	Status             Status            `json:"status"`
	Details            map[string]string `json:"details,omitempty"`
	FailedRequirements map[string]string `json:"failed_requirements,omitempty"`

	Checks []Check `json:"-"`
}

type Summary struct {
	EligibleCount   int `json:"eligible_count"`
	IneligibleCount int `json:"ineligible_count"`
}

// Result is the outcome of one evaluation. Program lists follow catalog order.
type Result struct {
	EligiblePrograms   []ProgramResult `json:"eligible_programs"`
	IneligiblePrograms []ProgramResult `json:"ineligible_programs"`
	TotalEvaluated     int             `json:"total_evaluated"`
	Summary            Summary         `json:"summary"`
	CatalogVersion     string          `json:"catalog_version,omitempty"`
}

func newResult(version string) *Result {
	return &Result{
		EligiblePrograms:   []ProgramResult{},
		IneligiblePrograms: []ProgramResult{},
		CatalogVersion:     version,
	}
}

func (r *Result) add(pr ProgramResult) {
	r.TotalEvaluated++
	if pr.Status == Eligible {
		r.EligiblePrograms = append(r.EligiblePrograms, pr)
		r.Summary.EligibleCount++
		return
	}
	r.IneligiblePrograms = append(r.IneligiblePrograms, pr)
	r.Summary.IneligibleCount++
}

// Filter returns the programs of the given kind and province. Empty
// arguments match everything; province matching ignores case. Counts are
// recomputed for the narrowed result.
func (r *Result) Filter(kind catalog.Kind, province string) *Result {
	out := newResult(r.CatalogVersion)
	keep := func(pr ProgramResult) bool {
		if kind != "" && pr.Type != kind {
			return false
		}
		if province != "" && (pr.Province == nil || !strings.EqualFold(*pr.Province, strings.TrimSpace(province))) {
			return false
		}
		return true
	}

	for _, pr := range r.EligiblePrograms {
		if keep(pr) {
			out.add(pr)
		}
	}
	for _, pr := range r.IneligiblePrograms {
		if keep(pr) {
			out.add(pr)
		}
	}
	return out
}

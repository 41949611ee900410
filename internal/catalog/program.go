package catalog

import (
	"sort"

	"github.com/spigell/pr-pathways/internal/normalize"
)

// Kind is the jurisdiction running a program.
type Kind string

const (
	Federal     Kind = "federal"
	Provincial  Kind = "provincial"
	Territorial Kind = "territorial"
	Quebec      Kind = "quebec"
	KindUnknown Kind = "unknown"
)

// Criterion names, in evaluation order.
const (
	CriterionWorkExperience  = "work_experience"
	CriterionLanguage        = "language"
	CriterionEducation       = "education"
	CriterionAge             = "age"
	CriterionSettlementFunds = "settlement_funds"
	CriterionJobOffer        = "job_offer"
)

// Program is one catalog entry. Programs are shared between concurrent
// evaluations and must not be modified after load.
type Program struct {
	Name        string
	OfficialURL string
	Kind        Kind
	Province    *string
	LastUpdated string
	Rules       Rules

	raw map[string]any
}

// Raw returns the program record as it appeared in the source.
func (p *Program) Raw() map[string]any {
	return p.raw
}

// Rules are the typed criterion blocks of a program. A nil block imposes no constraint.
type Rules struct {
	WorkExperience  *WorkExperience
	Education       *Education
	Language        *Language
	Age             *Age
	SettlementFunds *SettlementFunds
	Connection      *Connection

	// Problems holds blocks that could not be decoded, keyed by criterion name.
	Problems map[string]*DataError
}

// Problem returns the decoding problem recorded for a criterion, if any.
func (r *Rules) Problem(criterion string) *DataError {
	if r == nil {
		return nil
	}
	return r.Problems[criterion]
}

// Flag is a requirement marker stored either as a boolean or as prose. Any
// non-empty prose counts as required and is kept in Text.
type Flag struct {
	Required bool
	Text     string
}

type WorkExperience struct {
	MinYears                   *float64 `mapstructure:"min_years"`
	CanadianExperienceRequired Flag     `mapstructure:"canadian_experience_required"`
}

type Education struct {
	MinLevel string `mapstructure:"min_level"`
}

type Language struct {
	EnglishMin string `mapstructure:"english_min"`
	FrenchMin  string `mapstructure:"french_min"`

	// Minimum is EnglishMin parsed at load time.
	Minimum normalize.LanguageMinimum `mapstructure:"-"`
}

type Age struct {
	MinAge *int `mapstructure:"min_age"`
	MaxAge *int `mapstructure:"max_age"`
}

type SettlementFunds struct {
	Required bool               `mapstructure:"required"`
	TableCAD map[string]float64 `mapstructure:"table_cad"`

	// Table is TableCAD parsed at load time; nil when no amounts are tabulated.
	Table *FundsTable `mapstructure:"-"`
}

// Connection holds connection requirements. Only the job offer flag gates
// eligibility; the remaining keys stay in the raw record.
type Connection struct {
	JobOfferRequired Flag `mapstructure:"job_offer_required"`
}

// FundsTable maps family size to the required settlement funds.
type FundsTable struct {
	Amounts             map[int]float64
	AdditionalPerPerson float64
	Largest             int
}

// Required returns the amount needed for a family size. Sizes beyond the
// largest tabulated one add AdditionalPerPerson for every extra member.
func (t *FundsTable) Required(familySize int) (float64, bool) {
	if t == nil || familySize < 1 {
		return 0, false
	}
	if amount, ok := t.Amounts[familySize]; ok {
		return amount, true
	}
	if familySize > t.Largest {
		return t.Amounts[t.Largest] + float64(familySize-t.Largest)*t.AdditionalPerPerson, true
	}
	return 0, false
}

// Sizes returns the tabulated family sizes in ascending order.
func (t *FundsTable) Sizes() []int {
	sizes := make([]int, 0, len(t.Amounts))
	for size := range t.Amounts {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	return sizes
}

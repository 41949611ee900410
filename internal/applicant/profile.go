// Package applicant holds the structured applicant profile consumed by the
// eligibility evaluator and the scoring layer.
package applicant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/spigell/pr-pathways/internal/normalize"
)

// TEER is a NOC TEER category, "0" through "5".
type TEER string

var typeOfTEER = reflect.TypeOf(TEER(""))

// UnmarshalJSON accepts both "1" and 1.
func (t *TEER) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TEER(strings.TrimSpace(s))
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return &json.UnmarshalTypeError{Value: string(data), Type: typeOfTEER, Field: "noc_teer_level"}
	}
	*t = TEER(strconv.Itoa(n))
	return nil
}

// Valid reports whether t is one of the six TEER categories.
func (t TEER) Valid() bool {
	return len(t) == 1 && t[0] >= '0' && t[0] <= '5'
}

// Profile is an applicant's eligibility-relevant data. All fields are
// required; Age 0 means age was not provided and is not evaluated.
type Profile struct {
	WorkExperienceYears   float64 `json:"work_experience_years"`
	EducationLevel        string  `json:"education_level"`
	CLBScore              int     `json:"clb_score"`
	NOCTEERLevel          TEER    `json:"noc_teer_level"`
	Age                   int     `json:"age"`
	HasCanadianExperience bool    `json:"has_canadian_experience"`
	HasJobOffer           bool    `json:"has_job_offer"`
	SettlementFundsCAD    float64 `json:"settlement_funds_cad"`
	FamilySize            int     `json:"family_size"`
}

type wireProfile struct {
	WorkExperienceYears   *float64               `json:"work_experience_years"`
	EducationLevel        *string                `json:"education_level"`
	CLBScore              *int                   `json:"clb_score"`
	IELTS                 *normalize.IELTSScores `json:"ielts"`
	NOCTEERLevel          *TEER                  `json:"noc_teer_level"`
	Age                   *int                   `json:"age"`
	HasCanadianExperience *bool                  `json:"has_canadian_experience"`
	HasJobOffer           *bool                  `json:"has_job_offer"`
	SettlementFundsCAD    *float64               `json:"settlement_funds_cad"`
	FamilySize            *int                   `json:"family_size"`
}

// Decode reads a JSON profile. Every field must be present. When clb_score is
// absent, raw IELTS band scores under "ielts" are converted instead.
func Decode(r io.Reader) (*Profile, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var w wireProfile
	if err := dec.Decode(&w); err != nil {
		return nil, decodeError(err)
	}

	var problems Problems
	p := &Profile{}

	if w.WorkExperienceYears == nil {
		problems = append(problems, missing("work_experience_years"))
	} else {
		p.WorkExperienceYears = *w.WorkExperienceYears
	}

	if w.EducationLevel == nil {
		problems = append(problems, missing("education_level"))
	} else {
		p.EducationLevel = *w.EducationLevel
	}

	switch {
	case w.CLBScore != nil:
		p.CLBScore = *w.CLBScore
	case w.IELTS != nil:
		converted, err := normalize.ConvertIELTS(*w.IELTS)
		if err != nil {
			problems = append(problems, &InvalidProfileError{Field: "ielts", Reason: err.Error(), Err: ErrOutOfRange})
		} else {
			p.CLBScore = converted.Overall
		}
	default:
		problems = append(problems, missing("clb_score"))
	}

	if w.NOCTEERLevel == nil {
		problems = append(problems, missing("noc_teer_level"))
	} else {
		p.NOCTEERLevel = *w.NOCTEERLevel
	}

	if w.Age == nil {
		problems = append(problems, missing("age"))
	} else {
		p.Age = *w.Age
	}

	if w.HasCanadianExperience == nil {
		problems = append(problems, missing("has_canadian_experience"))
	} else {
		p.HasCanadianExperience = *w.HasCanadianExperience
	}

	if w.HasJobOffer == nil {
		problems = append(problems, missing("has_job_offer"))
	} else {
		p.HasJobOffer = *w.HasJobOffer
	}

	if w.SettlementFundsCAD == nil {
		problems = append(problems, missing("settlement_funds_cad"))
	} else {
		p.SettlementFundsCAD = *w.SettlementFundsCAD
	}

	if w.FamilySize == nil {
		problems = append(problems, missing("family_size"))
	} else {
		p.FamilySize = *w.FamilySize
	}

	if len(problems) > 0 {
		return nil, problems
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// FromJSON is Decode over a byte slice.
func FromJSON(data []byte) (*Profile, error) {
	return Decode(bytes.NewReader(data))
}

// Validate checks value ranges. It never fills in defaults.
func (p *Profile) Validate() error {
	if p == nil {
		return &InvalidProfileError{Field: "profile", Reason: "is required", Err: ErrMissingField}
	}

	var problems Problems

	if math.IsNaN(p.WorkExperienceYears) || p.WorkExperienceYears < 0 {
		problems = append(problems, outOfRange("work_experience_years", "must be 0 or more"))
	}
	if strings.TrimSpace(p.EducationLevel) == "" {
		problems = append(problems, missing("education_level"))
	}
	if p.CLBScore < 0 || p.CLBScore > normalize.MaxCLB {
		problems = append(problems, outOfRange("clb_score", fmt.Sprintf("must be between 0 and %d", normalize.MaxCLB)))
	}
	if !p.NOCTEERLevel.Valid() {
		problems = append(problems, outOfRange("noc_teer_level", "must be one of 0, 1, 2, 3, 4, 5"))
	}
	if p.Age < 0 {
		problems = append(problems, outOfRange("age", "must be 0 or more"))
	}
	if math.IsNaN(p.SettlementFundsCAD) || p.SettlementFundsCAD < 0 {
		problems = append(problems, outOfRange("settlement_funds_cad", "must be 0 or more"))
	}
	if p.FamilySize < 1 {
		problems = append(problems, outOfRange("family_size", "must be at least 1"))
	}

	return problems.err()
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &InvalidProfileError{
			Field:  typeErr.Field,
			Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			Err:    ErrInvalidType,
		}
	}

	if name, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return &InvalidProfileError{
			Field:  strings.Trim(name, `"`),
			Reason: "unknown field",
			Err:    ErrInvalidType,
		}
	}

	return fmt.Errorf("decoding profile: %w", err)
}

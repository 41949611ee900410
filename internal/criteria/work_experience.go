package criteria

import (
	"fmt"

	"github.com/spigell/pr-pathways/internal/applicant"
	"github.com/spigell/pr-pathways/internal/catalog"
)

type workExperienceChecker struct{}

// NewWorkExperience checks years of experience and the Canadian experience gate.
func NewWorkExperience() Checker {
	return &workExperienceChecker{}
}

func (c *workExperienceChecker) Name() string { return catalog.CriterionWorkExperience }

func (c *workExperienceChecker) Check(p *applicant.Profile, rules *catalog.Rules) (Outcome, error) {
	block := rules.WorkExperience

	if block != nil && block.CanadianExperienceRequired.Required && !p.HasCanadianExperience {
		return fail("Canadian work experience required"), nil
	}

	if block == nil || block.MinYears == nil {
		return pass("No work experience required"), nil
	}

	if p.WorkExperienceYears >= *block.MinYears {
		return pass(fmt.Sprintf("Meets work experience requirement (%s years)", formatYears(p.WorkExperienceYears))), nil
	}

	return fail(fmt.Sprintf("Need %s years, have %s years", formatYears(*block.MinYears), formatYears(p.WorkExperienceYears))), nil
}

func (c *workExperienceChecker) Status() Status {
	return Status{
		Name:        c.Name(),
		Description: "years of work experience against min_years; fails without Canadian experience when the program requires it",
	}
}

package criteria

import (
	"fmt"

	"github.com/spigell/pr-pathways/internal/applicant"
	"github.com/spigell/pr-pathways/internal/catalog"
)

type ageChecker struct{}

// NewAge enforces the optional min_age and max_age bounds.
func NewAge() Checker {
	return &ageChecker{}
}

func (c *ageChecker) Name() string { return catalog.CriterionAge }

func (c *ageChecker) Check(p *applicant.Profile, rules *catalog.Rules) (Outcome, error) {
	if p.Age == 0 {
		return pass("Age not evaluated"), nil
	}

	if block := rules.Age; block != nil {
		if block.MinAge != nil && p.Age < *block.MinAge {
			return fail(fmt.Sprintf("Minimum age %d required", *block.MinAge)), nil
		}
		if block.MaxAge != nil && p.Age > *block.MaxAge {
			return fail(fmt.Sprintf("Maximum age %d exceeded", *block.MaxAge)), nil
		}
	}

	return pass("Meets age requirement"), nil
}

func (c *ageChecker) Status() Status {
	return Status{
		Name:        c.Name(),
		Description: "age within min_age and max_age; an age of 0 is not evaluated",
	}
}

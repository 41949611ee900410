package criteria

import (
	"fmt"
	"strings"

	"github.com/spigell/pr-pathways/internal/applicant"
	"github.com/spigell/pr-pathways/internal/catalog"
	"github.com/spigell/pr-pathways/internal/normalize"
)

type educationChecker struct {
	policy EducationPolicy
}

// NewEducation compares education levels. The policy applies when either
// side cannot be placed in the hierarchy.
func NewEducation(policy EducationPolicy) Checker {
	if policy == "" {
		policy = FailClosed
	}
	return &educationChecker{policy: policy}
}

func (c *educationChecker) Name() string { return catalog.CriterionEducation }

func (c *educationChecker) Check(p *applicant.Profile, rules *catalog.Rules) (Outcome, error) {
	block := rules.Education
	if block == nil || strings.TrimSpace(block.MinLevel) == "" {
		return pass("No education requirement"), nil
	}

	cmp := normalize.CompareEducation(p.EducationLevel, block.MinLevel)
	switch cmp.Verdict {
	case normalize.Met:
		return pass("Meets education requirement"), nil
	case normalize.Indeterminate:
		if c.policy == PassWithWarning {
			return pass(fmt.Sprintf("Education requirement could not be compared (%s); not enforced", block.MinLevel)), nil
		}
	}

	return fail(fmt.Sprintf("Need %s, have %s", block.MinLevel, p.EducationLevel)), nil
}

func (c *educationChecker) Status() Status {
	return Status{
		Name:        c.Name(),
		Description: "education level against min_level using the ordinal hierarchy",
		Details:     map[string]string{"policy": string(c.policy)},
	}
}

package criteria

import (
	"fmt"
	"strings"

	"github.com/spigell/pr-pathways/internal/applicant"
	"github.com/spigell/pr-pathways/internal/catalog"
	"github.com/spigell/pr-pathways/internal/normalize"
)

type languageChecker struct{}

// NewLanguage checks the applicant CLB against the tier-specific minimum.
func NewLanguage() Checker {
	return &languageChecker{}
}

func (c *languageChecker) Name() string { return catalog.CriterionLanguage }

func (c *languageChecker) Check(p *applicant.Profile, rules *catalog.Rules) (Outcome, error) {
	block := rules.Language
	if block == nil || strings.TrimSpace(block.EnglishMin) == "" {
		return pass("No language requirement"), nil
	}

	minimum := block.Minimum
	if minimum.Text != block.EnglishMin {
		// Blocks built in code rather than loaded from a catalog are parsed here.
		parsed, err := normalize.ParseLanguageMinimum(block.EnglishMin)
		if err != nil {
			return Outcome{}, dataError(c.Name(), "english_min %q: %v", block.EnglishMin, err)
		}
		minimum = parsed
	}

	required := minimum.For(string(p.NOCTEERLevel))
	if required == 0 {
		return pass("No minimum CLB required"), nil
	}

	if p.CLBScore >= required {
		return pass(fmt.Sprintf("Meets language requirement (CLB %d)", p.CLBScore)), nil
	}

	return fail(fmt.Sprintf("Need CLB %d, have CLB %d", required, p.CLBScore)), nil
}

func (c *languageChecker) Status() Status {
	return Status{
		Name:        c.Name(),
		Description: "CLB score against english_min, resolved for the applicant's NOC TEER; falls back to the lowest CLB named",
	}
}

package criteria

import (
	"fmt"

	"github.com/spigell/pr-pathways/internal/applicant"
	"github.com/spigell/pr-pathways/internal/catalog"
)

type settlementFundsChecker struct{}

// NewSettlementFunds checks available funds against the family-size table.
func NewSettlementFunds() Checker {
	return &settlementFundsChecker{}
}

func (c *settlementFundsChecker) Name() string { return catalog.CriterionSettlementFunds }

func (c *settlementFundsChecker) Check(p *applicant.Profile, rules *catalog.Rules) (Outcome, error) {
	block := rules.SettlementFunds
	if block == nil || !block.Required {
		return pass("Settlement funds not required"), nil
	}

	table := block.Table
	if table == nil && len(block.TableCAD) > 0 {
		parsed, err := catalog.ParseFundsTable(block.TableCAD)
		if err != nil {
			return Outcome{}, dataError(c.Name(), "%v", err)
		}
		table = parsed
	}
	if table == nil {
		return Outcome{}, dataError(c.Name(), "funds are required but no amounts are tabulated")
	}

	required, ok := table.Required(p.FamilySize)
	if !ok {
		return Outcome{}, dataError(c.Name(), "no amount tabulated for a family of %d", p.FamilySize)
	}

	if p.SettlementFundsCAD >= required {
		return pass(fmt.Sprintf("Meets settlement funds requirement (%s CAD)", formatCAD(required))), nil
	}

	return fail(fmt.Sprintf("Need %s CAD, have %s CAD", formatCAD(required), formatCAD(p.SettlementFundsCAD))), nil
}

func (c *settlementFundsChecker) Status() Status {
	return Status{
		Name:        c.Name(),
		Description: "funds against table_cad for the family size, extrapolated with additional_per_person",
	}
}

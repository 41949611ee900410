package criteria

import (
	"github.com/spigell/pr-pathways/internal/applicant"
	"github.com/spigell/pr-pathways/internal/catalog"
)

type jobOfferChecker struct{}

// NewJobOffer fails only when a job offer is required and the applicant has
// none. Other connection requirements are informational.
func NewJobOffer() Checker {
	return &jobOfferChecker{}
}

func (c *jobOfferChecker) Name() string { return catalog.CriterionJobOffer }

func (c *jobOfferChecker) Check(p *applicant.Profile, rules *catalog.Rules) (Outcome, error) {
	required := rules.Connection != nil && rules.Connection.JobOfferRequired.Required

	if required && !p.HasJobOffer {
		return fail("Valid job offer required"), nil
	}

	if p.HasJobOffer {
		return pass("Job offer requirement met"), nil
	}
	return pass("No job offer required"), nil
}

func (c *jobOfferChecker) Status() Status {
	return Status{
		Name:        c.Name(),
		Description: "job offer presence when connection_requirements.job_offer_required is set",
	}
}

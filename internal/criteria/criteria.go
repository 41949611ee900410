// Package criteria implements one checker per eligibility dimension. Checkers
// are pure: they read the applicant and a program's rule blocks and never
// keep state between calls.
package criteria

import (
	"fmt"
	"strings"

	"github.com/spigell/pr-pathways/internal/applicant"
	"github.com/spigell/pr-pathways/internal/catalog"
)

// Checker evaluates a single criterion of a program.
type Checker interface {
	Name() string

	// Check returns a *catalog.DataError when the rule block cannot be applied.
	Check(p *applicant.Profile, rules *catalog.Rules) (Outcome, error)
	Status() Status
}

// Outcome is a checker verdict with a human-readable reason.
type Outcome struct {
	Passed bool
	Reason string
}

// Status describes what a checker enforces.
type Status struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Details     map[string]string `json:"details,omitempty"`
}

// EducationPolicy decides what happens when education wording cannot be
// placed in the hierarchy.
type EducationPolicy string

const (
	FailClosed      EducationPolicy = "fail-closed"
	PassWithWarning EducationPolicy = "pass-with-warning"
)

// ParseEducationPolicy accepts the configuration spelling of a policy.
// An empty value selects FailClosed.
func ParseEducationPolicy(s string) (EducationPolicy, error) {
	switch EducationPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FailClosed:
		return FailClosed, nil
	case PassWithWarning:
		return PassWithWarning, nil
	default:
		return "", fmt.Errorf("unknown education policy %q (want %s or %s)", s, FailClosed, PassWithWarning)
	}
}

// Options configure the default checker set.
type Options struct {
	EducationPolicy EducationPolicy
}

// Default returns the six checkers in evaluation order.
func Default(opts Options) []Checker {
	return []Checker{
		NewWorkExperience(),
		NewLanguage(),
		NewEducation(opts.EducationPolicy),
		NewAge(),
		NewSettlementFunds(),
		NewJobOffer(),
	}
}

// Describe returns status entries for the provided checkers.
func Describe(checkers []Checker) []Status {
	statuses := make([]Status, 0, len(checkers))
	for _, checker := range checkers {
		statuses = append(statuses, checker.Status())
	}
	return statuses
}

func pass(reason string) Outcome {
	return Outcome{Passed: true, Reason: reason}
}

func fail(reason string) Outcome {
	return Outcome{Reason: reason}
}

func dataError(criterion, format string, args ...any) error {
	return &catalog.DataError{Criterion: criterion, Reason: fmt.Sprintf(format, args...)}
}

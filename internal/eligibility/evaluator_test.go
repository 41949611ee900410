package eligibility

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/pr-pathways/internal/applicant"
	"github.com/spigell/pr-pathways/internal/catalog"
	"github.com/spigell/pr-pathways/internal/criteria"
	"github.com/spigell/pr-pathways/internal/normalize"
)

const fixture = `{
  "metadata": {"last_verified": "2025-10-17"},
  "programs": [
    {
      "program_name": "Federal Skilled Worker Program (FSW)",
      "official_url": "https://www.canada.ca/fsw",
      "last_updated": "2024-12",
      "federal_or_provincial": "federal",
      "province": null,
      "eligibility_rules": {
        "work_experience": {"min_years": 1.0, "canadian_experience_required": false},
        "education": {"min_level": "Secondary school diploma required"},
        "language": {"english_min": "No minimum for eligibility, but affects selection points"},
        "age": {"min_age": 18, "max_age": null},
        "settlement_funds": {
          "required": true,
          "table_cad": {"1": 15263, "2": 19001, "3": 23360, "4": 28362, "5": 32168, "6": 36280, "7": 40392, "additional_per_person": 4112}
        },
        "connection_requirements": {"job_offer_required": false}
      }
    },
    {
      "program_name": "Ontario Employer Job Offer: Foreign Worker Stream",
      "official_url": "https://www.ontario.ca/foreign-worker",
      "federal_or_provincial": "provincial",
      "province": "Ontario",
      "eligibility_rules": {
        "work_experience": {"min_years": 2},
        "education": {"min_level": "Bachelor's degree"},
        "language": {"english_min": "CLB 7"},
        "age": {"min_age": 18, "max_age": 40},
        "settlement_funds": {"required": true, "table_cad": {"1": 10000}},
        "connection_requirements": {"job_offer_required": "Full-time permanent job offer from an Ontario employer"}
      }
    },
    {
      "program_name": "Broken Territorial Program",
      "official_url": "https://example.org/broken",
      "federal_or_provincial": "territorial",
      "province": "Yukon",
      "eligibility_rules": {
        "age": {"min_age": "eighteen"},
        "settlement_funds": {"required": true}
      }
    }
  ]
}`

const (
	fswName     = "Federal Skilled Worker Program (FSW)"
	ontarioName = "Ontario Employer Job Offer: Foreign Worker Stream"
	brokenName  = "Broken Territorial Program"
)

func loadFixture(t *testing.T) *catalog.Catalog {
	t.Helper()

	c, err := catalog.Load([]byte(fixture), catalog.FormatJSON, catalog.WithSource("fixture"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func sampleProfile() *applicant.Profile {
	return &applicant.Profile{
		WorkExperienceYears: 3,
		EducationLevel:      "bachelor",
		CLBScore:            8,
		NOCTEERLevel:        "1",
		Age:                 30,
		SettlementFundsCAD:  20000,
		FamilySize:          1,
	}
}

func findProgram(results []ProgramResult, name string) (ProgramResult, bool) {
	for _, pr := range results {
		if pr.ProgramName == name {
			return pr, true
		}
	}
	return ProgramResult{}, false
}

func TestEvaluateFederalSkilledWorkerEligible(t *testing.T) {
	t.Parallel()

	e := New(catalog.NewStore(loadFixture(t)), nil)

	result, err := e.Evaluate(context.Background(), sampleProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fsw, ok := findProgram(result.EligiblePrograms, fswName)
	if !ok {
		t.Fatalf("expected FSW to be eligible, got %+v", result.IneligiblePrograms)
	}
	if fsw.Status != Eligible {
		t.Fatalf("expected status %q, got %q", Eligible, fsw.Status)
	}
	if len(fsw.Details) != 6 {
		t.Fatalf("expected 6 passed criteria, got %d", len(fsw.Details))
	}
	if fsw.FailedRequirements != nil {
		t.Fatalf("expected no failed requirements, got %v", fsw.FailedRequirements)
	}

	want := map[string]string{
		"work_experience":  "Meets work experience requirement (3 years)",
		"language":         "No minimum CLB required",
		"education":        "Meets education requirement",
		"age":              "Meets age requirement",
		"settlement_funds": "Meets settlement funds requirement ($15,263 CAD)",
		"job_offer":        "No job offer required",
	}
	if !reflect.DeepEqual(fsw.Details, want) {
		t.Fatalf("expected details %v, got %v", want, fsw.Details)
	}

	if result.TotalEvaluated != 3 {
		t.Fatalf("expected 3 programs evaluated, got %d", result.TotalEvaluated)
	}
	if result.Summary.EligibleCount+result.Summary.IneligibleCount != result.TotalEvaluated {
		t.Fatalf("summary does not add up: %+v", result.Summary)
	}
	if result.CatalogVersion != "2025-10-17" {
		t.Fatalf("expected catalog version, got %q", result.CatalogVersion)
	}
}

func TestEvaluateFundsFailure(t *testing.T) {
	t.Parallel()

	e := New(catalog.NewStore(loadFixture(t)), nil)

	p := sampleProfile()
	p.SettlementFundsCAD = 5000

	result, err := e.Evaluate(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fsw, ok := findProgram(result.IneligiblePrograms, fswName)
	if !ok {
		t.Fatalf("expected FSW to be ineligible")
	}

	want := map[string]string{"settlement_funds": "Need $15,263 CAD, have $5,000 CAD"}
	if !reflect.DeepEqual(fsw.FailedRequirements, want) {
		t.Fatalf("expected %v, got %v", want, fsw.FailedRequirements)
	}
	if fsw.Details != nil {
		t.Fatalf("expected no details for an ineligible program, got %v", fsw.Details)
	}
}

func TestEvaluateAllOrNothing(t *testing.T) {
	t.Parallel()

	e := New(catalog.NewStore(loadFixture(t)), nil)

	result, err := e.Evaluate(context.Background(), sampleProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := findProgram(result.EligiblePrograms, ontarioName); ok {
		t.Fatalf("program with a failing criterion listed as eligible")
	}

	ontario, ok := findProgram(result.IneligiblePrograms, ontarioName)
	if !ok {
		t.Fatalf("expected Ontario stream to be ineligible")
	}

	want := map[string]string{"job_offer": "Valid job offer required"}
	if !reflect.DeepEqual(ontario.FailedRequirements, want) {
		t.Fatalf("expected %v, got %v", want, ontario.FailedRequirements)
	}
	if len(ontario.Checks) != 6 {
		t.Fatalf("expected all 6 criteria to be checked, got %d", len(ontario.Checks))
	}

	p := sampleProfile()
	p.HasJobOffer = true
	result, err = e.Evaluate(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := findProgram(result.EligiblePrograms, ontarioName); !ok {
		t.Fatalf("expected Ontario stream to be eligible with a job offer")
	}
}

func TestEvaluateIsolatesRuleDataProblems(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	e := New(catalog.NewStore(loadFixture(t)), nil, WithLogger(zap.New(core)))

	result, err := e.Evaluate(context.Background(), sampleProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	broken, ok := findProgram(result.IneligiblePrograms, brokenName)
	if !ok {
		t.Fatalf("expected broken program to be ineligible")
	}
	if len(broken.FailedRequirements) != 2 {
		t.Fatalf("expected 2 failed criteria, got %v", broken.FailedRequirements)
	}
	for _, criterion := range []string{"age", "settlement_funds"} {
		reason := broken.FailedRequirements[criterion]
		if !strings.HasPrefix(reason, "Rule data problem: ") {
			t.Fatalf("expected data problem for %s, got %q", criterion, reason)
		}
	}
	if _, ok := findProgram(result.EligiblePrograms, fswName); !ok {
		t.Fatalf("expected the rest of the catalog to be evaluated")
	}

	entries := logs.FilterMessage("rule data problem").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(entries))
	}
	if entries[0].ContextMap()["program"] != brokenName {
		t.Fatalf("expected program field, got %v", entries[0].ContextMap())
	}
}

type panickingChecker struct{}

func (panickingChecker) Name() string { return "panicky" }

func (panickingChecker) Check(*applicant.Profile, *catalog.Rules) (criteria.Outcome, error) {
	panic("boom")
}

func (panickingChecker) Status() criteria.Status { return criteria.Status{Name: "panicky"} }

func TestEvaluateRecoversFromCheckerPanic(t *testing.T) {
	t.Parallel()

	checkers := append(criteria.Default(criteria.Options{}), panickingChecker{})
	e := New(catalog.NewStore(loadFixture(t)), checkers)

	result, err := e.Evaluate(context.Background(), sampleProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary.EligibleCount != 0 {
		t.Fatalf("expected every program to fail, got %d eligible", result.Summary.EligibleCount)
	}

	fsw, _ := findProgram(result.IneligiblePrograms, fswName)
	if got := fsw.FailedRequirements["panicky"]; got != "Rule data problem: checker panicked: boom" {
		t.Fatalf("unexpected reason %q", got)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	t.Parallel()

	c, err := catalog.LoadEmbedded()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := New(catalog.NewStore(c), nil)

	first, err := e.Evaluate(context.Background(), sampleProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 5; i++ {
		next, err := e.Evaluate(context.Background(), sampleProfile())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, next) {
			t.Fatalf("evaluation %d differs from the first", i)
		}
	}

	if first.TotalEvaluated != c.Len() {
		t.Fatalf("expected %d programs evaluated, got %d", c.Len(), first.TotalEvaluated)
	}
}

func TestWorkExperienceMonotonicity(t *testing.T) {
	t.Parallel()

	c, err := catalog.LoadEmbedded()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := New(catalog.NewStore(c), nil)

	passing := func(years float64) map[string]bool {
		p := sampleProfile()
		p.WorkExperienceYears = years
		result, err := e.Evaluate(context.Background(), p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		passed := make(map[string]bool)
		for _, list := range [][]ProgramResult{result.EligiblePrograms, result.IneligiblePrograms} {
			for _, pr := range list {
				for _, check := range pr.Checks {
					if check.Criterion == catalog.CriterionWorkExperience && check.Passed {
						passed[pr.ProgramName] = true
					}
				}
			}
		}
		return passed
	}

	years := []float64{0, 0.5, 1, 2, 3, 5, 10}
	previous := passing(years[0])
	for _, y := range years[1:] {
		current := passing(y)
		for name := range previous {
			if !current[name] {
				t.Fatalf("%s passes work experience with fewer years but not with %v", name, y)
			}
		}
		previous = current
	}
}

func TestEvaluateRejectsInvalidProfile(t *testing.T) {
	t.Parallel()

	e := New(catalog.NewStore(loadFixture(t)), nil)

	p := sampleProfile()
	p.FamilySize = 0

	_, err := e.Evaluate(context.Background(), p)
	var invalid *applicant.InvalidProfileError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidProfileError, got %v", err)
	}
	if invalid.Field != "family_size" {
		t.Fatalf("expected field %q, got %q", "family_size", invalid.Field)
	}

	if _, err := e.Evaluate(context.Background(), nil); !errors.Is(err, applicant.ErrMissingField) {
		t.Fatalf("expected missing profile error, got %v", err)
	}
}

func TestEvaluateWithoutCatalog(t *testing.T) {
	t.Parallel()

	e := New(catalog.NewStore(nil), nil)
	if _, err := e.Evaluate(context.Background(), sampleProfile()); !errors.Is(err, catalog.ErrNoCatalog) {
		t.Fatalf("expected ErrNoCatalog, got %v", err)
	}
}

func TestEvaluateHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(catalog.NewStore(loadFixture(t)), nil)
	if _, err := e.Evaluate(ctx, sampleProfile()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEvaluateUsesSwappedCatalog(t *testing.T) {
	t.Parallel()

	store := catalog.NewStore(loadFixture(t))
	e := New(store, nil)

	embedded, err := catalog.LoadEmbedded()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.Swap(embedded)

	result, err := e.Evaluate(context.Background(), sampleProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalEvaluated != embedded.Len() {
		t.Fatalf("expected %d programs, got %d", embedded.Len(), result.TotalEvaluated)
	}
}

// TestEvaluateConcurrent shares one evaluator between goroutines while the
// catalog is swapped underneath them. Run with -race.
func TestEvaluateConcurrent(t *testing.T) {
	t.Parallel()

	fixtureCatalog := loadFixture(t)
	embedded, err := catalog.LoadEmbedded()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	baseline := func(c *catalog.Catalog) *Result {
		result, err := New(catalog.NewStore(c), nil).Evaluate(context.Background(), sampleProfile())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return result
	}
	expected := []*Result{baseline(fixtureCatalog), baseline(embedded)}

	store := catalog.NewStore(fixtureCatalog)
	e := New(store, nil)

	const (
		workers = 16
		calls   = 20
	)

	stop := make(chan struct{})
	swapped := make(chan struct{})
	go func() {
		defer close(swapped)
		next := []*catalog.Catalog{embedded, fixtureCatalog}
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
				store.Swap(next[i%2])
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < calls; i++ {
				result, err := e.Evaluate(context.Background(), sampleProfile())
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if !reflect.DeepEqual(result, expected[0]) && !reflect.DeepEqual(result, expected[1]) {
					t.Errorf("result matches neither catalog: %d programs, version %q", result.TotalEvaluated, result.CatalogVersion)
					return
				}
			}
		}()
	}

	wg.Wait()
	close(stop)
	<-swapped
}

func TestResultFilter(t *testing.T) {
	t.Parallel()

	e := New(catalog.NewStore(loadFixture(t)), nil)
	result, err := e.Evaluate(context.Background(), sampleProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	federal := result.Filter(catalog.Federal, "")
	if federal.TotalEvaluated != 1 || federal.Summary.EligibleCount != 1 {
		t.Fatalf("unexpected federal result: %+v", federal.Summary)
	}

	ontario := result.Filter("", "ontario")
	if ontario.TotalEvaluated != 1 || ontario.IneligiblePrograms[0].ProgramName != ontarioName {
		t.Fatalf("unexpected province result: %+v", ontario)
	}

	if all := result.Filter("", ""); all.TotalEvaluated != result.TotalEvaluated {
		t.Fatalf("expected unfiltered result, got %d programs", all.TotalEvaluated)
	}
}

func TestResultJSONShape(t *testing.T) {
	t.Parallel()

	e := New(catalog.NewStore(loadFixture(t)), nil)
	p := sampleProfile()
	p.SettlementFundsCAD = 5000

	result, err := e.Evaluate(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	eligible, ok := decoded["eligible_programs"].([]any)
	if !ok || len(eligible) != 0 {
		t.Fatalf("expected an empty eligible list, got %v", decoded["eligible_programs"])
	}

	first := decoded["ineligible_programs"].([]any)[0].(map[string]any)
	for _, key := range []string{"program_name", "official_url", "type", "province", "last_updated", "status", "failed_requirements"} {
		if _, ok := first[key]; !ok {
			t.Fatalf("expected key %q in %v", key, first)
		}
	}
	if _, ok := first["details"]; ok {
		t.Fatalf("unexpected details key for an ineligible program")
	}
	if first["province"] != nil {
		t.Fatalf("expected null province, got %v", first["province"])
	}
}

func TestConvertLanguageScores(t *testing.T) {
	t.Parallel()

	band := func(v float64) *float64 { return &v }

	result, err := ConvertLanguageScores(normalize.IELTSScores{
		Reading:   band(7),
		Writing:   band(7),
		Listening: band(8),
		Speaking:  band(6.5),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Overall != 8 {
		t.Fatalf("expected overall CLB 8, got %d", result.Overall)
	}

	if _, err := ConvertLanguageScores(normalize.IELTSScores{}); !errors.Is(err, normalize.ErrNoScores) {
		t.Fatalf("expected ErrNoScores, got %v", err)
	}
}

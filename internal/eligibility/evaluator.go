// Package eligibility runs every criterion checker against every catalog
// program and partitions the catalog into eligible and ineligible programs.
//
// An Evaluator is shared between goroutines; its tests are meant to run with
// the race detector (go test -race).
package eligibility

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/pr-pathways/internal/applicant"
	"github.com/spigell/pr-pathways/internal/catalog"
	"github.com/spigell/pr-pathways/internal/criteria"
	"github.com/spigell/pr-pathways/internal/logger"
	"github.com/spigell/pr-pathways/internal/metrics"
	"github.com/spigell/pr-pathways/internal/normalize"
	"github.com/spigell/pr-pathways/internal/utils"
)

const (
	dataProblemPrefix = "Rule data problem: "
	logReasonLimit    = 200
)

// Source provides the catalog snapshot for an evaluation.
type Source interface {
	Load() *catalog.Catalog
}

// Evaluator is safe for concurrent use. Each call works on the snapshot it
// loaded at the start, so a concurrent reload never mixes two catalogs.
type Evaluator struct {
	source   Source
	checkers []criteria.Checker
	logger   *zap.Logger
	recorder metrics.Recorder
}

type Option func(*Evaluator)

func WithLogger(l *zap.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(e *Evaluator) {
		if r != nil {
			e.recorder = r
		}
	}
}

// New builds an evaluator. A nil checker list selects criteria.Default.
func New(source Source, checkers []criteria.Checker, opts ...Option) *Evaluator {
	if checkers == nil {
		checkers = criteria.Default(criteria.Options{})
	}

	e := &Evaluator{
		source:   source,
		checkers: checkers,
		logger:   zap.NewNop(),
		recorder: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Checkers returns the checkers in evaluation order.
func (e *Evaluator) Checkers() []criteria.Checker {
	return e.checkers
}

// Evaluate classifies every catalog program for the profile. Profile
// problems are returned as applicant errors before any program is checked;
// rule data problems never fail the call.
func (e *Evaluator) Evaluate(ctx context.Context, p *applicant.Profile) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	cat := e.source.Load()
	if cat == nil {
		return nil, catalog.ErrNoCatalog
	}

	start := time.Now()
	result := newResult(cat.Version())

	for _, program := range cat.Programs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pr := e.evaluateProgram(program, p)
		e.recorder.ObserveProgram(pr.ProgramName, string(pr.Status))
		result.add(pr)
	}

	elapsed := time.Since(start)
	e.recorder.ObserveEvaluation(elapsed, result.Summary.EligibleCount, result.Summary.IneligibleCount)
	e.logger.Info("evaluation finished",
		zap.Int("total", result.TotalEvaluated),
		zap.Int("eligible", result.Summary.EligibleCount),
		zap.Int("ineligible", result.Summary.IneligibleCount),
		zap.String("catalog_version", result.CatalogVersion),
		zap.Duration("duration", elapsed),
	)

	return result, nil
}

func (e *Evaluator) evaluateProgram(program *catalog.Program, p *applicant.Profile) ProgramResult {
	province := ""
	if program.Province != nil {
		province = *program.Province
	}
	log := logger.WithProgram(e.logger, program.Name, string(program.Kind), province)

	pr := ProgramResult{
		ProgramName: program.Name,
		OfficialURL: program.OfficialURL,
		Type:        program.Kind,
		Province:    program.Province,
		LastUpdated: program.LastUpdated,
		Status:      Eligible,
		Checks:      make([]Check, 0, len(e.checkers)),
	}

	var failed []string
	for _, checker := range e.checkers {
		outcome := e.check(checker, program, p, log)
		pr.Checks = append(pr.Checks, Check{Criterion: checker.Name(), Passed: outcome.Passed, Reason: outcome.Reason})
		if !outcome.Passed {
			pr.Status = Ineligible
			failed = append(failed, checker.Name())
		}
	}

	if pr.Status == Eligible {
		pr.Details = make(map[string]string, len(pr.Checks))
		for _, c := range pr.Checks {
			pr.Details[c.Criterion] = c.Reason
		}
	} else {
		pr.FailedRequirements = make(map[string]string, len(failed))
		for _, c := range pr.Checks {
			if !c.Passed {
				pr.FailedRequirements[c.Criterion] = c.Reason
			}
		}
	}

	log.Debug("program evaluated", zap.String("status", string(pr.Status)), zap.Strings("failed", failed))

	return pr
}

// check runs one checker, turning rule data problems and panics into a
// failing outcome for this program only.
func (e *Evaluator) check(checker criteria.Checker, program *catalog.Program, p *applicant.Profile, log *zap.Logger) (outcome criteria.Outcome) {
	name := checker.Name()

	if problem := program.Rules.Problem(name); problem != nil {
		return e.dataProblem(program, problem, log)
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = e.dataProblem(program, &catalog.DataError{
				Program:   program.Name,
				Criterion: name,
				Reason:    fmt.Sprintf("checker panicked: %v", r),
			}, log)
		}
	}()

	out, err := checker.Check(p, &program.Rules)
	if err == nil {
		return out
	}

	problem := &catalog.DataError{Program: program.Name, Criterion: name, Reason: err.Error()}
	var dataErr *catalog.DataError
	if errors.As(err, &dataErr) {
		problem.Reason = dataErr.Reason
	}
	return e.dataProblem(program, problem, log)
}

func (e *Evaluator) dataProblem(program *catalog.Program, problem *catalog.DataError, log *zap.Logger) criteria.Outcome {
	log.Warn("rule data problem",
		zap.String(logger.FieldCriterion, problem.Criterion),
		zap.String("reason", utils.TruncateForLog(problem.Reason, logReasonLimit)),
	)
	e.recorder.ObserveDataError(program.Name, problem.Criterion)

	return criteria.Outcome{Reason: dataProblemPrefix + problem.Reason}
}

// ConvertLanguageScores maps raw IELTS bands to CLB levels for callers that
// only have test results.
func ConvertLanguageScores(scores normalize.IELTSScores) (normalize.CLBResult, error) {
	return normalize.ConvertIELTS(scores)
}

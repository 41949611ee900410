package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spigell/pr-pathways/internal/applicant"
	"github.com/spigell/pr-pathways/internal/catalog"
	"github.com/spigell/pr-pathways/internal/eligibility"
	"github.com/spigell/pr-pathways/internal/logger"
	"github.com/spigell/pr-pathways/internal/normalize"
	"github.com/spigell/pr-pathways/internal/scoring"
)

type errorResponse struct {
	Error     string   `json:"error"`
	Field     string   `json:"field,omitempty"`
	Fields    []string `json:"fields,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// badRequest marks an input error that is not a profile validation error.
type badRequest struct {
	err error
}

func (e *badRequest) Error() string { return e.err.Error() }
func (e *badRequest) Unwrap() error { return e.err }

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	resp := errorResponse{Error: err.Error(), RequestID: requestIDFrom(c)}

	var (
		fiberErr *fiber.Error
		problems applicant.Problems
		invalid  *applicant.InvalidProfileError
		bad      *badRequest
	)

	switch {
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		resp.Error = fiberErr.Message
	case errors.As(err, &problems):
		status = fiber.StatusBadRequest
		for _, p := range problems {
			resp.Fields = append(resp.Fields, p.Field)
		}
		if len(resp.Fields) == 1 {
			resp.Field, resp.Fields = resp.Fields[0], nil
		}
	case errors.As(err, &invalid):
		status = fiber.StatusBadRequest
		resp.Field = invalid.Field
	case errors.As(err, &bad):
		status = fiber.StatusBadRequest
	case errors.Is(err, catalog.ErrNoCatalog):
		status = fiber.StatusServiceUnavailable
	}

	if status >= fiber.StatusInternalServerError {
		s.deps.Logger.Error("request failed", zap.String(logger.FieldRequestID, resp.RequestID), zap.Error(err))
	}

	return c.Status(status).JSON(resp)
}

func (s *Server) currentCatalog() (*catalog.Catalog, error) {
	if s.deps.Catalog == nil {
		return nil, catalog.ErrNoCatalog
	}
	cat := s.deps.Catalog.Load()
	if cat == nil {
		return nil, catalog.ErrNoCatalog
	}
	return cat, nil
}

func (s *Server) health(c *fiber.Ctx) error {
	cat, err := s.currentCatalog()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"status":          "ok",
		"programs":        cat.Len(),
		"catalog_version": cat.Version(),
		"catalog_source":  cat.Source(),
	})
}

type programSummary struct {
	ProgramName string       `json:"program_name"`
	OfficialURL string       `json:"official_url"`
	Type        catalog.Kind `json:"type"`
	Province    *string      `json:"province"`
	LastUpdated string       `json:"last_updated,omitempty"`
}

func (s *Server) listPrograms(c *fiber.Ctx) error {
	cat, err := s.currentCatalog()
	if err != nil {
		return err
	}

	kind := catalog.Kind(strings.ToLower(c.Query("type")))
	province := strings.TrimSpace(c.Query("province"))

	programs := make([]programSummary, 0, cat.Len())
	for _, p := range cat.Programs() {
		if kind != "" && p.Kind != kind {
			continue
		}
		if province != "" && (p.Province == nil || !strings.EqualFold(*p.Province, province)) {
			continue
		}
		programs = append(programs, programSummary{
			ProgramName: p.Name,
			OfficialURL: p.OfficialURL,
			Type:        p.Kind,
			Province:    p.Province,
			LastUpdated: p.LastUpdated,
		})
	}

	return c.JSON(fiber.Map{
		"catalog_version": cat.Version(),
		"programs":        programs,
	})
}

func (s *Server) decodeProfile(c *fiber.Ctx) (*applicant.Profile, error) {
	p, err := applicant.FromJSON(c.Body())
	if err == nil {
		return p, nil
	}

	var invalid *applicant.InvalidProfileError
	if errors.As(err, &invalid) {
		return nil, err
	}
	return nil, &badRequest{err: err}
}

func (s *Server) evaluate(c *fiber.Ctx) error {
	p, err := s.decodeProfile(c)
	if err != nil {
		return err
	}

	result, err := s.deps.Evaluator.Evaluate(c.UserContext(), p)
	if err != nil {
		return err
	}

	kind := catalog.Kind(strings.ToLower(c.Query("type")))
	if province := c.Query("province"); kind != "" || province != "" {
		result = result.Filter(kind, province)
	}

	return c.JSON(result)
}

func (s *Server) convertLanguage(c *fiber.Ctx) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()

	var scores normalize.IELTSScores
	if err := dec.Decode(&scores); err != nil {
		return &badRequest{err: fmt.Errorf("decoding scores: %w", err)}
	}

	result, err := eligibility.ConvertLanguageScores(scores)
	if err != nil {
		return &badRequest{err: err}
	}
	return c.JSON(result)
}

func (s *Server) score(c *fiber.Ctx) error {
	system := strings.ToLower(c.Query("system", "crs"))
	table, ok := s.deps.Tables[system]
	if !ok {
		known := make([]string, 0, len(s.deps.Tables))
		for name := range s.deps.Tables {
			known = append(known, name)
		}
		sort.Strings(known)
		return &badRequest{err: fmt.Errorf("unknown scoring system %q (known: %s)", system, strings.Join(known, ", "))}
	}

	p, err := s.decodeProfile(c)
	if err != nil {
		return err
	}

	return c.JSON(table.Score(scoring.InputsFromProfile(p, -1)))
}

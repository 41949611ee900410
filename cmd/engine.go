package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/pr-pathways/internal/applicant"
	"github.com/spigell/pr-pathways/internal/catalog"
	"github.com/spigell/pr-pathways/internal/criteria"
	"github.com/spigell/pr-pathways/internal/eligibility"
	"github.com/spigell/pr-pathways/internal/logger"
	"github.com/spigell/pr-pathways/internal/scoring"
	"github.com/spigell/pr-pathways/internal/utils"
)

const (
	formatText = "text"
	formatJSON = "json"

	logReasonLimit = 200
)

// setup returns the logger and the validated config shared by every command.
func setup() (*zap.Logger, *Config, error) {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		return l, nil, err
	}

	return l, config, nil
}

func catalogOptions(cfg *Config) []catalog.LoadOption {
	return []catalog.LoadOption{catalog.WithStrict(cfg.Catalog.Strict)}
}

func loadCatalog(cfg *Config, l *zap.Logger) (*catalog.Catalog, error) {
	var (
		c   *catalog.Catalog
		err error
	)
	if cfg.Catalog.Path != "" {
		c, err = catalog.LoadFile(cfg.Catalog.Path, catalogOptions(cfg)...)
	} else {
		c, err = catalog.LoadEmbedded(catalogOptions(cfg)...)
	}
	if err != nil {
		return nil, err
	}

	l.Info("catalog loaded",
		zap.String("source", c.Source()),
		zap.String("version", c.Version()),
		zap.Int("programs", c.Len()),
	)
	if untabulated := c.UntabulatedFunds(); len(untabulated) > 0 {
		l.Warn("programs require settlement funds but tabulate no amounts; they are always ineligible",
			zap.Strings("programs", untabulated),
		)
	}
	for _, d := range c.Diagnostics() {
		l.Warn("malformed rule data",
			zap.String(logger.FieldProgram, d.Program),
			zap.String(logger.FieldCriterion, d.Criterion),
			zap.String("reason", utils.TruncateForLog(d.Reason, logReasonLimit)),
		)
	}

	return c, nil
}

func newCheckers(cfg *Config) []criteria.Checker {
	// Validate already rejected unknown policies.
	policy, _ := criteria.ParseEducationPolicy(cfg.Evaluation.EducationPolicy)
	return criteria.Default(criteria.Options{EducationPolicy: policy})
}

func newEvaluator(cfg *Config, source eligibility.Source, l *zap.Logger, opts ...eligibility.Option) *eligibility.Evaluator {
	return eligibility.New(source, newCheckers(cfg), append([]eligibility.Option{eligibility.WithLogger(l)}, opts...)...)
}

// loadTables returns the point tables keyed by system name.
func loadTables(cfg *Config) (map[string]*scoring.Table, error) {
	load := func(path string, fallback func() (*scoring.Table, error)) (*scoring.Table, error) {
		if path == "" {
			return fallback()
		}
		return scoring.LoadTableFile(path)
	}

	crs, err := load(cfg.Scoring.Table, scoring.DefaultCRS)
	if err != nil {
		return nil, fmt.Errorf("loading CRS table: %w", err)
	}
	fsw, err := load(cfg.Scoring.FSWTable, scoring.DefaultFSW)
	if err != nil {
		return nil, fmt.Errorf("loading FSW table: %w", err)
	}

	return map[string]*scoring.Table{crs.Name: crs, fsw.Name: fsw}, nil
}

// readProfile decodes a profile from a file, or stdin for "-".
func readProfile(path string, stdin io.Reader) (*applicant.Profile, error) {
	if path == "-" {
		return applicant.Decode(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening profile: %w", err)
	}
	defer f.Close()

	return applicant.Decode(f)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func checkFormat(format string) error {
	if format != formatText && format != formatJSON {
		return fmt.Errorf("unknown output format %q (want %s or %s)", format, formatText, formatJSON)
	}
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/pr-pathways/internal/applicant"
	"github.com/spigell/pr-pathways/internal/catalog"
	"github.com/spigell/pr-pathways/internal/eligibility"
	"github.com/spigell/pr-pathways/internal/scoring"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate an applicant profile against every program in the catalog",
	Example: `  pr-pathways evaluate --profile profile.json
  cat profile.json | pr-pathways evaluate --profile - --format json
  pr-pathways evaluate --interactive --type provincial --score`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return evaluate(cmd)
	},
}

type evaluateOptions struct {
	Kind     catalog.Kind
	Province string
	Format   string
	Score    bool
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringP("profile", "p", "", "applicant profile json file, - for stdin")
	evaluateCmd.Flags().BoolP("interactive", "i", false, "ask for the profile fields interactively")
	evaluateCmd.Flags().String("type", "", "only report programs of this type: federal, provincial, territorial or quebec")
	evaluateCmd.Flags().String("province", "", "only report programs of this province")
	evaluateCmd.Flags().StringP("format", "o", formatText, "output format: text or json")
	evaluateCmd.Flags().Bool("score", false, "add CRS and FSW point estimates")
}

func evaluate(cmd *cobra.Command) error {
	l, cfg, err := setup()
	if err != nil {
		return err
	}
	defer l.Sync()

	flags := cmd.Flags()
	path, _ := flags.GetString("profile")
	interactive, _ := flags.GetBool("interactive")
	kind, _ := flags.GetString("type")
	opts := evaluateOptions{Kind: catalog.Kind(strings.ToLower(kind))}
	opts.Province, _ = flags.GetString("province")
	opts.Format, _ = flags.GetString("format")
	opts.Score, _ = flags.GetBool("score")

	if err := checkFormat(opts.Format); err != nil {
		return err
	}

	var p *applicant.Profile
	switch {
	case interactive:
		p, err = promptProfile()
	case path != "":
		p, err = readProfile(path, cmd.InOrStdin())
	default:
		return errors.New("either --profile or --interactive is required")
	}
	if err != nil {
		return err
	}

	return evaluateProfile(cmd.Context(), cmd.OutOrStdout(), cfg, l, p, opts)
}

func evaluateProfile(ctx context.Context, w io.Writer, cfg *Config, l *zap.Logger, p *applicant.Profile, opts evaluateOptions) error {
	cat, err := loadCatalog(cfg, l)
	if err != nil {
		return err
	}

	result, err := newEvaluator(cfg, catalog.NewStore(cat), l).Evaluate(ctx, p)
	if err != nil {
		return err
	}
	if opts.Kind != "" || opts.Province != "" {
		result = result.Filter(opts.Kind, opts.Province)
	}

	var scores []scoring.Score
	if opts.Score {
		tables, err := loadTables(cfg)
		if err != nil {
			return err
		}
		scores = scoreAll(tables, scoring.InputsFromProfile(p, -1))
	}

	if opts.Format == formatJSON {
		if !opts.Score {
			return writeJSON(w, result)
		}
		return writeJSON(w, struct {
			Eligibility *eligibility.Result `json:"eligibility"`
			Scores      []scoring.Score     `json:"scores"`
		}{result, scores})
	}

	printResult(w, result)
	for _, s := range scores {
		fmt.Fprintln(w)
		printScore(w, s)
	}
	return nil
}

func scoreAll(tables map[string]*scoring.Table, in scoring.Inputs) []scoring.Score {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	scores := make([]scoring.Score, 0, len(names))
	for _, name := range names {
		scores = append(scores, tables[name].Score(in))
	}
	return scores
}

func printResult(w io.Writer, result *eligibility.Result) {
	fmt.Fprintf(w, "Catalog version: %s\n", result.CatalogVersion)
	fmt.Fprintf(w, "Programs evaluated: %d\n", result.TotalEvaluated)
	fmt.Fprintf(w, "Eligible programs: %d\n", result.Summary.EligibleCount)
	fmt.Fprintf(w, "Ineligible programs: %d\n", result.Summary.IneligibleCount)

	if len(result.EligiblePrograms) > 0 {
		fmt.Fprintln(w, "\nELIGIBLE PROGRAMS")
		for _, pr := range result.EligiblePrograms {
			printProgramHeader(w, "✓", pr)
			for _, c := range pr.Checks {
				fmt.Fprintf(w, "    %s: %s\n", c.Criterion, c.Reason)
			}
		}
	}

	if len(result.IneligiblePrograms) > 0 {
		fmt.Fprintln(w, "\nINELIGIBLE PROGRAMS")
		for _, pr := range result.IneligiblePrograms {
			printProgramHeader(w, "✗", pr)
			for _, c := range pr.Checks {
				if !c.Passed {
					fmt.Fprintf(w, "    - %s: %s\n", c.Criterion, c.Reason)
				}
			}
		}
	}
}

func printProgramHeader(w io.Writer, mark string, pr eligibility.ProgramResult) {
	fmt.Fprintf(w, "\n%s %s\n", mark, pr.ProgramName)
	if pr.Province != nil {
		fmt.Fprintf(w, "  Type: %s (%s)\n", pr.Type, *pr.Province)
	} else {
		fmt.Fprintf(w, "  Type: %s\n", pr.Type)
	}
	fmt.Fprintf(w, "  URL: %s\n", pr.OfficialURL)
}

func printScore(w io.Writer, s scoring.Score) {
	fmt.Fprintf(w, "%s: %d / %d\n", s.Label, s.Total, s.Max)
	for _, f := range s.Breakdown {
		fmt.Fprintf(w, "    %s (%s): %d\n", f.Name, f.Value, f.Points)
	}
	if s.MeetsPassMark != nil {
		verdict := "below"
		if *s.MeetsPassMark {
			verdict = "meets"
		}
		fmt.Fprintf(w, "  Pass mark %d: %s\n", *s.PassMark, verdict)
	}
}

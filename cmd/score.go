package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/pr-pathways/internal/applicant"
	"github.com/spigell/pr-pathways/internal/scoring"
)

const systemAll = "all"

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Estimate CRS and FSW selection points for a profile",
	Long: `Estimate ranking points for a profile. Points never affect eligibility;
they help to compare the profile with recent draw cut-offs.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		l, cfg, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		flags := cmd.Flags()
		path, _ := flags.GetString("profile")
		system, _ := flags.GetString("system")
		canadianYears, _ := flags.GetInt("canadian-years")
		format, _ := flags.GetString("format")

		if err := checkFormat(format); err != nil {
			return err
		}
		if path == "" {
			return fmt.Errorf("--profile is required")
		}

		p, err := readProfile(path, cmd.InOrStdin())
		if err != nil {
			return err
		}

		tables, err := loadTables(cfg)
		if err != nil {
			return err
		}

		return scoreProfile(cmd.OutOrStdout(), tables, p, strings.ToLower(system), canadianYears, format)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringP("profile", "p", "", "applicant profile json file, - for stdin")
	scoreCmd.Flags().StringP("system", "s", systemAll, "point system: crs, fsw or all")
	scoreCmd.Flags().Int("canadian-years", -1, "completed years of Canadian work experience (default: 1 when the profile has any)")
	scoreCmd.Flags().StringP("format", "o", formatText, "output format: text or json")
}

func scoreProfile(w io.Writer, tables map[string]*scoring.Table, p *applicant.Profile, system string, canadianYears int, format string) error {
	selected := tables
	if system != systemAll {
		table, ok := tables[system]
		if !ok {
			known := make([]string, 0, len(tables))
			for name := range tables {
				known = append(known, name)
			}
			sort.Strings(known)
			return fmt.Errorf("unknown point system %q (known: %s, %s)", system, strings.Join(known, ", "), systemAll)
		}
		selected = map[string]*scoring.Table{system: table}
	}

	scores := scoreAll(selected, scoring.InputsFromProfile(p, canadianYears))

	if format == formatJSON {
		return writeJSON(w, scores)
	}
	for i, s := range scores {
		if i > 0 {
			fmt.Fprintln(w)
		}
		printScore(w, s)
	}
	return nil
}

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spigell/pr-pathways/internal/eligibility"
	"github.com/spigell/pr-pathways/internal/normalize"
)

var convertCmd = &cobra.Command{
	Use:     "convert-language",
	Aliases: []string{"clb"},
	Short:   "Convert IELTS General Training band scores to CLB levels",
	Example: "  pr-pathways convert-language --reading 7 --writing 6.5 --listening 8 --speaking 7",
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		format, _ := flags.GetString("format")
		if err := checkFormat(format); err != nil {
			return err
		}

		var scores normalize.IELTSScores
		for name, dst := range map[string]**float64{
			string(normalize.Reading):   &scores.Reading,
			string(normalize.Writing):   &scores.Writing,
			string(normalize.Listening): &scores.Listening,
			string(normalize.Speaking):  &scores.Speaking,
		} {
			if !flags.Changed(name) {
				continue
			}
			v, err := flags.GetFloat64(name)
			if err != nil {
				return err
			}
			*dst = &v
		}

		return convertLanguage(cmd.OutOrStdout(), scores, format)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().Float64("reading", 0, "IELTS reading band")
	convertCmd.Flags().Float64("writing", 0, "IELTS writing band")
	convertCmd.Flags().Float64("listening", 0, "IELTS listening band")
	convertCmd.Flags().Float64("speaking", 0, "IELTS speaking band")
	convertCmd.Flags().StringP("format", "o", formatText, "output format: text or json")
}

func convertLanguage(w io.Writer, scores normalize.IELTSScores, format string) error {
	result, err := eligibility.ConvertLanguageScores(scores)
	if err != nil {
		return err
	}

	if format == formatJSON {
		return writeJSON(w, result)
	}

	for _, skill := range []struct {
		name  normalize.Skill
		level *int
	}{
		{normalize.Reading, result.Reading},
		{normalize.Writing, result.Writing},
		{normalize.Listening, result.Listening},
		{normalize.Speaking, result.Speaking},
	} {
		if skill.level != nil {
			fmt.Fprintf(w, "%-10s CLB %d\n", skill.name+":", *skill.level)
		}
	}
	fmt.Fprintf(w, "Overall:   CLB %d (lowest ability)\n", result.Overall)
	return nil
}

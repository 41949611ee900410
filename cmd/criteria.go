package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/spigell/pr-pathways/internal/criteria"
)

var criteriaCmd = &cobra.Command{
	Use:   "criteria",
	Short: "List the eligibility criteria in evaluation order",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, cfg, err := setup()
		if err != nil {
			return err
		}

		describeCriteria(cmd.OutOrStdout(), criteria.Describe(newCheckers(cfg)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(criteriaCmd)
}

func describeCriteria(w io.Writer, statuses []criteria.Status) {
	for i, s := range statuses {
		fmt.Fprintf(w, "%d. %s: %s\n", i+1, s.Name, s.Description)

		keys := make([]string, 0, len(s.Details))
		for k := range s.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "   %s: %s\n", k, s.Details[k])
		}
	}
}

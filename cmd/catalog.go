package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/spigell/pr-pathways/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect, validate and export the program catalog",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Load a catalog and report malformed rule data",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, cfg, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		if len(args) == 1 {
			cfg.Catalog.Path = args[0]
		}
		strict, _ := cmd.Flags().GetBool("strict")
		cfg.Catalog.Strict = cfg.Catalog.Strict || strict

		c, err := loadCatalog(cfg, l)
		if err != nil {
			return err
		}
		return reportCatalog(cmd.OutOrStdout(), c)
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog programs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		l, cfg, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		c, err := loadCatalog(cfg, l)
		if err != nil {
			return err
		}

		kind, _ := cmd.Flags().GetString("type")
		province, _ := cmd.Flags().GetString("province")
		listPrograms(cmd.OutOrStdout(), c, catalog.Kind(strings.ToLower(kind)), province)
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show [program name]",
	Short: "Print the rules of one program; without a name a picker is shown",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, cfg, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		c, err := loadCatalog(cfg, l)
		if err != nil {
			return err
		}

		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			picker := promptui.Select{
				Label:             "Choose a program and press ENTER",
				Items:             programNames(c),
				Size:              15,
				StartInSearchMode: true,
				Searcher: func(input string, index int) bool {
					return strings.Contains(strings.ToLower(c.Programs()[index].Name), strings.ToLower(input))
				},
			}
			if _, name, err = picker.Run(); err != nil {
				return err
			}
		}

		return showProgram(cmd.OutOrStdout(), c, name)
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the catalog as json or yaml",
	Long:  "Write the catalog as json or yaml. Records are written as loaded, including fields the engine does not use.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		l, cfg, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		format, _ := cmd.Flags().GetString("format")
		f := catalog.Format(strings.ToLower(format))
		if f != catalog.FormatJSON && f != catalog.FormatYAML {
			return fmt.Errorf("unknown catalog format %q (want json or yaml)", format)
		}

		c, err := loadCatalog(cfg, l)
		if err != nil {
			return err
		}
		return c.Encode(cmd.OutOrStdout(), f)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogValidateCmd, catalogListCmd, catalogShowCmd, catalogExportCmd)

	catalogValidateCmd.Flags().Bool("strict", false, "fail on malformed rule data")
	catalogListCmd.Flags().String("type", "", "only list programs of this type")
	catalogListCmd.Flags().String("province", "", "only list programs of this province")
	catalogExportCmd.Flags().StringP("format", "o", string(catalog.FormatJSON), "output format: json or yaml")
}

func programNames(c *catalog.Catalog) []string {
	programs := c.Programs()
	names := make([]string, 0, len(programs))
	for _, p := range programs {
		names = append(names, p.Name)
	}
	return names
}

func reportCatalog(w io.Writer, c *catalog.Catalog) error {
	fmt.Fprintf(w, "Source: %s\n", c.Source())
	fmt.Fprintf(w, "Version: %s\n", c.Version())
	fmt.Fprintf(w, "Programs: %d\n", c.Len())

	diagnostics := c.Diagnostics()
	if len(diagnostics) == 0 {
		fmt.Fprintln(w, "Rule data: ok")
	} else {
		fmt.Fprintf(w, "Rule data problems: %d\n", len(diagnostics))
		for _, d := range diagnostics {
			fmt.Fprintf(w, "  - %s / %s: %s\n", d.Program, d.Criterion, d.Reason)
		}
	}

	if untabulated := c.UntabulatedFunds(); len(untabulated) > 0 {
		fmt.Fprintf(w, "Settlement funds required without amounts: %d (never reported eligible until table_cad is filled in)\n", len(untabulated))
		for _, name := range untabulated {
			fmt.Fprintf(w, "  - %s\n", name)
		}
	}
	return nil
}

func listPrograms(w io.Writer, c *catalog.Catalog, kind catalog.Kind, province string) {
	for _, p := range c.Programs() {
		if kind != "" && p.Kind != kind {
			continue
		}
		if province != "" && (p.Province == nil || !strings.EqualFold(*p.Province, province)) {
			continue
		}

		where := string(p.Kind)
		if p.Province != nil {
			where += ", " + *p.Province
		}
		fmt.Fprintf(w, "%s [%s]\n", p.Name, where)
	}
}

func showProgram(w io.Writer, c *catalog.Catalog, name string) error {
	p, ok := c.Find(name)
	if !ok {
		return fmt.Errorf("program %q not found in catalog %s", name, c.Version())
	}
	return writeJSON(w, p.Raw())
}

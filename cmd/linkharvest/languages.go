package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"linkharvest/pkg/language"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the languages accepted by --language",
	Long: `List the language display names and the codes sent to the search engine.

Entries of the table file set by search.language_table are added to the
built-in list and replace built-in entries of the same name.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		table, err := language.Load(cfg.Search.LanguageTable)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCODE")
		for _, l := range table.Languages() {
			fmt.Fprintf(w, "%s\t%s\n", l.Name, l.Code)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}

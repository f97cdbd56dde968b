package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"linkharvest/pkg/sources"
)

var (
	urlsWebOnly bool
	urlsUnique  bool
)

var urlsCmd = &cobra.Command{
	Use:   "urls [file|-]",
	Short: "Print the URIs found in a text",
	Long: `Scan a text file, or stdin when the argument is '-' or missing, and print
every absolute URI in it, one per line and in order of appearance.`,
	Example: `  # URIs of a saved page
  linkharvest urls page.html

  # Only web links, without duplicates
  curl -s https://example.com | linkharvest urls --web --unique`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}

		found, err := sources.ReadFile(path)
		if err != nil {
			return err
		}
		if urlsWebOnly {
			found = sources.WebOnly(found)
		}
		if urlsUnique {
			found = sources.Unique(found)
		}

		out := cmd.OutOrStdout()
		for _, u := range found {
			fmt.Fprintln(out, u)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(urlsCmd)

	urlsCmd.Flags().BoolVar(&urlsWebOnly, "web", false, "only print http and https links")
	urlsCmd.Flags().BoolVar(&urlsUnique, "unique", false, "drop repeated URIs")
}

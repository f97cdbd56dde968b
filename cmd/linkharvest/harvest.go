package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"linkharvest/pkg/browser"
	"linkharvest/pkg/config"
	"linkharvest/pkg/harvester"
	"linkharvest/pkg/logger"
	"linkharvest/pkg/models"
	"linkharvest/pkg/ratelimit"
	"linkharvest/pkg/scraper"
	"linkharvest/pkg/ui"
)

var (
	harvestMax      int
	harvestLanguage string
	harvestJSON     bool
)

var harvestCmd = &cobra.Command{
	Use:   "harvest <query>...",
	Short: "Print the result links of search queries",
	Long: `Run each query against the search engine and print up to --max unique result
links in the order they were found. Every argument is a separate query, so
quote queries that contain spaces.

Links of the search engine itself are left out. A query that fails is
reported and the remaining queries still run.`,
	Example: `  # First five results of a site search
  linkharvest harvest "site:example.com test" --max 5

  # Two queries restricted to German pages, as JSON lines
  linkharvest harvest "jahresbericht" "geschäftsbericht" --language German --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHarvest,
}

func init() {
	rootCmd.AddCommand(harvestCmd)

	harvestCmd.Flags().IntVarP(&harvestMax, "max", "m", 200, "maximum number of links per query")
	harvestCmd.Flags().StringVarP(&harvestLanguage, "language", "l", "", "restrict results to a language (see 'linkharvest languages')")
	harvestCmd.Flags().BoolVar(&harvestJSON, "json", false, "print one JSON object per query")
}

func runHarvest(cmd *cobra.Command, args []string) error {
	// stdout carries the links only
	ui.Out = os.Stderr

	flags := make(map[string]interface{})
	if cmd.Flags().Changed("max") {
		flags["max"] = harvestMax
	}
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	code, err := scraper.ResolveLanguage(cfg, harvestLanguage)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	log := logger.GetLogger()
	h := harvester.New(newSession(cfg, log), scraper.HarvesterOptions(cfg, log))

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	failures, err := h.HarvestAll(ctx, args, cfg.Harvest.MaxResults, code, func(r models.QueryResult) {
		if harvestJSON {
			if err := enc.Encode(r); err != nil {
				log.WithError(err).Warn("Failed to encode result")
			}
			return
		}
		if len(args) > 1 {
			fmt.Fprintf(out, "# %s\n", r.Query.Text)
		}
		for _, u := range r.URLs {
			fmt.Fprintln(out, u)
		}
	})
	for _, f := range failures {
		ui.PrintWarning("Query failed", fmt.Sprintf("%s: %v", f.Query.Text, f.Err))
	}
	if err != nil {
		return err
	}
	if len(failures) > 0 && len(failures) == countQueries(args) {
		return fmt.Errorf("all %d queries failed", len(failures))
	}
	return nil
}

func newSession(cfg *config.Config, log logger.Logger) *browser.HTTPSession {
	return browser.NewHTTPSession(
		browser.WithUserAgent(cfg.Search.UserAgent),
		browser.WithNavigationTimeout(cfg.Harvest.NavigationTimeout),
		browser.WithLimiter(sessionLimiter(cfg)),
		browser.WithRedirectUnwrapping(cfg.Search.UnwrapRedirects),
		browser.WithLogger(log),
	)
}

// sessionLimiter throttles result-page loads, in bursts when a burst size
// is configured and per minute otherwise
func sessionLimiter(cfg *config.Config) ratelimit.Limiter {
	if cfg.Harvest.BurstSize > 0 {
		return ratelimit.Burst(cfg.Harvest.BurstSize, cfg.Harvest.BurstPeriod)
	}
	return ratelimit.PerMinute(cfg.Harvest.RequestsPerMinute)
}

func countQueries(args []string) int {
	n := 0
	for _, a := range args {
		if strings.TrimSpace(a) != "" {
			n++
		}
	}
	return n
}

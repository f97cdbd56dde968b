package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"linkharvest/pkg/config"
	errs "linkharvest/pkg/errors"
	"linkharvest/pkg/logger"
	"linkharvest/pkg/metadata"
	"linkharvest/pkg/scraper"
	"linkharvest/pkg/sources"
	"linkharvest/pkg/ui"
	"linkharvest/pkg/ui/tui"
)

var (
	downloadMax          int
	downloadLanguage     string
	outputDir            string
	concurrent           int
	downloadTimeout      time.Duration
	queryPrefix          string
	explicitURLs         bool
	fromFile             string
	feedURL              string
	resumeDownload       bool
	forceRestart         bool
	useTUI               bool
	writeManifest        bool
	notificationsEnabled bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <query>...",
	Short: "Harvest result links and download the files behind them",
	Long: `Harvest every query with the configured prefix (filetype:pdf by default) and
download the results into the output directory.

Files are named after the last segment of their URL. When several links map
to the same name, the first one saved keeps it and identical names from the
same batch are folded into it.

Links can also come from elsewhere:
  --urls        the arguments are the links to download
  --from-file   links found in a text file, '-' reads stdin
  --feed        item links of an RSS or Atom feed

Query downloads keep a checkpoint. If a batch is interrupted, run the same
command with --resume to fetch only what is missing, or --force-restart to
harvest again.`,
	Example: `  # Download up to 50 PDFs about a topic
  linkharvest download "site:example.com annual report" --max 50 --output ./reports

  # Resume an interrupted batch
  linkharvest download "annual report" --resume

  # Download an explicit list with the full screen dashboard
  linkharvest download --urls https://example.com/a.pdf https://example.com/b.pdf --tui

  # Download the links mentioned in a text file
  linkharvest download --from-file notes.txt`,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	f := downloadCmd.Flags()
	f.IntVarP(&downloadMax, "max", "m", 200, "maximum number of links per query")
	f.StringVarP(&downloadLanguage, "language", "l", "", "restrict results to a language (see 'linkharvest languages')")
	f.StringVarP(&outputDir, "output", "o", "", "output directory (default: current directory)")
	f.IntVar(&concurrent, "concurrent", 64, "number of concurrent downloads")
	f.DurationVar(&downloadTimeout, "download-timeout", 2*time.Minute, "timeout of a single download")
	f.StringVar(&queryPrefix, "query-prefix", "filetype:pdf", "operator prepended to every query")
	f.BoolVar(&explicitURLs, "urls", false, "treat the arguments as links to download")
	f.StringVar(&fromFile, "from-file", "", "download the links found in a text file ('-' for stdin)")
	f.StringVar(&feedURL, "feed", "", "download the item links of an RSS or Atom feed")
	f.BoolVar(&resumeDownload, "resume", false, "resume from the last checkpoint")
	f.BoolVar(&forceRestart, "force-restart", false, "ignore an existing checkpoint and harvest again")
	f.BoolVar(&useTUI, "tui", false, "show the full screen dashboard")
	f.BoolVar(&writeManifest, "manifest", false, "write "+metadata.FileName+" into the output directory")
	f.BoolVar(&notificationsEnabled, "notifications", false, "announce the end of the batch")

	downloadCmd.MarkFlagsMutuallyExclusive("resume", "force-restart")
}

func downloadFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := cmd.Flags().Changed
	if changed("max") {
		flags["max"] = downloadMax
	}
	if changed("output") {
		flags["output"] = outputDir
	}
	if changed("concurrent") {
		flags["concurrent"] = concurrent
	}
	if changed("download-timeout") {
		flags["download-timeout"] = downloadTimeout
	}
	if changed("query-prefix") {
		flags["query-prefix"] = queryPrefix
	}
	if changed("manifest") {
		flags["manifest"] = writeManifest
	}
	if changed("notifications") {
		flags["notifications"] = notificationsEnabled
	}
	return flags
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(downloadFlags(cmd))
	if err != nil {
		return err
	}
	if useTUI && cfg.Logging.File == "" {
		// log lines would draw over the dashboard
		logger.SetLogger(logger.NewNopLogger())
	}
	log := logger.GetLogger()

	ctx, stop := signalContext()
	defer stop()

	interactive := ui.IsTerminal(os.Stdout)
	s, err := scraper.New(scraper.Options{
		Config:  cfg,
		Session: newSession(cfg, log),
		Logger:  log,
		Dashboard: func(label string, total int) ui.Dashboard {
			if useTUI {
				return tui.NewTUI(label, total)
			}
			return ui.NewProgressDisplay(label, total, interactive)
		},
	})
	if err != nil {
		return err
	}

	if interactive && !useTUI {
		ui.PrintBanner()
		ui.PrintInfo("Output", cfg.Download.OutputDirectory)
	}

	var report *scraper.Report
	if explicitURLs || fromFile != "" || feedURL != "" {
		label, urls, err := collectURLs(ctx, cfg, args)
		if err != nil {
			return err
		}
		log.WithField("source", label).InfoWithFields("Downloading explicit links", map[string]interface{}{"urls": len(urls)})
		report, err = s.DownloadURLs(ctx, label, urls)
		printReport(report)
		return err
	}

	if len(args) == 0 {
		return errs.Newf(errs.ErrorTypeConfiguration, "download", "no query given, pass queries or one of --urls, --from-file, --feed")
	}
	report, err = s.DownloadQueries(ctx, scraper.Request{
		Queries:      args,
		Language:     downloadLanguage,
		Resume:       resumeDownload,
		ForceRestart: forceRestart,
	})
	printReport(report)
	if errors.Is(err, scraper.ErrCheckpointExists) {
		fmt.Fprintf(ui.Out, "\n%s A previous download of this query was not finished\n", ui.Yellow("►"))
		fmt.Fprintf(ui.Out, "  Use: %s to continue where you left off\n", ui.Green("--resume"))
		fmt.Fprintf(ui.Out, "  Use: %s to start fresh\n\n", ui.Yellow("--force-restart"))
	}
	return err
}

// collectURLs gathers the links given by --urls, --from-file and --feed and
// returns them with a label naming their source
func collectURLs(ctx context.Context, cfg *config.Config, args []string) (string, []string, error) {
	var (
		label string
		urls  []string
	)
	if explicitURLs {
		label = "urls"
		urls = append(urls, args...)
	}
	if fromFile != "" {
		found, err := sources.ReadFile(fromFile)
		if err != nil {
			return "", nil, err
		}
		label = fromFile
		urls = append(urls, sources.WebOnly(found)...)
	}
	if feedURL != "" {
		reader := sources.NewFeedReader(nil, cfg.Search.UserAgent, cfg.Download.DownloadTimeout)
		found, err := reader.Links(ctx, feedURL)
		if err != nil {
			return "", nil, err
		}
		label = feedURL
		urls = append(urls, found...)
	}

	urls = sources.Unique(urls)
	if len(urls) == 0 {
		return "", nil, errs.Newf(errs.ErrorTypeConfiguration, "download", "no links found")
	}
	return label, urls, nil
}

// maxListedFailures bounds the failed downloads listed after a batch
const maxListedFailures = 10

func printReport(report *scraper.Report) {
	if report == nil {
		return
	}
	for _, f := range report.Failures {
		ui.PrintWarning("Query failed", fmt.Sprintf("%s: %v", f.Query.Text, f.Err))
	}

	failed := 0
	for _, b := range report.Batches {
		if b.Skipped > 0 {
			ui.PrintInfo("Resumed "+b.Label, fmt.Sprintf("%d files saved earlier", b.Skipped))
		}
		if b.Batch == nil {
			continue
		}
		for _, o := range b.Batch.Outcomes {
			if o.OK() {
				continue
			}
			failed++
			if failed <= maxListedFailures {
				ui.PrintError("  "+o.URL(), o.Failure.Err)
			}
		}
	}
	if failed > maxListedFailures {
		ui.PrintWarning(fmt.Sprintf("  ... and %d more failed downloads", failed-maxListedFailures))
	}
	if report.Manifest != "" {
		ui.PrintInfo("Manifest", report.Manifest)
	}
}

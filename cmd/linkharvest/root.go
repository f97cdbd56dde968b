package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"linkharvest/pkg/config"
	errs "linkharvest/pkg/errors"
	"linkharvest/pkg/logger"
	"linkharvest/pkg/scraper"
	"linkharvest/pkg/ui"
)

var (
	// Version information, set at build time
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "linkharvest",
	Short: "Harvest search result links and save the files behind them",
	Long: `linkharvest drives a search engine result page, collects the result links
and downloads the documents they point to.

Features:
  - Paginated harvesting with a bounded retry budget
  - Language restricted searches
  - Concurrent downloads with collision free file names
  - Resume of interrupted batches
  - Manifests of every saved file
  - Plain progress output or a full screen dashboard`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Version = version
		ui.SetColor(!noColor && ui.IsTerminal(os.Stdout))
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.Out = os.Stderr
		ui.PrintError("Error", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.linkharvest.yaml or ~/.config/linkharvest/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")

	rootCmd.SetVersionTemplate(`linkharvest {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the layered configuration with the command's flag
// overrides and initialises the global logger from it
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	switch {
	case quiet:
		flags["log-level"] = "error"
	case verbose:
		flags["log-level"] = "debug"
	case logLevel != "":
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeConfiguration, "load config", err)
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, errs.New(errs.ErrorTypeConfiguration, "init logger", err)
	}
	return cfg, nil
}

// signalContext is cancelled on interrupt so running batches stop cleanly
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func exitCode(err error) int {
	switch {
	case errs.IsConfiguration(err), errors.Is(err, scraper.ErrCheckpointExists):
		return 2
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

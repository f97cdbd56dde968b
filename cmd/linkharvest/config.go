package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"linkharvest/pkg/config"
	errs "linkharvest/pkg/errors"
	"linkharvest/pkg/language"
	"linkharvest/pkg/ui"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage linkharvest configuration files.

Configuration is read from, in order of priority:
  - Command line flags
  - Environment variables (LINKHARVEST_*)
  - .env files (./.env and ~/.linkharvest.env)
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Long: `Write a configuration file holding every setting with its default value.

The file is created as '.linkharvest.yaml' in the current directory unless
another path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from every source and check it.

Besides value ranges this checks that the output directory and the log
file directory can be created and that the language table can be read.`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".linkharvest.yaml"
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		return errs.Newf(errs.ErrorTypeConfiguration, "config init", "%s already exists, use --force to overwrite it", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return errs.New(errs.ErrorTypeFilesystem, "config init", err).WithURL(path)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Fprintln(ui.Out, "\nNext steps:")
	fmt.Fprintln(ui.Out, "1. Edit the file to change the search engine or download settings")
	fmt.Fprintln(ui.Out, "2. Run 'linkharvest config validate' to check it")
	fmt.Fprintln(ui.Out, "3. Start with 'linkharvest download <query>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(ui.Out)
	fmt.Fprint(cmd.OutOrStdout(), string(data))

	fmt.Fprintln(ui.Out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(ui.Out, "1. Command line flags")
	fmt.Fprintln(ui.Out, "2. Environment variables (LINKHARVEST_*)")
	fmt.Fprintln(ui.Out, "3. .env files")
	if configFile != "" {
		fmt.Fprintf(ui.Out, "4. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(ui.Out, "4. Configuration file: (searched in default locations)")
	}
	fmt.Fprintln(ui.Out, "5. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	var problems, warnings []string

	if err := os.MkdirAll(cfg.Download.OutputDirectory, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("cannot create output directory: %v", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}
	if _, err := language.Load(cfg.Search.LanguageTable); err != nil {
		problems = append(problems, fmt.Sprintf("language table: %v", err))
	}

	if cfg.Harvest.UnproductiveBudget == 0 {
		warnings = append(warnings, "unproductive_budget is 0, harvesting only stops on max results or failed pagination")
	}
	if cfg.Download.ConcurrentDownloads > 128 {
		warnings = append(warnings, "more than 128 concurrent downloads may trip server limits")
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Fprintf(ui.Out, "  - %s\n", p)
		}
		return errs.Newf(errs.ErrorTypeConfiguration, "config validate", "%d problems found", len(problems))
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Fprintf(ui.Out, "  - %s\n", w)
		}
		fmt.Fprintln(ui.Out)
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Fprintln(ui.Out, "\nConfiguration summary:")
	fmt.Fprintf(ui.Out, "  Search engine: %s\n", cfg.Search.BaseURL)
	fmt.Fprintf(ui.Out, "  Max results: %d\n", cfg.Harvest.MaxResults)
	fmt.Fprintf(ui.Out, "  Output directory: %s\n", cfg.Download.OutputDirectory)
	fmt.Fprintf(ui.Out, "  Concurrent downloads: %d\n", cfg.Download.ConcurrentDownloads)
	fmt.Fprintf(ui.Out, "  Query prefix: %q\n", cfg.Download.QueryPrefix)
	fmt.Fprintf(ui.Out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}

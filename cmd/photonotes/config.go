package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"photonotes/pkg/config"
	"photonotes/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage photonotes configuration files.

Configuration is loaded from (highest priority first):
  - Command line flags
  - Environment variables (PHOTONOTES_* and the bare API_KEY,
    API_SECRET, DB_PATH)
  - .env files (never overriding real environment variables)
  - Configuration file
  - Default values`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as '.photonotes.yaml' in the current directory
unless a different path is given with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration as the other commands would see it, merged
from all sources.

The API secret and key are masked.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Check the merged configuration for missing required settings,
invalid values and unusable paths, and report everything found.`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

// exampleConfig is the annotated starting configuration written by
// 'config init'.
const exampleConfig = `# photonotes configuration file
#
# Every option can also be set through environment variables prefixed
# with PHOTONOTES_, for example PHOTONOTES_API_KEY or PHOTONOTES_DB_PATH.
# The bare names API_KEY, API_SECRET and DB_PATH work too, as does a
# .env file in the working directory or home directory.

# Flickr API access
flickr:
  # API key and secret (required)
  # Request them at https://www.flickr.com/services/apps/create/
  api_key: "YOUR_API_KEY"
  api_secret: "YOUR_API_SECRET"

  # REST endpoint; only tests should need to change this
  endpoint: "https://api.flickr.com/services/rest/"

  # HTTP timeout per request
  timeout: 30s

# API call budget; Flickr allows 3600 calls per hour per key
rate_limit:
  calls_per_window: 3600
  window: 1h

# Photostream scanning
walker:
  # Photos fetched per page (Flickr caps this at 500)
  page_size: 500

  # Deepest stream position checked before a photo counts as not found
  max_position: 5000

# Note backup database (required)
database:
  # The SQLite backup written by the note backup tool; a directory
  # means <directory>/en_backup.db
  path: "/home/you/backup/en_backup.db"

# Output locations. When left empty these default relative to the
# database: <db dir>/update_photonotes and its import/ subdirectory.
output:
  # Finished .enex exports and their marker files
  import_dir: ""

  # Root for metadata dumps and the image cache
  base_dir: ""

  # Archive copies of full-size images, grouped by month;
  # empty disables archiving
  archive_dir: ""

  # Directory with note templates overriding the built-in ones
  template_dir: ""

  # Write the .xml diagnostic body next to every export, not just
  # failed ones
  write_xml: false

# Inventory refresh behavior
update:
  # Rows verified this recently are not rewritten
  no_update_age_days: 90

  # Hard stop after this many row updates in one pass
  limit: 10000

# Logging
logging:
  # debug, info, warn, error
  level: "info"

  # Append to this file instead of stderr
  file: ""

  # Disable ANSI colors
  no_color: false
`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".photonotes.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Add your Flickr API key and secret (https://www.flickr.com/services/apps/create/)")
	fmt.Println("2. Point database.path at your note backup")
	fmt.Println("3. Run 'photonotes config validate' to check the result")
	fmt.Println("4. Build a first note with 'photonotes create-note <flickr-url>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.LoadWithoutValidation(configFile, globalFlags())
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Mask credentials before display
	displayCfg := *cfg
	displayCfg.Flickr.APIKey = maskValue(displayCfg.Flickr.APIKey)
	displayCfg.Flickr.APISecret = maskValue(displayCfg.Flickr.APISecret)

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Effective configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (PHOTONOTES_*, API_KEY, API_SECRET, DB_PATH)")
	fmt.Println("3. .env files")
	if configFile != "" {
		fmt.Printf("4. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("4. Configuration file: (searched in default locations)")
	}
	fmt.Println("5. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	// Without --config, look in the locations the loader searches
	if configFile == "" {
		possiblePaths := []string{
			".photonotes.yaml",
			".photonotes.yml",
			filepath.Join(os.Getenv("HOME"), ".config", "photonotes", "config.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "photonotes", "config.yml"),
			filepath.Join(os.Getenv("HOME"), ".photonotes.yaml"),
			filepath.Join(os.Getenv("HOME"), ".photonotes.yml"),
		}
		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}
	}

	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	} else {
		ui.PrintInfo("Validating configuration", "environment and defaults only, no config file found")
	}

	cfg, err := config.LoadWithoutValidation(configFile, globalFlags())
	if err != nil {
		ui.PrintError("Configuration cannot be loaded", err.Error())
		os.Exit(1)
	}

	var warnings, problems []string

	if err := cfg.Validate(); err != nil {
		// Validate joins every violation into one error, one per line
		problems = append(problems, strings.Split(err.Error(), "\n")...)
	}

	// Check paths beyond what Validate covers
	if cfg.Database.Path != "" {
		if _, err := cfg.ResolveDatabasePath(); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if cfg.Output.ImportDir != "" {
		if err := os.MkdirAll(cfg.Output.ImportDir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create import directory: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}
	if cfg.Output.ArchiveDir == "" {
		warnings = append(warnings, "no archive directory configured, full-size copies are skipped")
	} else if info, err := os.Stat(cfg.Output.ArchiveDir); err != nil || !info.IsDir() {
		warnings = append(warnings, "archive directory does not exist: "+cfg.Output.ArchiveDir)
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has problems:")
		for _, problem := range problems {
			fmt.Printf("  - %s\n", problem)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, warning := range warnings {
			fmt.Printf("  - %s\n", warning)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Note database: %s\n", cfg.Database.Path)
	fmt.Printf("  Import directory: %s\n", cfg.Output.ImportDir)
	fmt.Printf("  Rate limit: %d calls per %s\n", cfg.RateLimit.CallsPerWindow, cfg.RateLimit.Window)
	fmt.Printf("  Walk limit: %d positions\n", cfg.Walker.MaxPosition)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}

// maskValue masks all but the edges of a credential for display
func maskValue(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"photonotes/pkg/auth"
	"photonotes/pkg/config"
	"photonotes/pkg/database"
	"photonotes/pkg/flickr"
	"photonotes/pkg/logger"
	"photonotes/pkg/ratelimit"
	"photonotes/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFile    string
	noColor    bool
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "photonotes",
	Short: "Build Evernote photo notes from Flickr metadata",
	Long: `photonotes builds Evernote import files (.enex) describing Flickr
photos and photographer profiles, and keeps its note inventory in sync
with an Evernote backup database.

The usual cycle:
  1. photonotes create-note <flickr-url>    build a note for a photo or person
  2. import the .enex file into Evernote
  3. refresh the note backup database with your backup tool
  4. photonotes update-db --notebook '*'    reconcile the inventory

Flickr API credentials are required; see 'photonotes config init' for a
starting configuration.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet && verbose {
			ui.PrintError("--quiet and --verbose are mutually exclusive")
			os.Exit(1)
		}
		if verbose {
			logLevel = "debug"
		}
		if quiet {
			logLevel = "error"
		}
		if logLevel == "error" {
			ui.SetQuietMode(true)
		}
		if noColor {
			ui.SetColorEnabled(false)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .photonotes.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "append logs to this file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")

	// Version template
	rootCmd.SetVersionTemplate(`photonotes {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags builds the flag map handed to config.Load from the
// persistent flags every command shares.
func globalFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}
	if logFile != "" {
		flags["log-file"] = logFile
	}
	if noColor {
		flags["no-color"] = true
	}
	return flags
}

// initLogging brings up the logger from the loaded configuration
func initLogging(cfg *config.Config) {
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logging", err.Error())
		os.Exit(1)
	}
}

// mustLoadConfig loads and validates the full configuration. Missing
// required settings (API credentials, database path) end the run here
// with the validation problems spelled out.
func mustLoadConfig(flags map[string]interface{}) *config.Config {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	initLogging(cfg)
	return cfg
}

// mustOpenDatabase resolves the configured backup path and opens the
// note database. The backup must already exist; photonotes never
// creates it.
func mustOpenDatabase(ctx context.Context, cfg *config.Config) *database.DB {
	path, err := cfg.ResolveDatabasePath()
	if err != nil {
		ui.PrintError("Note database not usable", err.Error())
		os.Exit(1)
	}

	db, err := database.Open(ctx, path, logger.GetLogger())
	if err != nil {
		ui.PrintError("Failed to open note database", err.Error())
		os.Exit(1)
	}
	return db
}

// newFlickrClient builds the API client from the configuration and
// installs the stored OAuth session when one is available, so
// authorized runs see non-public data.
func newFlickrClient(cfg *config.Config) *flickr.Client {
	client := flickr.NewClient(cfg.Flickr.APIKey, cfg.Flickr.APISecret, cfg.Flickr.Timeout, logger.GetLogger())
	if cfg.Flickr.Endpoint != "" {
		client.SetBaseURL(cfg.Flickr.Endpoint)
	}
	if cfg.RateLimit.CallsPerWindow > 0 && cfg.RateLimit.Window > 0 {
		client.SetLimiter(ratelimit.NewSlidingWindow(cfg.RateLimit.CallsPerWindow, cfg.RateLimit.Window))
	}

	manager, err := auth.NewManager()
	if err != nil {
		logger.WithError(err).Debug("session stores unavailable")
		return client
	}
	session, err := manager.RetrieveDefault()
	if err != nil {
		logger.Debug("no stored session, calls stay unsigned")
		return client
	}
	client.SetSession(session.Token, session.TokenSecret)
	logger.WithField("username", session.Username).Debug("using stored session")
	return client
}

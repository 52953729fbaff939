package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hoanghai1803/mdreadtime/internal/config"
	"github.com/hoanghai1803/mdreadtime/internal/storage"
)

const dbFileName = "mdreadtime.db"

var (
	cfgFile string
	dataDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mdreadtime",
	Short: "Estimate how long markdown takes to read",
	Long: `mdreadtime estimates reading time the way Medium does: words at an
average reading speed, plus a decreasing amount of time for each image.

Usage:
  mdreadtime estimate FILE...   Estimate markdown files
  mdreadtime feed [URL]         Estimate the articles of a feed or of saved feeds
  mdreadtime sources            Manage saved feeds
  mdreadtime history            List, filter or search saved estimates
  mdreadtime serve              Start the HTTP API`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(verbose)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/mdreadtime/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/mdreadtime)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// setupLogging installs a text slog handler on stderr so that command output
// on stdout stays machine readable.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	slog.Debug("config loaded", "path", path)
	return cfg, nil
}

func openStore() (*storage.Store, error) {
	dir := dataDir
	if dir == "" {
		dir = config.DefaultDataDir()
	}

	store, err := storage.Open(filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return store, nil
}

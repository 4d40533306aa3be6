// Package cli provides the command-line interface for skinsync.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/skinsync/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configPath string

	// Loaded once per invocation
	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "skinsync",
	Short: "Fetch and normalize character skin images",
	Long: `Skinsync keeps a local directory of character images in sync with the
Brawl Stars fandom wiki.

  fetch    resolves each character's default skin through the wiki API,
           downloads it and stores it as an RGBA PNG (backing up the old file)
  rescale  rewrites every PNG in a directory at a fixed width, keeping the
           aspect ratio
  catalog  lists the characters and the filenames they are stored under

Configuration is read from an optional YAML file (--config or SKINSYNC_CONFIG)
and SKINSYNC_* environment variables; flags take precedence.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		level := cfg.Level()
		if verbose {
			level = slog.LevelDebug
		}
		logger, closeLog = config.SetupLogger(cfg.LogFile, level)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			if err := closeLog(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c",
		config.GetEnv("SKINSYNC_CONFIG", ""), "path to a YAML config file")

	// Add subcommands
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(rescaleCmd)
	rootCmd.AddCommand(catalogCmd)
}

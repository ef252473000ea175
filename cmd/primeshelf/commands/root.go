package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/treefix50/primeshelf/internal/config"
	"github.com/treefix50/primeshelf/internal/printer"
)

var (
	cfg    config.Config
	logger *slog.Logger

	flagDB       string
	flagPages    string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "primeshelf",
	Short: "PrimeShelf - browse page rows for a media library",
	Long: `PrimeShelf serves the rows of media browse pages.

Rows are disclosed progressively, each row's playlist is resolved once and
shared by every row pointing at it, and personal rows are built from the
viewer's playback history and favorites.

Settings come from PRIMESHELF_* environment variables; flags override them.`,
	PersistentPreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (PRIMESHELF_DB)")
	rootCmd.PersistentFlags().StringVar(&flagPages, "pages", "", "Page definitions file (PRIMESHELF_PAGES)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error (PRIMESHELF_LOG_LEVEL)")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if flags.Changed("db") {
		os.Setenv("PRIMESHELF_DB", flagDB)
	}
	if flags.Changed("pages") {
		os.Setenv("PRIMESHELF_PAGES", flagPages)
	}
	if flags.Changed("log-level") {
		os.Setenv("PRIMESHELF_LOG_LEVEL", flagLogLevel)
	}

	loaded, err := config.Load()
	if err != nil {
		return printer.Error("Invalid configuration", err.Error(), []string{
			"Check the PRIMESHELF_* environment variables and command line flags.",
		})
	}
	cfg = loaded
	logger = cfg.Logger(os.Stderr)
	slog.SetDefault(logger)
	return nil
}

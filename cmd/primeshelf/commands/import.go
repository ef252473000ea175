package commands

import (
	"github.com/spf13/cobra"

	"github.com/treefix50/primeshelf/internal/pages"
	"github.com/treefix50/primeshelf/internal/printer"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Load a catalog YAML file into the database",
	Long: `Load media items, playlists, poster paths, playback state and
favorites from a catalog YAML file.

Examples:
  primeshelf import ./catalog.yaml --db ./data/primeshelf.db`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	store, err := openStore(false)
	if err != nil {
		return printer.Error("Cannot open database", err.Error(), nil)
	}
	defer store.Close()

	summary, err := pages.ImportFile(cmd.Context(), store, args[0])
	if err != nil {
		return printer.Error("Import failed", err.Error(), nil)
	}
	printer.Success("Imported %d media items, %d playlists, %d posters, %d playback records and %d favorites\n",
		summary.Media, summary.Playlists, summary.Posters, summary.Playback, summary.Favorites)
	return nil
}

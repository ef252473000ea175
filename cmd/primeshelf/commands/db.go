package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/treefix50/primeshelf/internal/printer"
)

var vacuumInto string

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the SQLite integrity check",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cfg.ReadOnly)
		if err != nil {
			return printer.Error("Cannot open database", err.Error(), nil)
		}
		defer store.Close()

		results, err := store.IntegrityCheck(cmd.Context())
		if err != nil {
			return printer.Error("Integrity check failed", err.Error(), nil)
		}
		if len(results) == 1 && results[0] == "ok" {
			printer.Success("%s is consistent\n", cfg.DBPath)
			return nil
		}
		return printer.Error("Database is damaged", strings.Join(results, "\n"), []string{
			fmt.Sprintf("Restore %s from a backup or re-run primeshelf import.", cfg.DBPath),
		})
	},
}

var dbVacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "Compact the database and refresh planner statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(false)
		if err != nil {
			return printer.Error("Cannot open database", err.Error(), nil)
		}
		defer store.Close()

		if err := store.Vacuum(cmd.Context(), vacuumInto); err != nil {
			return printer.Error("Vacuum failed", err.Error(), nil)
		}
		if err := store.Analyze(cmd.Context()); err != nil {
			return printer.Error("Analyze failed", err.Error(), nil)
		}
		if vacuumInto != "" {
			printer.Success("Compacted copy written to %s\n", vacuumInto)
			return nil
		}
		printer.Success("%s compacted\n", cfg.DBPath)
		return nil
	},
}

func init() {
	dbVacuumCmd.Flags().StringVar(&vacuumInto, "into", "", "Write the compacted database to this path instead")
	dbCmd.AddCommand(dbCheckCmd, dbVacuumCmd)
	rootCmd.AddCommand(dbCmd)
}

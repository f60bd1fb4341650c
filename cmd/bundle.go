package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pwvkpno/pwvkpno/internal/exporter"
	"github.com/pwvkpno/pwvkpno/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Install PWV data from a pwv_kpno checkout or an exported bundle",
	Long: "Install the atmospheric models and merge the measured SuomiNet table found\n" +
		"in <dir> (or <dir>/pwv_kpno), then rebuild the PWV model.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		rep, err := importer.Import(cmd.Context(), store, args[0], overwrite)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "imported %d model(s) from %s\n", len(rep.Models), rep.Root)
		if len(rep.Years) > 0 {
			ys := make([]string, len(rep.Years))
			for i, y := range rep.Years {
				ys[i] = fmt.Sprint(y)
			}
			fmt.Fprintf(out, "imported measurements for %s\n", strings.Join(ys, ", "))
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Back up the database or write a PWV data bundle",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dbPath, _ := cmd.Flags().GetString("db")
		dataDir, _ := cmd.Flags().GetString("data")
		if dbPath == "" && dataDir == "" {
			return errors.New("nothing to export: pass --db and/or --data")
		}
		store, dbConn, err := openStoreDB()
		if err != nil {
			return err
		}
		defer func() { _ = dbConn.Close() }()

		out := cmd.OutOrStdout()
		if dbPath != "" {
			if err := exporter.ExportDatabase(cmd.Context(), dbConn, dbPath); err != nil {
				return err
			}
			fmt.Fprintf(out, "database written to %s\n", dbPath)
		}
		if dataDir != "" {
			files, err := exporter.ExportData(store, dataDir)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(out, f)
			}
		}
		return nil
	},
}

func init() {
	importCmd.Flags().Bool("overwrite", false, "Replace atmospheric models that are already installed")
	exportCmd.Flags().String("db", "", "Write a snapshot of the database to this file")
	exportCmd.Flags().String("data", "", "Write PWV tables and atmospheric models into this directory")
	rootCmd.AddCommand(importCmd, exportCmd)
}

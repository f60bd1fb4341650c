package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Download SuomiNet data and rebuild the PWV model",
	Long: "Download SuomiNet data and rebuild the local PWV model. With --year only\n" +
		"that year is refreshed; otherwise every year from 2017 through the current\n" +
		"one is downloaded.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var year *int
		if cmd.Flags().Changed("year") {
			y, _ := cmd.Flags().GetInt("year")
			year = &y
		}

		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		years, err := store.UpdateModels(cmd.Context(), year)
		if err != nil {
			return err
		}
		if len(years) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no new SuomiNet data found")
			return nil
		}
		for _, y := range years {
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d\n", y)
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().Int("year", 0, "Only update this year (2010 or later)")
	rootCmd.AddCommand(updateCmd)
}

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var availableCmd = &cobra.Command{
	Use:   "available",
	Short: "List years with locally downloaded SuomiNet data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		years, err := store.AvailableData(cmd.Context())
		if err != nil {
			return err
		}
		if len(years) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no local SuomiNet data")
			return nil
		}
		for _, y := range years {
			fmt.Fprintln(cmd.OutOrStdout(), strconv.Itoa(y))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(availableCmd)
}

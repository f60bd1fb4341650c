package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/pwvkpno/pwvkpno/internal/pwv"
)

// filterFromFlags reads --year, --month, --day and --hour. Flags that were
// not given leave the matching field unset.
func filterFromFlags(cmd *cobra.Command) pwv.Filter {
	var f pwv.Filter
	get := func(name string) *int {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v, _ := cmd.Flags().GetInt(name)
		return &v
	}
	f.Year = get("year")
	f.Month = get("month")
	f.Day = get("day")
	f.Hour = get("hour")
	return f
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().Int("year", 0, "Only rows from this year")
	cmd.Flags().Int("month", 0, "Only rows from this month (1-12)")
	cmd.Flags().Int("day", 0, "Only rows from this day of the month")
	cmd.Flags().Int("hour", 0, "Only rows from this UTC hour")
	addFormatFlag(cmd)
}

var measuredCmd = &cobra.Command{
	Use:   "measured",
	Short: "Print the measured SuomiNet PWV table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		m, err := store.MeasuredPWV(filterFromFlags(cmd))
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), format, m, func(w io.Writer) error { return pwv.WriteMeasured(w, m) })
	},
}

var modeledCmd = &cobra.Command{
	Use:   "modeled",
	Short: "Print the modeled PWV at Kitt Peak",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		m, err := store.ModeledPWV(filterFromFlags(cmd))
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), format, m, func(w io.Writer) error { return pwv.WriteModeled(w, m) })
	},
}

func init() {
	addFilterFlags(measuredCmd)
	addFilterFlags(modeledCmd)
	rootCmd.AddCommand(measuredCmd, modeledCmd)
}

package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pwvkpno/pwvkpno/internal/pwv"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateOnly,
}

// parseDate accepts RFC 3339 or a zone-less date and time, read as UTC.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse date %q (use YYYY-MM-DD HH:MM:SS, UTC)", pwv.ErrInvalidArgument, s)
}

var transmissionCmd = &cobra.Command{
	Use:   "transmission",
	Short: "Model the atmospheric transmission due to PWV",
	Long: "Model the atmospheric transmission function due to precipitable water vapor\n" +
		"at Kitt Peak for a UTC date and airmass.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		rawDate, _ := cmd.Flags().GetString("date")
		date, err := parseDate(rawDate)
		if err != nil {
			return err
		}
		airmass, _ := cmd.Flags().GetFloat64("airmass")

		store, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		pts, err := store.Transmission(date, airmass)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), format, pts, func(w io.Writer) error { return pwv.WriteTransmission(w, pts) })
	},
}

func init() {
	transmissionCmd.Flags().String("date", "", "UTC date and time, e.g. 2017-03-01 04:30:00")
	transmissionCmd.Flags().Float64("airmass", 1, "Airmass along the line of sight")
	_ = transmissionCmd.MarkFlagRequired("date")
	addFormatFlag(transmissionCmd)
	rootCmd.AddCommand(transmissionCmd)
}

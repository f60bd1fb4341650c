package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pwvkpno/pwvkpno/internal/config"
	"github.com/pwvkpno/pwvkpno/internal/log"
)

// annotationSettingsOptional marks commands that must work even when the
// settings file does not load.
const annotationSettingsOptional = "settings-optional"

// settings is loaded once per invocation by the root command.
var settings = config.DefaultSettings()

var rootCmd = &cobra.Command{
	Use:   "pwvkpno",
	Short: "pwvkpno models precipitable water vapor at Kitt Peak",
	Long: "pwvkpno downloads SuomiNet GPS data, models the precipitable water vapor (PWV)\n" +
		"column at Kitt Peak and its atmospheric transmission, and carries the\n" +
		"package's release and lint configuration tooling.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		path, err := settingsPath(cmd)
		if err != nil {
			return err
		}
		s, err := config.LoadSettings(path)
		if err != nil {
			if cmd.Annotations[annotationSettingsOptional] != "true" {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			s = config.DefaultSettings()
		}
		settings = s

		level, _ := cmd.Flags().GetString("log-level")
		if level == "" {
			level = settings.LogLevel
		}
		pretty, _ := cmd.Flags().GetBool("pretty")
		log.Configure(log.Config{Level: level, Output: cmd.ErrOrStderr(), Pretty: pretty})
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "pwvkpno: run 'pwvkpno --help' to see available commands")
	},
}

// settingsPath returns --config when given, else the default location.
func settingsPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p, nil
	}
	return config.SettingsPath()
}

// Execute executes the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Settings file (default <data dir>/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("pretty", false, "Human-readable log output")
}

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pwvkpno/pwvkpno/internal/config"
	"github.com/pwvkpno/pwvkpno/internal/utils"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit pwvkpno settings",
}

var settingsOptional = map[string]string{annotationSettingsOptional: "true"}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the settings file location",
	Args:        cobra.NoArgs,
	Annotations: settingsOptional,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := settingsPath(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the settings file in $VISUAL or $EDITOR",
	Long: "Open the settings file in $VISUAL or $EDITOR. A missing file is created\n" +
		"with the default settings first; the result is validated after editing.",
	Args:        cobra.NoArgs,
	Annotations: settingsOptional,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := settingsPath(cmd)
		if err != nil {
			return err
		}
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			if err := config.SaveSettings(p, config.DefaultSettings()); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if err := utils.OpenEditor(p); err != nil {
			return err
		}
		if _, err := config.LoadSettings(p); err != nil {
			return fmt.Errorf("edited settings are invalid: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", p)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd, configEditCmd)
	rootCmd.AddCommand(configCmd)
}

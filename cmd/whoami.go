package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pwvkpno/pwvkpno/internal/user"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Manage the operator identity recorded with releases",
}

var whoamiSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the operator name and email",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		if name == "" {
			return errors.New("--name is required")
		}
		p := user.Profile{Name: name, Email: email}
		if err := user.SetProfile(p); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "operator set to %s\n", p)
		return nil
	},
}

var whoamiShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the operator identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, ok, err := user.GetProfile()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "no operator set; releases are recorded as %q\n", user.Operator())
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), p.String())
		return nil
	},
}

var whoamiClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the operator identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := user.ClearProfile(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "operator cleared")
		return nil
	},
}

func init() {
	whoamiSetCmd.Flags().String("name", "", "Operator name")
	whoamiSetCmd.Flags().String("email", "", "Operator email")
	whoamiCmd.AddCommand(whoamiSetCmd, whoamiShowCmd, whoamiClearCmd)
	rootCmd.AddCommand(whoamiCmd)
}

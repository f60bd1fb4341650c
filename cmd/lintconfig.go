package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pwvkpno/pwvkpno/internal/lintcfg"
)

var lintConfigCmd = &cobra.Command{
	Use:   "lint-config",
	Short: "Inspect the static-analysis configuration document",
	Long: "Inspect the static-analysis configuration document (" + lintcfg.DefaultFile + ").\n" +
		"Without --file the document in the current directory is used, falling back\n" +
		"to the copy bundled with pwvkpno.",
}

// loadLintConfig resolves --file, the working directory's document, or the
// bundled default, in that order.
func loadLintConfig(cmd *cobra.Command) (*lintcfg.Config, string, error) {
	path, _ := cmd.Flags().GetString("file")
	if path != "" {
		c, err := lintcfg.Load(path)
		return c, path, err
	}
	if _, err := os.Stat(lintcfg.DefaultFile); err == nil {
		c, err := lintcfg.Load(lintcfg.DefaultFile)
		return c, lintcfg.DefaultFile, err
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, "", err
	}
	return lintcfg.Default(), "(bundled)", nil
}

var lintConfigShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the normalized document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, _, err := loadLintConfig(cmd)
		if err != nil {
			return err
		}
		b, err := c.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var lintConfigCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the document and list the enabled checks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, src, err := loadLintConfig(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: ok\n", src)
		for _, name := range c.EnabledChecks() {
			if th, ok := c.Threshold(name); ok {
				fmt.Fprintf(out, "  %s\t%d\n", name, th)
			} else {
				fmt.Fprintf(out, "  %s\n", name)
			}
		}
		return nil
	},
}

var lintConfigRatedCmd = &cobra.Command{
	Use:   "rated [dir]",
	Short: "List the files the analysis service would rate",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := loadLintConfig(cmd)
		if err != nil {
			return err
		}
		files, err := lintcfg.RatedFiles(rootArg(args), c)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		return nil
	},
}

var lintConfigScanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Report rated files over the file-lines threshold",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := loadLintConfig(cmd)
		if err != nil {
			return err
		}
		findings, err := lintcfg.Scan(rootArg(args), c)
		if err != nil {
			return err
		}
		for _, f := range findings {
			fmt.Fprintln(cmd.OutOrStdout(), f.String())
		}
		if len(findings) > 0 {
			return fmt.Errorf("%d file(s) over threshold", len(findings))
		}
		return nil
	},
}

func rootArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return "."
}

func init() {
	lintConfigCmd.PersistentFlags().String("file", "", "Path to the analysis configuration document")
	lintConfigCmd.AddCommand(lintConfigShowCmd, lintConfigCheckCmd, lintConfigRatedCmd, lintConfigScanCmd)
	rootCmd.AddCommand(lintConfigCmd)
}

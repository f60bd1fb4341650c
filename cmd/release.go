package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pwvkpno/pwvkpno/internal/db"
	"github.com/pwvkpno/pwvkpno/internal/executor"
	"github.com/pwvkpno/pwvkpno/internal/log"
	"github.com/pwvkpno/pwvkpno/internal/release"
	"github.com/pwvkpno/pwvkpno/internal/user"
)

// newRunner builds the command runner for a release; tests replace it.
var newRunner = func(dry, verbose bool) executor.Runner {
	return executor.New(dry, verbose)
}

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Build, optionally upload, and clean up a package distribution",
	Long: "Build the distribution with the configured packaging commands, ask once\n" +
		"whether to upload it (press y to upload, anything else to skip), then\n" +
		"remove the local build artifacts regardless of the outcome.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dry, _ := cmd.Flags().GetBool("dry-run")
		yes, _ := cmd.Flags().GetBool("yes")
		force, _ := cmd.Flags().GetBool("force")
		verbose, _ := cmd.Flags().GetBool("verbose")
		signKey, _ := cmd.Flags().GetString("sign-key")
		workDir, _ := cmd.Flags().GetString("workdir")
		checksums, _ := cmd.Flags().GetBool("checksums")

		cfg := release.FromSettings(settings.Release)
		if signKey != "" {
			cfg.SignKey = signKey
		}
		if workDir != "" {
			cfg.WorkDir = workDir
		}
		if cmd.Flags().Changed("checksums") {
			cfg.Checksums = checksums
		}
		if cfg.SignKey != "" && !filepath.IsAbs(cfg.SignKey) {
			abs, err := filepath.Abs(cfg.SignKey)
			if err != nil {
				return err
			}
			cfg.SignKey = abs
		}

		if !dry {
			if err := executor.Preflight(append(append([]string(nil), cfg.Build...), cfg.Upload)...); err != nil {
				return err
			}
		}

		dbConn, err := db.InitDB()
		if err != nil {
			return err
		}
		defer func() { _ = dbConn.Close() }()

		p := release.NewPipeline(cfg, newRunner(dry, verbose))
		p.In = cmd.InOrStdin()
		p.Out = cmd.OutOrStdout()
		p.ErrOut = cmd.ErrOrStderr()
		p.History = release.NewHistory(dbConn)
		p.DryRun = dry
		p.AssumeYes = yes
		p.Force = force
		p.Operator = user.Operator()
		p.Logger = log.WithComponent("release")

		res, err := p.Run(cmd.Context())
		if res != nil {
			printReleaseSummary(cmd, res)
		}
		return err
	},
}

func printReleaseSummary(cmd *cobra.Command, res *release.Result) {
	out := cmd.OutOrStdout()
	for _, a := range res.Artifacts {
		fmt.Fprintf(out, "artifact\t%s\t%s\n", a.Name, a.SHA256)
	}
	switch {
	case res.Uploaded:
		fmt.Fprintln(out, "uploaded")
	case res.Confirmed && res.DryRun:
		fmt.Fprintln(out, "dry-run: upload not performed")
	case res.BuildErr == nil && !res.Confirmed:
		fmt.Fprintln(out, "upload skipped")
	}
	if len(res.Removed) > 0 {
		fmt.Fprintf(out, "removed %s\n", strings.Join(res.Removed, ", "))
	}
}

var releaseHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded release runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		dbConn, err := db.InitDB()
		if err != nil {
			return err
		}
		defer func() { _ = dbConn.Close() }()

		runs, err := release.NewHistory(dbConn).List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "no release runs recorded")
			return nil
		}
		for _, r := range runs {
			status := "skipped"
			switch {
			case r.Error != "":
				status = "failed: " + r.Error
			case r.DryRun:
				status = "dry-run"
			case r.Uploaded:
				status = "uploaded"
			}
			fmt.Fprintf(out, "%s\t%s\t%s\t%d artifact(s)\t%s\n",
				r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Operator, len(r.Artifacts), status)
		}
		return nil
	},
}

func init() {
	releaseCmd.Flags().Bool("dry-run", false, "Print commands without running them and keep build artifacts")
	releaseCmd.Flags().BoolP("yes", "y", false, "Upload without asking")
	releaseCmd.Flags().Bool("force", false, "Override safety checks and force execution")
	releaseCmd.Flags().Bool("verbose", false, "Verbose output (prints dry-run messages)")
	releaseCmd.Flags().String("sign-key", "", "Armored OpenPGP private key used to sign artifacts")
	releaseCmd.Flags().String("workdir", "", "Project directory (default current directory)")
	releaseCmd.Flags().Bool("checksums", false, "Write a SHA256SUMS manifest into the distribution directory")
	releaseHistoryCmd.Flags().Int("limit", 20, "Maximum number of runs to show (0 for all)")
	releaseCmd.AddCommand(releaseHistoryCmd)
	rootCmd.AddCommand(releaseCmd)
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/stackql-exec/internal/config"
)

// NewRootCommand builds the stackql-exec command tree.
func NewRootCommand(rt *Runtime, version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stackql-exec",
		Short: "Build and run stackql commands in CI",
		Long: `stackql-exec assembles a stackql command line from step inputs, runs it and
publishes the query results, command output or query errors as step outputs.

Inputs are read from environment variables (QUERY, QUERY_FILE_PATH, OUTPUT,
AUTH, ...), optionally defaulted by a stackql-exec.yaml file, and can be
overridden with flags.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&rt.Config.Path, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&rt.NoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&rt.Debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rt.ReporterKind, "reporter", ReporterAuto,
		fmt.Sprintf("Where results go: %s, %s or %s", ReporterAuto, ReporterGitHub, ReporterConsole))

	rootCmd.SetOut(rt.Stdout)
	rootCmd.SetErr(rt.Stderr)

	rootCmd.AddCommand(
		NewBuildCommand(rt),
		NewExecCommand(rt),
		NewRunCommand(rt),
		NewSetupAuthCommand(rt),
		NewDoctorCommand(rt),
		NewCompletionCommand(rt),
	)

	return rootCmd
}

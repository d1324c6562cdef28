package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/stackql-exec/internal/command"
	"github.com/systmms/stackql-exec/internal/config"
	"github.com/systmms/stackql-exec/internal/report"
)

// NewBuildCommand creates the build command.
func NewBuildCommand(rt *Runtime) *cobra.Command {
	var flags settingFlags

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble the stackql command and export it as STACKQL_COMMAND",
		Long: `Validate the query inputs and assemble the stackql command line for the
runner platform. The result is exported as STACKQL_COMMAND for a later
'stackql-exec exec' step.

Examples:
  QUERY="SELECT name FROM github.repos.repos WHERE org = 'stackql'" stackql-exec build
  stackql-exec build --query-file queries/instances.iql --vars project=p1 --output csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rt.Settings()
			if err != nil {
				return rt.Fail(err)
			}
			flags.apply(cmd, &s)

			built, err := buildCommand(rt, s)
			if err != nil {
				return err
			}
			rt.Reporter().ExportVariable(report.CommandVariable, built.String())
			return nil
		},
	}

	flags.bindBuild(cmd.Flags())
	flags.bindRuntime(cmd.Flags())
	return cmd
}

// buildCommand masks auth, builds the command and logs it redacted.
func buildCommand(rt *Runtime, s config.Settings) (command.Command, error) {
	r := rt.Reporter()
	if command.Provided(s.Auth) {
		r.Mask(s.Auth)
	} else {
		rt.Logger().Debug("AUTH is not set, building without --auth")
	}

	built, err := command.Build(s.BuildOptions())
	rt.Metrics.RecordBuild(err)
	if err != nil {
		return command.Command{}, rt.Fail(err)
	}

	r.Log("stackql command: " + built.Redacted())
	return built, nil
}

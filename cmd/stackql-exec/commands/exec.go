package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/systmms/stackql-exec/internal/classify"
	"github.com/systmms/stackql-exec/internal/command"
	"github.com/systmms/stackql-exec/internal/config"
	dserrors "github.com/systmms/stackql-exec/internal/errors"
)

// NewExecCommand creates the exec command.
func NewExecCommand(rt *Runtime) *cobra.Command {
	var (
		flags       settingFlags
		commandLine string
	)

	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Run STACKQL_COMMAND and publish its output",
		Long: `Run the command exported by 'stackql-exec build' and route its output.

Queries publish stdout as stackql-query-results and stderr as
stackql-query-error. With --is-command (IS_COMMAND=true) stderr is the
command result and is published as stackql-command-output instead.

ON_FAILURE=continue keeps the step green when stackql reports an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := rt.Settings()
			if err != nil {
				return rt.Fail(err)
			}
			flags.apply(cmd, &s)
			if cmd.Flags().Changed("command") {
				s.Command = commandLine
			}

			if !command.Provided(s.Command) {
				return rt.Fail(dserrors.ConfigError{
					Field:      config.EnvCommand,
					Message:    "Cannot find STACKQL_COMMAND environment variable",
					Suggestion: "Run 'stackql-exec build' in an earlier step or pass --command",
				})
			}

			if command.Provided(s.Auth) {
				rt.Reporter().Mask(s.Auth)
				rt.Reporter().Mask(s.Strategy().Quote(s.Auth))
			}

			parsed, err := command.Parse(s.Command, s.Strategy())
			if err != nil {
				return rt.Fail(err)
			}
			// The build step may have run with DRY_RUN set while this one did not.
			if parsed.HasFlag("--dryrun") {
				s.DryRun = true
			}
			return executeCommand(cmd.Context(), rt, s, parsed)
		},
	}

	flags.bindExec(cmd.Flags())
	flags.bindRuntime(cmd.Flags())
	cmd.Flags().StringVar(&commandLine, "command", "", "Command line to run (overrides STACKQL_COMMAND)")
	return cmd
}

// executeCommand classifies one run. Runtime failures are reported by the
// classifier; only configuration problems come back as errors.
func executeCommand(ctx context.Context, rt *Runtime, s config.Settings, c command.Command) error {
	opts, err := s.ClassifyOptions()
	if err != nil {
		return rt.Fail(err)
	}

	classifier := classify.New(rt.Executor, rt.Reporter(),
		classify.WithLogger(rt.Logger()),
		classify.WithObserver(rt.Metrics),
	)

	outcome, err := classifier.Run(ctx, c, opts)
	if err != nil {
		return rt.Fail(err)
	}

	rt.Logger().Debug("stackql finished: class=%s exit=%d duration=%s", outcome.Class, outcome.ExitCode, outcome.Duration)
	return nil
}

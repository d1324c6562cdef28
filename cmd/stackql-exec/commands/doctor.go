package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/stackql-exec/internal/auth"
	"github.com/systmms/stackql-exec/internal/command"
	"github.com/systmms/stackql-exec/internal/config"
	dserrors "github.com/systmms/stackql-exec/internal/errors"
	"github.com/systmms/stackql-exec/internal/platform"
	"github.com/systmms/stackql-exec/internal/secretstores"
	"github.com/systmms/stackql-exec/pkg/exec"
)

// Check is the result of one doctor check.
type Check struct {
	Name       string
	Status     string
	Message    string
	Suggestion string
}

const (
	statusOK   = "ok"
	statusWarn = "warn"
	statusFail = "error"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand(rt *Runtime) *cobra.Command {
	var (
		flags   settingFlags
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and the stackql installation",
		Long: `Verify that stackql-exec can run in this environment.

This command checks:
- Configuration file and environment values
- The stackql executable and its version
- The auth source that would be used
- The query inputs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var checks []Check

			s, err := rt.Settings()
			if err == nil {
				flags.apply(cmd, &s)
				err = s.Validate()
			}
			if err != nil {
				checks = append(checks, failed("configuration", err))
				displayChecks(rt, checks, verbose)
				return err
			}
			checks = append(checks, Check{Name: "configuration", Status: statusOK, Message: configMessage(rt.Config)})

			checks = append(checks, checkExecutable(cmd.Context(), rt, s)...)
			checks = append(checks, checkAuth(s))
			checks = append(checks, checkQuery(s))

			displayChecks(rt, checks, verbose)

			failures := 0
			for _, c := range checks {
				if c.Status == statusFail {
					failures++
				}
			}
			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			rt.Logger().Info("All checks passed")
			return nil
		},
	}

	flags.bindBuild(cmd.Flags())
	flags.bindRuntime(cmd.Flags())
	flags.bindExec(cmd.Flags())
	flags.bindAuth(cmd.Flags())
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show suggestions for failed checks")
	return cmd
}

func failed(name string, err error) Check {
	c := Check{Name: name, Status: statusFail, Message: dserrors.Message(err)}
	var cfgErr dserrors.ConfigError
	if errors.As(err, &cfgErr) {
		c.Suggestion = cfgErr.Suggestion
	}
	return c
}

func configMessage(cfg *config.Config) string {
	if _, err := os.Stat(cfg.Path); err != nil {
		return "environment only (" + cfg.Path + " not found)"
	}
	return "loaded " + cfg.Path
}

func checkExecutable(ctx context.Context, rt *Runtime, s config.Settings) []Check {
	strategy := s.Strategy()
	exe := strategy.Executable()

	var resolved string
	if strategy.Platform() == platform.Windows {
		if _, err := os.Stat(exe); err != nil {
			return []Check{{
				Name:       "stackql",
				Status:     statusFail,
				Message:    fmt.Sprintf("%s not found", exe),
				Suggestion: "Set STACKQL_CLI_PATH to the stackql install directory",
			}}
		}
		resolved = exe
	} else {
		path, err := exec.LookPath(exe)
		if err != nil {
			c := Check{Name: "stackql", Status: statusFail, Message: "stackql not found in PATH"}
			var cmdErr dserrors.CommandError
			if errors.As(dserrors.WrapCommandNotFound(exe, err), &cmdErr) {
				c.Suggestion = cmdErr.Suggestion
			}
			return []Check{c}
		}
		resolved = path
	}

	checks := []Check{{Name: "stackql", Status: statusOK, Message: resolved}}

	result, err := rt.Executor.Execute(ctx, exe, "--version")
	if err != nil {
		checks = append(checks, Check{
			Name:    "stackql version",
			Status:  statusWarn,
			Message: "could not run stackql --version: " + firstLine(string(result.Stderr), err.Error()),
		})
		return checks
	}
	checks = append(checks, Check{
		Name:    "stackql version",
		Status:  statusOK,
		Message: firstLine(string(result.Stdout), "unknown"),
	})
	return checks
}

func checkAuth(s config.Settings) Check {
	c := Check{Name: "auth", Status: statusOK}

	switch {
	case command.Provided(s.AuthStr):
		c.Message = "from " + auth.SourceString
	case command.Provided(s.AuthFilePath):
		if _, err := os.Stat(s.AuthFilePath); err != nil {
			c.Status = statusFail
			c.Message = fmt.Sprintf("Cannot find auth file %s", s.AuthFilePath)
			return c
		}
		c.Message = "from " + auth.SourceFile + " " + s.AuthFilePath
	case command.Provided(s.AuthSecretRef):
		ref, err := secretstores.ParseRef(s.AuthSecretRef)
		if err != nil {
			return failed("auth", err)
		}
		c.Message = "from " + ref.Kind + " secret store"
	case command.Provided(s.Auth):
		c.Message = "AUTH already set"
	default:
		c.Status = statusWarn
		c.Message = "no auth configured, stackql will run without provider auth"
		c.Suggestion = "Set AUTH_STR, AUTH_FILE_PATH or AUTH_SECRET_REF"
	}

	if command.Provided(s.Auth) && c.Status == statusOK && c.Message != "AUTH already set" {
		c.Message += " (AUTH is also set and will be replaced)"
	}
	return c
}

func checkQuery(s config.Settings) Check {
	if !command.Provided(s.Query) && !command.Provided(s.QueryFilePath) && command.Provided(s.Command) {
		return Check{Name: "query", Status: statusOK, Message: "using STACKQL_COMMAND"}
	}
	if _, err := command.Build(s.BuildOptions()); err != nil {
		return failed("query", err)
	}
	if command.Provided(s.Query) {
		return Check{Name: "query", Status: statusOK, Message: "inline query"}
	}
	return Check{Name: "query", Status: statusOK, Message: "query file " + s.QueryFilePath}
}

func firstLine(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func displayChecks(rt *Runtime, checks []Check, verbose bool) {
	w := tabwriter.NewWriter(rt.Stdout, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "CHECK\tSTATUS\tMESSAGE\n")
	_, _ = fmt.Fprintf(w, "-----\t------\t-------\n")

	for _, c := range checks {
		status := c.Status
		switch c.Status {
		case statusOK:
			status = "✓ " + status
		case statusFail:
			status = "✗ " + status
		default:
			status = "⚠ " + status
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, status, c.Message)
	}
	_ = w.Flush()

	if !verbose {
		return
	}
	for _, c := range checks {
		if c.Status != statusOK && c.Suggestion != "" {
			_, _ = fmt.Fprintf(rt.Stdout, "\n%s: %s\n", c.Name, c.Suggestion)
		}
	}
}

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/systmms/stackql-exec/internal/auth"
	"github.com/systmms/stackql-exec/internal/config"
	dserrors "github.com/systmms/stackql-exec/internal/errors"
	"github.com/systmms/stackql-exec/internal/logging"
	"github.com/systmms/stackql-exec/internal/metrics"
	"github.com/systmms/stackql-exec/internal/report"
	"github.com/systmms/stackql-exec/pkg/exec"
)

// Reporter kinds accepted by --reporter.
const (
	ReporterAuto    = "auto"
	ReporterGitHub  = "github"
	ReporterConsole = "console"
)

// Runtime carries what every command shares: configuration, the process
// environment, output streams and collaborators that tests replace.
type Runtime struct {
	Config   *config.Config
	Lookup   func(string) (string, bool)
	Stdout   io.Writer
	Stderr   io.Writer
	Executor exec.CommandExecutor
	Stores   auth.SecretResolver
	Metrics  *metrics.Recorder

	ReporterKind string
	Debug        bool
	NoColor      bool

	reporter    report.Reporter
	metricsFile string
}

// NewRuntime returns a Runtime bound to the real process environment.
func NewRuntime() *Runtime {
	return &Runtime{
		Config:       &config.Config{},
		Lookup:       os.LookupEnv,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Executor:     exec.DefaultExecutor(),
		Metrics:      metrics.New(),
		ReporterKind: ReporterAuto,
	}
}

func (rt *Runtime) getenv(key string) string {
	v, _ := rt.Lookup(key)
	return v
}

// init prepares the logger once flags are parsed.
func (rt *Runtime) init() error {
	switch rt.ReporterKind {
	case ReporterAuto, ReporterGitHub, ReporterConsole:
	default:
		return dserrors.ConfigError{
			Field:      "reporter",
			Value:      rt.ReporterKind,
			Message:    fmt.Sprintf("unknown reporter: %s", rt.ReporterKind),
			Suggestion: "Use one of auto, github, console",
		}
	}

	rt.Config.Logger = logging.New(rt.Debug, rt.NoColor).WithOutput(rt.Stderr)
	rt.reporter = nil
	return nil
}

// Logger returns the configured logger.
func (rt *Runtime) Logger() *logging.Logger {
	if rt.Config.Logger == nil {
		rt.Config.Logger = logging.New(rt.Debug, rt.NoColor).WithOutput(rt.Stderr)
	}
	return rt.Config.Logger
}

// Reporter returns the reporter selected by --reporter. auto picks the
// GitHub Actions reporter inside a workflow and the console otherwise.
func (rt *Runtime) Reporter() report.Reporter {
	if rt.reporter != nil {
		return rt.reporter
	}

	kind := rt.ReporterKind
	if kind == ReporterAuto || kind == "" {
		kind = ReporterConsole
		if report.InActions(rt.getenv) {
			kind = ReporterGitHub
		}
	}

	if kind == ReporterGitHub {
		rt.reporter = report.NewGitHubActions(rt.Stdout, rt.getenv, rt.Logger())
	} else {
		rt.reporter = report.NewConsole(rt.Logger(), rt.Stdout)
	}
	return rt.reporter
}

// Settings loads the config file and resolves it against the environment.
func (rt *Runtime) Settings() (config.Settings, error) {
	if err := rt.Config.Load(); err != nil {
		return config.Settings{}, err
	}
	s, err := rt.Config.Resolve(rt.Lookup)
	if err != nil {
		return config.Settings{}, err
	}
	rt.metricsFile = s.MetricsFile
	return s, nil
}

// WriteMetrics writes the metrics textfile when one is configured.
func (rt *Runtime) WriteMetrics() error {
	path := rt.metricsFile
	if path == "" {
		path = rt.getenv(config.EnvMetricsFile)
	}
	return rt.Metrics.WriteFile(path)
}

// Fail reports err as a step failure and returns it.
func (rt *Runtime) Fail(err error) error {
	rt.Logger().Debug("%v", err)
	rt.Reporter().Fail(dserrors.Message(err))
	return err
}

// Failed reports whether a failure was signaled.
func (rt *Runtime) Failed() bool {
	return rt.reporter != nil && rt.reporter.Failed()
}

// settingFlags are the per-invocation overrides shared by build and run.
type settingFlags struct {
	query         string
	queryFile     string
	dataFile      string
	output        string
	vars          string
	auth          string
	dryRun        bool
	isCommand     bool
	onFailure     string
	runnerOS      string
	cliPath       string
	authFile      string
	authSecretRef string
}

func (f *settingFlags) bindBuild(fs *pflag.FlagSet) {
	fs.StringVar(&f.query, "query", "", "Inline stackql query (overrides QUERY)")
	fs.StringVar(&f.queryFile, "query-file", "", "Path to a query file (overrides QUERY_FILE_PATH)")
	fs.StringVar(&f.dataFile, "data-file", "", "Path to a jsonnet/json data file (overrides DATA_FILE_PATH)")
	fs.StringVar(&f.output, "output", "", "Output format: json, csv, table or text (overrides OUTPUT)")
	fs.StringVar(&f.vars, "vars", "", "Template variables, e.g. project=p1,zone=z1 (overrides VARS)")
	fs.StringVar(&f.auth, "auth", "", "Provider auth JSON (overrides AUTH)")
}

func (f *settingFlags) bindRuntime(fs *pflag.FlagSet) {
	fs.BoolVar(&f.dryRun, "dry-run", false, "Render the query without running it (overrides DRY_RUN)")
	fs.StringVar(&f.runnerOS, "runner-os", "", "Target runner OS (overrides RUNNER_OS)")
	fs.StringVar(&f.cliPath, "cli-path", "", "stackql install directory on windows (overrides STACKQL_CLI_PATH)")
}

func (f *settingFlags) bindExec(fs *pflag.FlagSet) {
	fs.BoolVar(&f.isCommand, "is-command", false, "Treat stderr as command output (overrides IS_COMMAND)")
	fs.StringVar(&f.onFailure, "on-failure", "", "exit or continue (overrides ON_FAILURE)")
}

func (f *settingFlags) bindAuth(fs *pflag.FlagSet) {
	fs.StringVar(&f.authFile, "auth-file", "", "Path to an auth JSON file (overrides AUTH_FILE_PATH)")
	fs.StringVar(&f.authSecretRef, "auth-secret-ref", "", "store:// reference to the auth JSON (overrides AUTH_SECRET_REF)")
}

// apply overrides s with every flag set on cmd.
func (f *settingFlags) apply(cmd *cobra.Command, s *config.Settings) {
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}

	if changed("query") {
		s.Query = f.query
	}
	if changed("query-file") {
		s.QueryFilePath = f.queryFile
	}
	if changed("data-file") {
		s.DataFilePath = f.dataFile
	}
	if changed("output") {
		s.Output = f.output
	}
	if changed("vars") {
		s.Vars = f.vars
	}
	if changed("auth") {
		s.Auth = f.auth
	}
	if changed("dry-run") {
		s.DryRun = f.dryRun
	}
	if changed("runner-os") {
		s.RunnerOS = f.runnerOS
	}
	if changed("cli-path") {
		s.CLIPath = f.cliPath
	}
	if changed("is-command") {
		s.IsCommand = f.isCommand
	}
	if changed("on-failure") {
		s.OnFailure = f.onFailure
	}
	if changed("auth-file") {
		s.AuthFilePath = f.authFile
	}
	if changed("auth-secret-ref") {
		s.AuthSecretRef = f.authSecretRef
	}
}

package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/systmms/stackql-exec/internal/command"
	dserrors "github.com/systmms/stackql-exec/internal/errors"
	"github.com/systmms/stackql-exec/internal/logging"
	"github.com/systmms/stackql-exec/internal/platform"
	"github.com/systmms/stackql-exec/internal/report"
	"github.com/systmms/stackql-exec/pkg/exec"
)

// Policy decides what happens after a runtime failure.
type Policy string

const (
	// PolicyExit signals a hard failure.
	PolicyExit Policy = "exit"
	// PolicyContinue logs the failure and carries on.
	PolicyContinue Policy = "continue"
)

// ParsePolicy validates an on_failure value.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(value) {
	case PolicyExit, PolicyContinue:
		return Policy(value), nil
	}
	return "", dserrors.ConfigError{
		Field:      "ON_FAILURE",
		Message:    fmt.Sprintf("on_failure must be one of exit, continue: %s", value),
		Suggestion: "Set on_failure to 'exit' or 'continue'",
	}
}

// Class is the classification of one execution.
type Class string

const (
	SuccessQueryResult   Class = "success-query-result"
	SuccessCommandOutput Class = "success-command-output"
	QueryError           Class = "query-error"
	CommandError         Class = "command-error"
	ProcessFailure       Class = "process-failure"
)

// Options are the execution-mode flags for one run.
type Options struct {
	// IsCommand marks a side-effecting command whose result is on stderr.
	IsCommand bool
	// OnFailure is the runtime failure policy.
	OnFailure Policy
	// DryRun means stdout holds the rendered query instead of results.
	DryRun bool
}

func (o Options) mode() string {
	if o.IsCommand {
		return "command"
	}
	return "query"
}

// Outcome is the result of running one command.
type Outcome struct {
	ExitCode      int
	Stdout        string
	Stderr        string
	Class         Class
	Failed        bool
	RenderedQuery string
	Duration      time.Duration
}

// Observer receives one observation per finished run.
type Observer interface {
	ObserveInvocation(mode, class string, duration time.Duration)
}

// Classifier runs commands and reports their outcome.
type Classifier struct {
	executor exec.CommandExecutor
	reporter report.Reporter
	logger   *logging.Logger
	filters  []StreamFilter
	custom   bool
	observer Observer
	now      func() time.Time
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithFilters replaces the platform default stream filters.
func WithFilters(filters ...StreamFilter) Option {
	return func(c *Classifier) {
		c.filters = filters
		c.custom = true
	}
}

// WithObserver records every run on o.
func WithObserver(o Observer) Option {
	return func(c *Classifier) {
		c.observer = o
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Classifier) {
		c.logger = l
	}
}

// New creates a Classifier.
func New(executor exec.CommandExecutor, reporter report.Reporter, opts ...Option) *Classifier {
	c := &Classifier{
		executor: executor,
		reporter: reporter,
		logger:   logging.New(false, true),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultFilters returns the stream filters for p.
func DefaultFilters(p platform.Platform) []StreamFilter {
	if platform.Resolve(p, "").DecodesDebugMarkers() {
		return []StreamFilter{DecodeDebugMarkers}
	}
	return nil
}

// Run executes cmd and routes its output. The returned error is non-nil
// only for configuration problems detected before the process starts;
// runtime failures are reported and reflected in Outcome.Failed.
func (c *Classifier) Run(ctx context.Context, cmd command.Command, opts Options) (Outcome, error) {
	if _, err := ParsePolicy(string(opts.OnFailure)); err != nil {
		return Outcome{}, err
	}
	if cmd.IsZero() {
		return Outcome{}, dserrors.ConfigError{
			Field:   report.CommandVariable,
			Message: "no stackql command to execute",
		}
	}

	filters := c.filters
	if !c.custom {
		filters = DefaultFilters(cmd.Platform())
	}

	c.logger.Debug("Executing: %s", cmd.Redacted())

	start := c.now()
	result, runErr := c.executor.Execute(ctx, cmd.Executable(), cmd.Args()...)
	duration := c.now().Sub(start)

	streams := applyFilters(Streams{
		Stdout: string(result.Stdout),
		Stderr: string(result.Stderr),
	}, filters)

	outcome := Outcome{
		ExitCode: result.ExitCode,
		Stdout:   streams.Stdout,
		Stderr:   streams.Stderr,
		Duration: duration,
	}

	if runErr != nil {
		c.processFailure(cmd, opts, runErr, &outcome)
	} else {
		c.route(opts, &outcome)
	}

	if c.observer != nil {
		c.observer.ObserveInvocation(opts.mode(), string(outcome.Class), duration)
	}
	return outcome, nil
}

func (c *Classifier) processFailure(cmd command.Command, opts Options, runErr error, outcome *Outcome) {
	outcome.Class = ProcessFailure
	if opts.IsCommand && outcome.ExitCode > 0 {
		outcome.Class = CommandError
	}

	var err error
	if exec.IsNotFound(runErr) {
		err = dserrors.WrapCommandNotFound(cmd.Executable(), runErr)
	} else {
		err = dserrors.CommandError{
			Command:  cmd.Redacted(),
			ExitCode: outcome.ExitCode,
			Message:  firstNonEmpty(outcome.Stderr, runErr.Error()),
			Err:      runErr,
		}
	}

	if outcome.Stderr != "" {
		c.reporter.ExportResult(report.QueryErrorOutput, outcome.Stderr)
	}
	if outcome.Stdout != "" {
		c.logger.Debug("stdout of failed run: %s", outcome.Stdout)
	}

	c.reporter.Error(fmt.Sprintf("Error executing stackql: %s", err.Error()))
	if opts.OnFailure == PolicyContinue {
		c.reporter.Warn("stackql did not complete, continuing because on_failure is 'continue'")
		return
	}
	c.fail(dserrors.Message(err), outcome)
}

func (c *Classifier) route(opts Options, outcome *Outcome) {
	if opts.IsCommand {
		outcome.Class = SuccessCommandOutput
	} else {
		outcome.Class = SuccessQueryResult
	}

	switch {
	case outcome.Stdout == "":
		c.reporter.Log("STDOUT: (empty)")
	case opts.IsCommand:
		c.reporter.Log("STDOUT: " + outcome.Stdout)
	default:
		c.reporter.Log("STDOUT: " + outcome.Stdout)
		if opts.DryRun {
			c.renderedQuery(outcome)
		}
		c.reporter.ExportResult(report.QueryResultsOutput, outcome.Stdout)
	}

	switch {
	case outcome.Stderr == "":
		c.reporter.Log("STDERR: (empty)")
	case opts.IsCommand:
		c.reporter.Log("Command output: " + outcome.Stderr)
		c.reporter.ExportResult(report.CommandOutputOutput, outcome.Stderr)
	default:
		outcome.Class = QueryError
		c.reporter.ExportResult(report.QueryErrorOutput, outcome.Stderr)
		c.reporter.Error(fmt.Sprintf("Error executing query: %s", outcome.Stderr))
		if opts.OnFailure == PolicyContinue {
			c.reporter.Log("on_failure is 'continue', not failing the step")
			return
		}
		c.fail(outcome.Stderr, outcome)
	}
}

type dryRunEntry struct {
	Query string `json:"query"`
}

// renderedQuery extracts the query text from dry-run output, which is a
// single-element JSON list.
func (c *Classifier) renderedQuery(outcome *Outcome) {
	var entries []dryRunEntry
	if err := json.Unmarshal([]byte(outcome.Stdout), &entries); err != nil {
		c.reporter.Warn(fmt.Sprintf("Unable to parse dry run output: %v", err))
		return
	}
	if len(entries) == 0 {
		c.reporter.Warn("Dry run output contained no query")
		return
	}
	outcome.RenderedQuery = entries[0].Query
	c.reporter.Log("Dry run query:\n" + outcome.RenderedQuery)
}

func (c *Classifier) fail(message string, outcome *Outcome) {
	c.reporter.Fail(message)
	outcome.Failed = true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

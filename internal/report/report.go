// Package report is the output facade of stackql-exec: plain log lines,
// warnings and errors, masked values, exported variables and named step
// results, and the hard-failure signal.
package report

// Result channel names.
const (
	CommandVariable     = "STACKQL_COMMAND"
	AuthVariable        = "AUTH"
	QueryResultsOutput  = "stackql-query-results"
	CommandOutputOutput = "stackql-command-output"
	QueryErrorOutput    = "stackql-query-error"
)

// Reporter receives every user-visible side effect of an invocation.
type Reporter interface {
	// Log writes an informational line.
	Log(message string)

	// Warn writes a warning annotation.
	Warn(message string)

	// Error writes an error annotation without failing the invocation.
	Error(message string)

	// Mask registers a value that must never be printed.
	Mask(value string)

	// ExportVariable makes name=value visible to later steps' environment.
	ExportVariable(name, value string)

	// ExportResult sets the named step output.
	ExportResult(name, value string)

	// Fail reports message as an error and marks the invocation failed.
	Fail(message string)

	// Failed reports whether Fail was called.
	Failed() bool
}

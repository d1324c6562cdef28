// Package classify runs an assembled stackql command and routes what it
// printed to the right result channel.
//
// stackql writes structured query results to stdout. Side-effecting
// commands (INSERT, DELETE, REGISTRY PULL and friends) print their
// informational result on stderr, while read-only queries only use stderr
// to report errors. A Classifier therefore needs to know which kind of
// invocation it runs:
//
//	outcome, err := classify.New(exec.DefaultExecutor(), reporter).Run(ctx, cmd, classify.Options{
//		IsCommand: false,
//		OnFailure: classify.PolicyExit,
//	})
//
// # Stream filters
//
// Captured output passes through a chain of StreamFilter functions before
// it is classified. On non-windows runners the default chain decodes the
// ::debug::stdout: and ::debug::stderr: lines that a wrapped stackql
// re-injects into the captured streams. Filters can be replaced with
// WithFilters without touching the routing rules.
//
// # Failure policy
//
// PolicyExit turns process failures and query errors into a hard failure
// on the reporter. PolicyContinue only logs them. Configuration errors are
// returned to the caller and are never subject to the policy.
package classify

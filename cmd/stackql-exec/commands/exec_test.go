package commands

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/stackql-exec/internal/testutil"
)

func TestExecCommandRouting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		env        map[string]string
		response   testutil.MockResponse
		wantStdout []string
		wantStderr []string
		wantFailed bool
	}{
		{
			name:       "query results",
			env:        map[string]string{},
			response:   testutil.MockResponse{Stdout: `[{"name":"stackql"}]`},
			wantStdout: []string{`stackql-query-results=[{"name":"stackql"}]`},
			wantStderr: []string{`STDOUT: [{"name":"stackql"}]`, "STDERR: (empty)"},
		},
		{
			name:       "command output",
			env:        map[string]string{"IS_COMMAND": "true"},
			response:   testutil.MockResponse{Stderr: "provider pulled"},
			wantStdout: []string{"stackql-command-output=provider pulled"},
			wantStderr: []string{"STDOUT: (empty)", "Command output: provider pulled"},
		},
		{
			name:       "query error fails the step",
			env:        map[string]string{},
			response:   testutil.MockResponse{Stderr: "table not found"},
			wantStdout: []string{"stackql-query-error=table not found"},
			wantStderr: []string{"Error executing query: table not found"},
			wantFailed: true,
		},
		{
			name:       "query error with continue",
			env:        map[string]string{"ON_FAILURE": "continue"},
			response:   testutil.MockResponse{Stderr: "table not found"},
			wantStdout: []string{"stackql-query-error=table not found"},
			wantStderr: []string{"on_failure is 'continue', not failing the step"},
		},
		{
			name: "process failure",
			env:  map[string]string{},
			response: testutil.MockResponse{
				Stderr:   "fatal: bad flag",
				Err:      fmt.Errorf("exit status 2"),
				ExitCode: 2,
			},
			wantStdout: []string{"stackql-query-error=fatal: bad flag"},
			wantStderr: []string{"Error executing stackql"},
			wantFailed: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := map[string]string{"STACKQL_COMMAND": `stackql exec "SELECT 1" --output json`, "RUNNER_OS": "Linux"}
			for k, v := range tt.env {
				env[k] = v
			}
			h := newHarness(t, env)
			resp := tt.response
			h.mock.DefaultResponse = &resp

			err := h.execute("exec")
			require.NoError(t, err)

			for _, want := range tt.wantStdout {
				assert.Contains(t, h.stdout.String(), want)
			}
			for _, want := range tt.wantStderr {
				assert.Contains(t, h.stderr.String(), want)
			}
			assert.Equal(t, tt.wantFailed, h.rt.Failed())

			call, ok := h.mock.LastCall()
			require.True(t, ok)
			assert.Equal(t, "stackql", call.Command)
			assert.Equal(t, []string{"exec", "SELECT 1", "--output", "json"}, call.Args)
		})
	}
}

func TestExecCommandMissingCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{})
	err := h.execute("exec")

	require.Error(t, err)
	assert.True(t, h.rt.Failed())
	assert.Contains(t, h.stderr.String(), "Cannot find STACKQL_COMMAND environment variable")
	assert.Equal(t, 0, h.mock.CallCount())
}

func TestExecCommandFlagOverridesEnvironment(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{"STACKQL_COMMAND": "stackql exec \"SELECT 1\" --output json", "RUNNER_OS": "Linux"})
	h.mock.DefaultResponse = &testutil.MockResponse{Stderr: "registry pulled"}

	require.NoError(t, h.execute("exec", "--command", `stackql registry pull github`, "--is-command"))

	call, ok := h.mock.LastCall()
	require.True(t, ok)
	assert.Equal(t, []string{"registry", "pull", "github"}, call.Args)
	assert.Contains(t, h.stdout.String(), "stackql-command-output=registry pulled")
}

func TestExecCommandInvalidPolicy(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{"STACKQL_COMMAND": "stackql exec \"SELECT 1\" --output json"})

	err := h.execute("exec", "--on-failure", "retry")
	require.Error(t, err)
	assert.Contains(t, h.stderr.String(), "on_failure must be one of exit, continue: retry")
	assert.Equal(t, 0, h.mock.CallCount())
}

func TestExecCommandDryRun(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{
		"STACKQL_COMMAND": `stackql exec "SELECT 1" --output json --dryrun`,
		"DRY_RUN":         "true",
		"RUNNER_OS":       "Linux",
	})
	h.mock.DefaultResponse = &testutil.MockResponse{Stdout: `[{"query":"SELECT 1"}]`}

	require.NoError(t, h.execute("exec"))
	assert.Contains(t, h.stderr.String(), "Dry run query:\nSELECT 1")
}

func TestExecCommandDryRunFlagInCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{
		"STACKQL_COMMAND": `stackql exec "SELECT 2" --output json --dryrun`,
		"RUNNER_OS":       "Linux",
	})
	h.mock.DefaultResponse = &testutil.MockResponse{Stdout: `[{"query":"SELECT 2"}]`}

	require.NoError(t, h.execute("exec"))
	assert.Contains(t, h.stderr.String(), "Dry run query:\nSELECT 2")
}

func TestExecCommandFailureDoesNotLeakAuth(t *testing.T) {
	t.Parallel()

	for _, withAuthEnv := range []bool{true, false} {
		withAuthEnv := withAuthEnv
		t.Run(fmt.Sprintf("AUTH set %v", withAuthEnv), func(t *testing.T) {
			t.Parallel()

			auth := `{"github": {"type": "basic", "credentialsenvvar": "TOPSECRETVALUE"}}`
			built := newHarness(t, map[string]string{"QUERY": "SELECT 1", "AUTH": auth, "RUNNER_OS": "Linux"})
			require.NoError(t, built.execute("build"))
			line := strings.TrimSuffix(strings.TrimPrefix(built.stdout.String(), "STACKQL_COMMAND="), "\n")
			require.Contains(t, line, `\"TOPSECRETVALUE\"`)

			env := map[string]string{"STACKQL_COMMAND": line, "RUNNER_OS": "Linux"}
			if withAuthEnv {
				env["AUTH"] = auth
			}
			h := newHarness(t, env)
			h.mock.DefaultResponse = &testutil.MockResponse{
				Stderr:   "boom",
				Err:      fmt.Errorf("exit status 1"),
				ExitCode: 1,
			}

			require.NoError(t, h.execute("exec", "--debug"))
			assert.True(t, h.rt.Failed())
			assert.Contains(t, h.stderr.String(), "Error executing stackql")
			assert.Contains(t, h.stderr.String(), "[REDACTED]")
			assert.NotContains(t, h.stderr.String(), "TOPSECRETVALUE")

			call, ok := h.mock.LastCall()
			require.True(t, ok)
			assert.Contains(t, call.Args, auth)
		})
	}
}

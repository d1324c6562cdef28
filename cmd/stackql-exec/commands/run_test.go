package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/stackql-exec/internal/testutil"
)

func TestRunCommand(t *testing.T) {
	t.Parallel()

	auth := `{"github":{"type":"basic","credentialsenvvar":"STACKQL_GITHUB_CREDS"}}`
	h := newHarness(t, map[string]string{
		"AUTH_STR":  auth,
		"QUERY":     "SELECT name FROM github.repos.repos WHERE org = 'stackql'",
		"RUNNER_OS": "Linux",
	})
	h.mock.DefaultResponse = &testutil.MockResponse{Stdout: `[{"name":"stackql"}]`}

	require.NoError(t, h.execute("run"))
	assert.False(t, h.rt.Failed())

	out := h.stdout.String()
	assert.Contains(t, out, "AUTH="+auth)
	assert.Contains(t, out, `STACKQL_COMMAND=stackql exec "SELECT name FROM github.repos.repos WHERE org = 'stackql'" --output json --auth`)
	assert.Contains(t, out, `stackql-query-results=[{"name":"stackql"}]`)

	call, ok := h.mock.LastCall()
	require.True(t, ok)
	assert.Equal(t, []string{
		"exec", "SELECT name FROM github.repos.repos WHERE org = 'stackql'",
		"--output", "json", "--auth", auth,
	}, call.Args)

	assert.NotContains(t, h.stderr.String(), "STACKQL_GITHUB_CREDS")
}

func TestRunCommandWithoutAuth(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{"QUERY": "SELECT 1", "RUNNER_OS": "Linux"})
	h.mock.DefaultResponse = &testutil.MockResponse{Stdout: "[]"}

	require.NoError(t, h.execute("run", "--output", "csv"))
	assert.Contains(t, h.stderr.String(), "skipping auth setup")
	assert.Contains(t, h.stdout.String(), `STACKQL_COMMAND=stackql exec "SELECT 1" --output csv`+"\n")
}

func TestRunCommandStopsOnBuildError(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{"RUNNER_OS": "Linux"})

	err := h.execute("run")
	require.Error(t, err)
	assert.True(t, h.rt.Failed())
	assert.Contains(t, h.stderr.String(), "either query or query_file_path need to be set")
	assert.Equal(t, 0, h.mock.CallCount())
}

func TestRunCommandInvalidPolicyExportsNothing(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{
		"AUTH_STR":   `{"github":{"type":"basic"}}`,
		"QUERY":      "SELECT 1",
		"ON_FAILURE": "ignore",
		"RUNNER_OS":  "Linux",
	})

	err := h.execute("run")
	require.Error(t, err)
	assert.True(t, h.rt.Failed())
	assert.Contains(t, h.stderr.String(), "on_failure must be one of exit, continue: ignore")
	assert.Empty(t, h.stdout.String())
	assert.Equal(t, 0, h.mock.CallCount())
}

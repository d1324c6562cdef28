package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/systmms/stackql-exec/internal/config"
	"github.com/systmms/stackql-exec/internal/metrics"
	"github.com/systmms/stackql-exec/internal/testutil"
)

type harness struct {
	rt     *Runtime
	mock   *testutil.MockCommandExecutor
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	config string
}

func newHarness(t *testing.T, env map[string]string) *harness {
	t.Helper()

	h := &harness{
		mock:   testutil.NewMockCommandExecutor(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		config: filepath.Join(t.TempDir(), "stackql-exec.yaml"),
	}
	h.rt = &Runtime{
		Config: &config.Config{},
		Lookup: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
		Stdout:   h.stdout,
		Stderr:   h.stderr,
		Executor: h.mock,
		Metrics:  metrics.New(),
	}
	return h
}

// execute runs the root command with the console reporter.
func (h *harness) execute(args ...string) error {
	root := NewRootCommand(h.rt, "test")
	root.SetArgs(append([]string{"--config", h.config, "--reporter", ReporterConsole, "--no-color"}, args...))
	return root.Execute()
}

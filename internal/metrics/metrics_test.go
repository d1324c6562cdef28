package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveInvocation(t *testing.T) {
	t.Parallel()

	r := New()
	r.ObserveInvocation("query", "success-query-result", 2*time.Second)
	r.ObserveInvocation("query", "success-query-result", time.Second)
	r.ObserveInvocation("command", "success-command-output", time.Second)

	assert.Equal(t, 2.0, promtestutil.ToFloat64(r.invocations.WithLabelValues("query", "success-query-result")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(r.invocations.WithLabelValues("command", "success-command-output")))
	assert.Equal(t, 2, promtestutil.CollectAndCount(r.duration))
}

func TestRecordAuthSetupAndBuild(t *testing.T) {
	t.Parallel()

	r := New()
	r.RecordAuthSetup("AUTH_STR")
	r.RecordAuthSetup("")
	r.RecordBuild(nil)
	r.RecordBuild(errors.New("output format not supported: yaml"))
	r.RecordBuild(nil)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(r.authSetups.WithLabelValues("AUTH_STR")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(r.authSetups.WithLabelValues("none")))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(r.builds.WithLabelValues("success")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(r.builds.WithLabelValues("error")))
}

func TestRecordersAreIndependent(t *testing.T) {
	t.Parallel()

	a, b := New(), New()
	a.RecordBuild(nil)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(a.builds.WithLabelValues("success")))
	assert.Equal(t, 0.0, promtestutil.ToFloat64(b.builds.WithLabelValues("success")))
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	r := New()
	r.ObserveInvocation("query", "query-error", 500*time.Millisecond)

	require.NoError(t, r.WriteFile(""))

	path := filepath.Join(t.TempDir(), "stackql-exec.prom")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.Contains(content, `stackql_exec_invocations_total{class="query-error",mode="query"} 1`), content)
	assert.Contains(t, content, "stackql_exec_invocation_duration_seconds_bucket")

	expected := `
# HELP stackql_exec_invocations_total Total number of stackql executions by mode and outcome class
# TYPE stackql_exec_invocations_total counter
stackql_exec_invocations_total{class="query-error",mode="query"} 1
`
	assert.NoError(t, promtestutil.GatherAndCompare(r.Gatherer(), strings.NewReader(expected), "stackql_exec_invocations_total"))
}

// Package reporttest provides a recording Reporter for tests.
package reporttest

import (
	"sync"

	"github.com/systmms/stackql-exec/internal/report"
)

// Recorder captures every call made through the report.Reporter interface.
type Recorder struct {
	mu sync.Mutex

	Logs      []string
	Warnings  []string
	Errors    []string
	Masks     []string
	Variables map[string]string
	Results   map[string]string
	Failures  []string
}

// New creates an empty Recorder.
func New() *Recorder {
	return &Recorder{
		Variables: make(map[string]string),
		Results:   make(map[string]string),
	}
}

func (r *Recorder) Log(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Logs = append(r.Logs, message)
}

func (r *Recorder) Warn(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, message)
}

func (r *Recorder) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, message)
}

func (r *Recorder) Mask(value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Masks = append(r.Masks, value)
}

func (r *Recorder) ExportVariable(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Variables[name] = value
}

func (r *Recorder) ExportResult(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results[name] = value
}

// Fail records message as a failure.
func (r *Recorder) Fail(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures = append(r.Failures, message)
}

func (r *Recorder) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Failures) > 0
}

// Result returns the named output and whether it was set.
func (r *Recorder) Result(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.Results[name]
	return v, ok
}

var _ report.Reporter = (*Recorder)(nil)

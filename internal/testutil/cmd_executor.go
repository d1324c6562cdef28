// Package testutil provides testing utilities for stackql-exec.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/systmms/stackql-exec/pkg/exec"
)

// MockCommandExecutor provides a configurable mock for the stackql process.
type MockCommandExecutor struct {
	mu sync.Mutex

	// Responses maps command patterns to their mock responses.
	// Key format: "command arg1 arg2" (space-separated command and args)
	Responses map[string]MockResponse

	// DefaultResponse is used when no matching pattern is found.
	DefaultResponse *MockResponse

	// RecordedCalls stores all calls made to Execute for verification.
	RecordedCalls []RecordedCall

	// StrictMode causes Execute to fail if no matching response is found.
	StrictMode bool
}

// MockResponse defines the expected output for a mocked command.
type MockResponse struct {
	Stdout   string
	Stderr   string
	Err      error
	ExitCode int
}

// RecordedCall stores information about a command execution.
type RecordedCall struct {
	Command string
	Args    []string
	Context context.Context
}

// NewMockCommandExecutor creates a new mock executor with empty responses.
func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{
		Responses:     make(map[string]MockResponse),
		RecordedCalls: make([]RecordedCall, 0),
	}
}

// Returning creates a mock that answers every call with resp.
func Returning(resp MockResponse) *MockCommandExecutor {
	m := NewMockCommandExecutor()
	m.DefaultResponse = &resp
	return m
}

// Execute returns the mocked response for the given command.
func (m *MockCommandExecutor) Execute(ctx context.Context, name string, args ...string) (exec.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RecordedCalls = append(m.RecordedCalls, RecordedCall{
		Command: name,
		Args:    args,
		Context: ctx,
	})

	key := m.buildKey(name, args)

	if resp, ok := m.Responses[key]; ok {
		return resp.result(), resp.Err
	}

	for pattern, resp := range m.Responses {
		if strings.HasPrefix(key, pattern) {
			return resp.result(), resp.Err
		}
	}

	if m.DefaultResponse != nil {
		return m.DefaultResponse.result(), m.DefaultResponse.Err
	}

	if m.StrictMode {
		return exec.Result{ExitCode: -1}, fmt.Errorf("mock: no response configured for command: %s", key)
	}

	return exec.Result{}, nil
}

func (r MockResponse) result() exec.Result {
	return exec.Result{
		Stdout:   []byte(r.Stdout),
		Stderr:   []byte(r.Stderr),
		ExitCode: r.ExitCode,
	}
}

// buildKey creates a lookup key from command and arguments.
func (m *MockCommandExecutor) buildKey(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// AddResponse registers a mock response for a specific command pattern.
func (m *MockCommandExecutor) AddResponse(commandPattern string, response MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[commandPattern] = response
}

// AddErrorResponse adds a failing response for a command pattern.
func (m *MockCommandExecutor) AddErrorResponse(commandPattern string, errMsg string, exitCode int) {
	m.AddResponse(commandPattern, MockResponse{
		Stderr:   errMsg,
		Err:      fmt.Errorf("exit status %d", exitCode),
		ExitCode: exitCode,
	})
}

// CallCount returns the number of times Execute was called.
func (m *MockCommandExecutor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RecordedCalls)
}

// LastCall returns the most recent call, or false if there was none.
func (m *MockCommandExecutor) LastCall() (RecordedCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.RecordedCalls) == 0 {
		return RecordedCall{}, false
	}
	return m.RecordedCalls[len(m.RecordedCalls)-1], true
}

var _ exec.CommandExecutor = (*MockCommandExecutor)(nil)

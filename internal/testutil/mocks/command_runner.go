// Package mocks provides test doubles for testing.
package mocks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/socforge/socforge/internal/ports"
)

// CommandRunner is a thread-safe test double for ports.CommandRunner.
type CommandRunner struct {
	mu      sync.RWMutex
	results map[string]ports.CommandResult
	errors  map[string]error
	calls   []ports.CommandCall
}

// NewCommandRunner creates a new CommandRunner mock.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		results: make(map[string]ports.CommandResult),
		errors:  make(map[string]error),
		calls:   make([]ports.CommandCall, 0),
	}
}

// AddResult registers an expected command and its result.
func (m *CommandRunner) AddResult(command string, args []string, result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[buildKey(command, args)] = result
}

// AddError registers an expected command that should return an error.
func (m *CommandRunner) AddError(command string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[buildKey(command, args)] = err
}

// Run executes a mock command.
func (m *CommandRunner) Run(_ context.Context, command string, args ...string) (ports.CommandResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ports.CommandCall{Command: command, Args: args})
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	key := buildKey(command, args)

	if err, ok := m.errors[key]; ok {
		return ports.CommandResult{}, err
	}
	if result, ok := m.results[key]; ok {
		return result, nil
	}

	return ports.CommandResult{}, fmt.Errorf("no mock result for command: %s %v", command, args)
}

// Calls returns all recorded command invocations.
func (m *CommandRunner) Calls() []ports.CommandCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]ports.CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Reset clears all registered results, errors, and recorded calls.
func (m *CommandRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string]ports.CommandResult)
	m.errors = make(map[string]error)
	m.calls = make([]ports.CommandCall, 0)
}

// buildKey creates a unique key for a command and its arguments.
func buildKey(command string, args []string) string {
	return command + ":" + strings.Join(args, ":")
}

// StreamRunner is a test double for ports.StreamRunner. It writes the
// configured output to the stream writer and returns the configured
// exit code.
type StreamRunner struct {
	mu       sync.Mutex
	Output   string
	ExitCode int
	Err      error
	calls    []ports.CommandCall
	envs     [][]string
}

// NewStreamRunner creates a new StreamRunner mock.
func NewStreamRunner() *StreamRunner {
	return &StreamRunner{}
}

// Stream records the call, emits Output to out, and returns ExitCode.
func (m *StreamRunner) Stream(_ context.Context, out io.Writer, env []string, command string, args ...string) (int, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ports.CommandCall{Command: command, Args: args})
	m.envs = append(m.envs, env)
	m.mu.Unlock()

	if m.Err != nil {
		return -1, m.Err
	}
	if m.Output != "" {
		_, _ = io.WriteString(out, m.Output)
	}
	return m.ExitCode, nil
}

// Calls returns all recorded stream invocations.
func (m *StreamRunner) Calls() []ports.CommandCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]ports.CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Envs returns the extra environment passed to each invocation.
func (m *StreamRunner) Envs() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	envs := make([][]string, len(m.envs))
	copy(envs, m.envs)
	return envs
}

// Ensure the mocks implement their ports.
var (
	_ ports.CommandRunner = (*CommandRunner)(nil)
	_ ports.StreamRunner  = (*StreamRunner)(nil)
)

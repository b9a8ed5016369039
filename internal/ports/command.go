// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"io"
)

// CommandResult represents the result of executing a shell command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
}

// CommandRunner executes shell commands and buffers their output.
type CommandRunner interface {
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)
}

// StreamRunner executes long-running commands, relaying combined
// stdout/stderr to the given writer as it is produced. The returned
// exit code is the subprocess's own, captured after the output copy
// has drained.
type StreamRunner interface {
	Stream(ctx context.Context, out io.Writer, env []string, command string, args ...string) (int, error)
}

// Package command provides command execution adapters.
package command

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/socforge/socforge/internal/ports"
)

// RealRunner executes actual shell commands with buffered output.
type RealRunner struct{}

// NewRealRunner creates a new RealRunner.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// Run executes a command and returns the result.
func (r *RealRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := ports.CommandResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}

	return result, nil
}

// RealStreamRunner executes commands whose output must be relayed live.
type RealStreamRunner struct{}

// NewRealStreamRunner creates a new RealStreamRunner.
func NewRealStreamRunner() *RealStreamRunner {
	return &RealStreamRunner{}
}

// Stream runs the command with stdout and stderr combined into a single
// pipe, copying to out as the subprocess produces it. The exit code is
// taken from the subprocess itself, after the copy goroutine has drained
// the pipe, so intermediate relaying can never mask the real status.
func (r *RealStreamRunner) Stream(ctx context.Context, out io.Writer, env []string, command string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = nil

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return -1, err
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return -1, err
	}

	done := make(chan error, 1)
	go func() {
		_, copyErr := io.Copy(out, pipe)
		done <- copyErr
	}()

	// Drain before Wait: Wait closes the pipe.
	copyErr := <-done
	err = cmd.Wait()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, err
	}
	if copyErr != nil {
		return 0, copyErr
	}
	return 0, nil
}

// Ensure the adapters implement their ports.
var (
	_ ports.CommandRunner = (*RealRunner)(nil)
	_ ports.StreamRunner  = (*RealStreamRunner)(nil)
)

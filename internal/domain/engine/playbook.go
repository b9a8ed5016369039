package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/socforge/socforge/internal/domain/config"
	"github.com/socforge/socforge/internal/ports"
)

// InvocationResult is the authoritative outcome of the delegate run.
type InvocationResult struct {
	ExitCode int
}

// Success returns true if the delegate exited cleanly.
func (r InvocationResult) Success() bool {
	return r.ExitCode == 0
}

// Playbook delegates execution to ansible-playbook with an explicit
// inventory and verbatim pass-through arguments.
type Playbook struct {
	runner    ports.StreamRunner
	fs        ports.FileSystem
	playbook  string
	inventory string
}

// NewPlaybook creates the delegate invoker.
func NewPlaybook(settings config.Settings, runner ports.StreamRunner, fs ports.FileSystem) *Playbook {
	return &Playbook{
		runner:    runner,
		fs:        fs,
		playbook:  settings.PlaybookPath,
		inventory: settings.InventoryPath,
	}
}

// Validate fails if the entry point or inventory is missing.
func (p *Playbook) Validate() error {
	if !p.fs.Exists(p.playbook) {
		return config.NewUserError(config.ErrCodePlaybookMissing,
			fmt.Sprintf("playbook %s not found", p.playbook)).
			WithContext(p.playbook).
			WithSuggestion("Run the installer from the repository root; the entry-point playbook must sit beside it.")
	}
	if !p.fs.Exists(p.inventory) {
		return config.NewUserError(config.ErrCodeInventoryMissing,
			fmt.Sprintf("inventory %s not found", p.inventory)).
			WithContext(p.inventory).
			WithSuggestion("Run the installer from the repository root; the inventory file must sit beside it.")
	}
	return nil
}

// Run invokes the engine non-interactively, streaming combined output to
// out while it executes. Caller-supplied args are appended verbatim, so
// --check, --tags and --skip-tags pass through unmodified. The returned
// exit code is the engine process's own.
func (p *Playbook) Run(ctx context.Context, out io.Writer, passthrough ...string) (InvocationResult, error) {
	if err := p.Validate(); err != nil {
		return InvocationResult{ExitCode: -1}, err
	}

	args := append([]string{"-i", p.inventory, p.playbook}, passthrough...)
	env := []string{
		"ANSIBLE_FORCE_COLOR=false",
		"ANSIBLE_HOST_KEY_CHECKING=false",
		"DEBIAN_FRONTEND=noninteractive",
	}

	code, err := p.runner.Stream(ctx, out, env, "ansible-playbook", args...)
	if err != nil {
		return InvocationResult{ExitCode: -1}, fmt.Errorf("invoke ansible-playbook: %w", err)
	}
	return InvocationResult{ExitCode: code}, nil
}

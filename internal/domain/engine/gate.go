// Package engine wraps the external automation engine: version gating,
// collection installation, and the playbook delegation itself.
package engine

import (
	"context"
	"fmt"

	"github.com/socforge/socforge/internal/domain/config"
	"github.com/socforge/socforge/internal/domain/version"
	"github.com/socforge/socforge/internal/ports"
)

// Gate verifies the installed automation engine meets the minimum version.
type Gate struct {
	runner     ports.CommandRunner
	minVersion string
}

// NewGate creates a version gate.
func NewGate(settings config.Settings, runner ports.CommandRunner) *Gate {
	return &Gate{
		runner:     runner,
		minVersion: settings.MinEngineVersion,
	}
}

// InstalledVersion returns the engine's version. A missing binary or
// unparseable output normalizes to version.Unknown so it always orders
// below the minimum.
func (g *Gate) InstalledVersion(ctx context.Context) string {
	result, err := g.runner.Run(ctx, "ansible", "--version")
	if err != nil || !result.Success() {
		return version.Unknown
	}
	return version.Extract(result.Stdout)
}

// Check fails when the installed engine is below the minimum. Upgrading
// a configuration-management tool in place is too risky to automate, so
// the error carries the two manual install paths instead.
func (g *Gate) Check(ctx context.Context) (string, error) {
	installed := g.InstalledVersion(ctx)
	if version.AtLeast(installed, g.minVersion) {
		return installed, nil
	}

	return installed, config.NewUserError(config.ErrCodeEngineTooOld,
		fmt.Sprintf("ansible %s is below the required minimum %s", installed, g.minVersion)).
		WithSuggestion(fmt.Sprintf(
			"Install a current release with either:\n"+
				"    pipx install --include-deps ansible\n"+
				"  or your distribution's backports channel:\n"+
				"    apt-get install -t <codename>-backports ansible\n"+
				"  then re-run this installer. Minimum supported version: %s.", g.minVersion))
}

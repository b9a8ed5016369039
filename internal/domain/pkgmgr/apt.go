// Package pkgmgr ensures required OS packages are present via apt.
package pkgmgr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/socforge/socforge/internal/domain/config"
	"github.com/socforge/socforge/internal/ports"
)

// Apt queries and installs Debian packages through a CommandRunner.
type Apt struct {
	runner    ports.CommandRunner
	fs        ports.FileSystem
	listsDir  string
	staleness time.Duration
	now       func() time.Time
}

// AptOption configures an Apt.
type AptOption func(*Apt)

// WithClock sets the time source (for staleness tests).
func WithClock(now func() time.Time) AptOption {
	return func(a *Apt) { a.now = now }
}

// NewApt creates an Apt manager.
func NewApt(settings config.Settings, runner ports.CommandRunner, fs ports.FileSystem, opts ...AptOption) *Apt {
	a := &Apt{
		runner:    runner,
		fs:        fs,
		listsDir:  settings.AptListsDir,
		staleness: settings.AptStaleness,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Installed reports whether the package is present in the installed state.
func (a *Apt) Installed(ctx context.Context, pkg string) (bool, error) {
	result, err := a.runner.Run(ctx, "dpkg-query", "-W", "-f=${Package}\t${Version}\t${db:Status-Status}\n", pkg)
	if err != nil {
		return false, err
	}

	// dpkg-query exits 1 when the package is unknown.
	if !result.Success() {
		return false, nil
	}
	return strings.Contains(result.Stdout, "installed"), nil
}

// Missing returns the subset of pkgs not yet installed, preserving order.
func (a *Apt) Missing(ctx context.Context, pkgs []string) ([]string, error) {
	var missing []string
	for _, pkg := range pkgs {
		ok, err := a.Installed(ctx, pkg)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", pkg, err)
		}
		if !ok {
			missing = append(missing, pkg)
		}
	}
	return missing, nil
}

// EnsurePackages installs whichever of pkgs are missing, in one batched
// apt-get invocation. It returns the packages it installed; an empty
// slice means the host already satisfied the list and nothing ran.
func (a *Apt) EnsurePackages(ctx context.Context, pkgs []string) ([]string, error) {
	missing, err := a.Missing(ctx, pkgs)
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return nil, nil
	}

	args := append([]string{"install", "-y"}, missing...)
	result, err := a.runner.Run(ctx, "apt-get", args...)
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		return nil, config.NewUserError(config.ErrCodePackageInstallFailed,
			fmt.Sprintf("apt-get install %s failed", strings.Join(missing, " "))).
			WithSuggestion("Check the apt output above; a held or broken package usually needs 'apt-get -f install' first.").
			WithUnderlying(fmt.Errorf("%s", strings.TrimSpace(result.Stderr)))
	}
	return missing, nil
}

// RefreshIndexIfStale runs apt-get update only when the package index is
// older than the staleness threshold or absent. Returns true when a
// refresh actually ran.
func (a *Apt) RefreshIndexIfStale(ctx context.Context) (bool, error) {
	if !a.indexStale() {
		return false, nil
	}

	result, err := a.runner.Run(ctx, "apt-get", "update")
	if err != nil {
		return false, err
	}
	if !result.Success() {
		return false, fmt.Errorf("apt-get update failed: %s", strings.TrimSpace(result.Stderr))
	}
	return true, nil
}

func (a *Apt) indexStale() bool {
	info, err := a.fs.GetFileInfo(a.listsDir)
	if err != nil {
		// No index directory yet: treat as stale.
		return true
	}
	return a.now().Sub(info.ModTime) > a.staleness
}

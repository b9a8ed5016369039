package deploy

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/statekit"

	"github.com/socforge/socforge/internal/domain/audit"
	"github.com/socforge/socforge/internal/domain/config"
	"github.com/socforge/socforge/internal/domain/engine"
	"github.com/socforge/socforge/internal/domain/hostcheck"
	"github.com/socforge/socforge/internal/domain/pkgmgr"
	"github.com/socforge/socforge/internal/ports"
)

// Pipeline runs the full bootstrap sequence. It is single-threaded and
// strictly sequential; the only concurrency lives inside the stream
// runner's output copy.
type Pipeline struct {
	settings config.Settings
	logger   ports.Logger
	trail    *audit.Trail
	checker  *hostcheck.Checker
	apt      *pkgmgr.Apt
	gate     *engine.Gate
	cols     *engine.Collections
	playbook *engine.Playbook
	reporter *Reporter
	console  io.Writer
}

// NewPipeline wires a Pipeline from its collaborators.
func NewPipeline(
	settings config.Settings,
	logger ports.Logger,
	trail *audit.Trail,
	checker *hostcheck.Checker,
	apt *pkgmgr.Apt,
	gate *engine.Gate,
	cols *engine.Collections,
	playbook *engine.Playbook,
	reporter *Reporter,
	console io.Writer,
) *Pipeline {
	return &Pipeline{
		settings: settings,
		logger:   logger,
		trail:    trail,
		checker:  checker,
		apt:      apt,
		gate:     gate,
		cols:     cols,
		playbook: playbook,
		reporter: reporter,
		console:  console,
	}
}

// Run executes the pipeline, appending caller-supplied arguments to the
// delegate invocation verbatim. A nil return means full success; any
// error has already been reported and maps to exit status 1.
func (p *Pipeline) Run(ctx context.Context, argv []string, passthrough []string) error {
	interp, err := buildMachine()
	if err != nil {
		return fmt.Errorf("build pipeline machine: %w", err)
	}
	interp.Start()
	defer interp.Stop()

	p.trail.Banner(argv)

	for {
		phase := Phase(interp.State().Value)

		switch phase {
		case PhaseSucceeded:
			p.reporter.Success()
			return nil

		case PhaseFailed:
			p.reporter.Failure(err)
			return err

		default:
			err = p.runPhase(ctx, phase, passthrough)
			if err != nil {
				p.say(ports.LevelError, fmt.Sprintf("%s: %s", phase, err))
				interp.Send(statekit.Event{Type: EventFail})
			} else {
				interp.Send(statekit.Event{Type: EventAdvance})
			}
		}
	}
}

// Preflight runs only the read-only checks, reporting each. It returns
// an error when any check is fatal.
func (p *Pipeline) Preflight(ctx context.Context) error {
	report := &hostcheck.Report{}
	report.Add(p.checker.Privilege())
	report.Add(p.checker.OS())
	report.Add(p.checker.RAM())
	report.Add(p.checker.Disk())
	report.Add(p.checker.Connectivity(ctx))

	for _, res := range report.Results {
		p.note(res)
	}
	if report.Fatal() {
		return fmt.Errorf("preflight validation failed")
	}
	return nil
}

func (p *Pipeline) runPhase(ctx context.Context, phase Phase, passthrough []string) error {
	switch phase {
	case PhasePrivilege:
		return p.fatalCheck(p.checker.Privilege(), config.ErrCodePrivilegeRequired,
			"Re-run the installer with sudo or as the root user.")

	case PhaseOS:
		return p.fatalCheck(p.checker.OS(), config.ErrCodeOSUnsupported,
			"Supported families: "+strings.Join(p.settings.SupportedOSFamilies, ", ")+".")

	case PhaseResources:
		// Advisory only: low RAM or disk is logged and the run continues.
		p.note(p.checker.RAM())
		p.note(p.checker.Disk())
		return nil

	case PhaseConnectivity:
		return p.fatalCheck(p.checker.Connectivity(ctx), config.ErrCodeNetworkUnreachable,
			"Package and image downloads need outbound HTTPS; check DNS, routing and proxy settings.")

	case PhasePackages:
		return p.installPackages(ctx)

	case PhaseVersionGate:
		installed, err := p.gate.Check(ctx)
		if err != nil {
			return err
		}
		p.say(ports.LevelOK, fmt.Sprintf("ansible %s meets minimum %s", installed, p.settings.MinEngineVersion))
		return nil

	case PhaseCollections:
		return p.installCollections(ctx)

	case PhaseDelegate:
		return p.invokeDelegate(ctx, passthrough)

	default:
		return fmt.Errorf("unknown pipeline phase %q", phase)
	}
}

func (p *Pipeline) installPackages(ctx context.Context) error {
	refreshed, err := p.apt.RefreshIndexIfStale(ctx)
	if err != nil {
		return config.NewUserError(config.ErrCodePackageInstallFailed, "package index refresh failed").
			WithUnderlying(err).
			WithSuggestion("Check apt sources and network access, then re-run.")
	}
	if refreshed {
		p.say(ports.LevelInfo, "package index refreshed")
	} else {
		p.say(ports.LevelInfo, "package index fresh, refresh skipped")
	}

	installed, err := p.apt.EnsurePackages(ctx, p.settings.RequiredPackages)
	if err != nil {
		return err
	}
	if len(installed) == 0 {
		p.say(ports.LevelOK, "all required packages already present")
	} else {
		p.say(ports.LevelOK, "installed: "+strings.Join(installed, ", "))
	}
	return nil
}

// installCollections resolves the manifest's declared names for the log,
// then hands the file to ansible-galaxy. A manifest that does not parse
// is a warning, not an abort: galaxy validates it authoritatively.
func (p *Pipeline) installCollections(ctx context.Context) error {
	names, err := p.cols.Names()
	if err != nil {
		if !config.IsUserError(err, config.ErrCodeConfigParse) {
			return err
		}
		p.say(ports.LevelWarn, fmt.Sprintf("%s; deferring validation to ansible-galaxy", err))
	}

	if err := p.cols.Install(ctx); err != nil {
		return err
	}
	if len(names) == 0 {
		p.say(ports.LevelOK, "collections installed from "+p.settings.ManifestPath)
	} else {
		p.say(ports.LevelOK, "collections installed: "+strings.Join(names, ", "))
	}
	return nil
}

func (p *Pipeline) invokeDelegate(ctx context.Context, passthrough []string) error {
	p.say(ports.LevelInfo, "delegating to ansible-playbook; output follows")

	out := io.MultiWriter(p.console, p.trail.Writer())
	result, err := p.playbook.Run(ctx, out, passthrough...)
	if err != nil {
		return err
	}
	if !result.Success() {
		return config.NewUserError(config.ErrCodeDelegateFailed,
			fmt.Sprintf("ansible-playbook exited with status %d", result.ExitCode))
	}
	p.say(ports.LevelOK, "ansible-playbook completed successfully")
	return nil
}

// fatalCheck logs a check result; failures become UserErrors with the
// given code and suggestion, warnings pass through as advisories.
func (p *Pipeline) fatalCheck(res hostcheck.Result, code, suggestion string) error {
	p.note(res)
	if res.Status == hostcheck.StatusFail {
		return config.NewUserError(code, res.Detail).WithSuggestion(suggestion)
	}
	return nil
}

// note relays a check result to both the console and the audit trail at
// the matching level.
func (p *Pipeline) note(res hostcheck.Result) {
	msg := res.Name + ": " + res.Detail
	switch res.Status {
	case hostcheck.StatusPass:
		p.say(ports.LevelOK, msg)
	case hostcheck.StatusWarn:
		p.say(ports.LevelWarn, msg)
	case hostcheck.StatusFail:
		p.say(ports.LevelError, msg)
	}
}

// say writes one line to the console logger and the audit trail.
func (p *Pipeline) say(level ports.Level, msg string) {
	switch level {
	case ports.LevelOK:
		p.logger.OK(context.Background(), msg)
	case ports.LevelWarn:
		p.logger.Warn(context.Background(), msg)
	case ports.LevelError:
		p.logger.Error(context.Background(), msg)
	default:
		p.logger.Info(context.Background(), msg)
	}
	p.trail.Log(level, msg)
}

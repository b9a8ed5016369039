package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/socforge/socforge/internal/adapters/command"
	"github.com/socforge/socforge/internal/adapters/logging"
	"github.com/socforge/socforge/internal/domain/audit"
	"github.com/socforge/socforge/internal/domain/config"
	"github.com/socforge/socforge/internal/domain/deploy"
	"github.com/socforge/socforge/internal/domain/engine"
	"github.com/socforge/socforge/internal/domain/hostcheck"
	"github.com/socforge/socforge/internal/domain/pkgmgr"
	"github.com/socforge/socforge/internal/ports"
)

var upCmd = &cobra.Command{
	Use:   "up [-- ansible-playbook args...]",
	Short: "Validate the host and deploy the full stack",
	Long: `Up runs the complete bootstrap sequence:

1. Preflight checks (privilege, OS, RAM, disk, connectivity)
2. OS package installation (only what is missing)
3. Automation engine version gate
4. Collection installation from the manifest
5. Delegation to ansible-playbook

Arguments after -- are passed to ansible-playbook verbatim:

  socforge up                          # full deployment
  socforge up -- --check               # dry run, no changes
  socforge up -- --tags siem,soar      # partial deployment
  socforge up -- --skip-tags intel     # exclude a component`,
	Args: cobra.ArbitraryArgs,
	RunE: runUp,
}

func init() {
	rootCmd.AddCommand(upCmd)
}

func runUp(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		printError(err)
		return err
	}

	trail := audit.Open(settings.AuditLogPath)
	defer trail.Close()

	pipeline := buildPipeline(settings, trail)

	if err := pipeline.Run(cmd.Context(), os.Args, args); err != nil {
		// The pipeline has already reported; the error only drives exit status.
		return err
	}
	return nil
}

// buildPipeline wires the pipeline from real adapters.
func buildPipeline(settings config.Settings, trail *audit.Trail) *deploy.Pipeline {
	var (
		fs     = ports.NewOSFileSystem()
		runner = command.NewRealRunner()
		stream = command.NewRealStreamRunner()
		logger = logging.NewConsoleLogger(
			logging.WithOutput(os.Stdout),
			logging.WithColor(settings.Color),
		)
	)

	return deploy.NewPipeline(
		settings,
		logger,
		trail,
		hostcheck.NewChecker(settings),
		pkgmgr.NewApt(settings, runner, fs),
		engine.NewGate(settings, runner),
		engine.NewCollections(settings, runner, fs),
		engine.NewPlaybook(settings, stream, fs),
		deploy.NewReporter(os.Stdout, settings),
		os.Stdout,
	)
}

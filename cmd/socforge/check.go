package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/socforge/socforge/internal/domain/audit"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the preflight checks without changing anything",
	Long: `Check runs the read-only host validations and reports each result.

Nothing is installed and the audit log is not written. Exit status is 0
when the host would pass a full deployment's preflight, 1 otherwise.
Advisory findings (low RAM or disk) are reported but do not fail.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		printError(err)
		return err
	}

	pipeline := buildPipeline(settings, audit.Discard())

	if err := pipeline.Preflight(cmd.Context()); err != nil {
		printError(err)
		return err
	}

	fmt.Println("Host looks ready. Run 'socforge up' to deploy.")
	return nil
}

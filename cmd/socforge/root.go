package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/socforge/socforge/internal/domain/config"
)

var (
	// Global flags
	cfgFile string
	noColor bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "socforge",
	Short: "Single-host SOC stack installer",
	Long: `Socforge bootstraps a complete security-operations stack on one host:
a SIEM/EDR, case management, a SOAR platform, and a threat-intelligence
platform, wired together on a shared container network.

It validates the host, installs prerequisites, then delegates the actual
deployment to ansible-playbook, relaying its output and exit status.`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "socforge.yaml", "optional threshold override file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

// loadSettings builds the immutable run settings once, including the
// color decision from output-stream capability.
func loadSettings() (config.Settings, error) {
	settings, err := config.Load(cfgFile)
	if err != nil {
		return settings, err
	}
	settings.Color = !noColor && lipgloss.ColorProfile() != termenv.Ascii
	return settings, nil
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	if ue := config.GetUserError(err); ue != nil {
		msg := ue.Message
		if ue.Context != "" {
			msg += fmt.Sprintf(" (at %s)", ue.Context)
		}
		if ue.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", ue.Suggestion)
		}
		if verbose && ue.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", ue.Underlying)
		}
		return msg
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

package deploy

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/socforge/socforge/internal/domain/config"
)

// Reporter renders the final boxed summary. It is the only place the
// process outcome is turned into operator-facing prose.
type Reporter struct {
	out      io.Writer
	settings config.Settings
	success  lipgloss.Style
	failure  lipgloss.Style
	muted    lipgloss.Style
}

// NewReporter creates a Reporter writing to out.
func NewReporter(out io.Writer, settings config.Settings) *Reporter {
	success := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"}).
		Padding(0, 2)
	failure := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"}).
		Padding(0, 2)
	muted := lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"})

	if !settings.Color {
		plain := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 2)
		success, failure = plain, plain
		muted = lipgloss.NewStyle()
	}

	return &Reporter{
		out:      out,
		settings: settings,
		success:  success,
		failure:  failure,
		muted:    muted,
	}
}

// Success prints the success banner with the audit-log path and the
// expected service endpoints.
func (r *Reporter) Success() {
	var b strings.Builder
	b.WriteString("Deployment complete\n\n")
	b.WriteString("Services (first start can take several minutes):\n")

	names := make([]string, 0, len(r.settings.ServiceEndpoints))
	for name := range r.settings.ServiceEndpoints {
		names = append(names, name)
	}
	sort.Strings(names)

	width := 0
	for _, name := range names {
		if len(name) > width {
			width = len(name)
		}
	}
	for _, name := range names {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, name, r.settings.ServiceEndpoints[name])
	}
	fmt.Fprintf(&b, "\nAudit log: %s", r.settings.AuditLogPath)

	fmt.Fprintln(r.out, r.success.Render(b.String()))
}

// Failure prints the failure banner with remediation pointers.
func (r *Reporter) Failure(err error) {
	var b strings.Builder
	b.WriteString("Deployment failed\n")

	if ue := config.GetUserError(err); ue != nil {
		b.WriteString("\n" + ue.Format())
	} else if err != nil {
		b.WriteString("\n" + err.Error())
	}

	fmt.Fprintf(&b, "\n\nInspect the run log for the failing task:\n  tail -n 100 %s", r.settings.AuditLogPath)
	if config.IsUserError(err, config.ErrCodeDelegateFailed) {
		b.WriteString("\nCommon causes: a port already bound by another service, or a container\nthat exhausted memory during first start. Re-running is safe; completed\ntasks are skipped.")
	}

	fmt.Fprintln(r.out, r.failure.Render(b.String()))
}

// Note prints a dimmed informational line outside the banners.
func (r *Reporter) Note(msg string) {
	fmt.Fprintln(r.out, r.muted.Render(msg))
}

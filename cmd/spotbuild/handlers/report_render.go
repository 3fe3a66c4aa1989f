package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/spotbuild/internal/provisioning/image"
)

var (
	reportColorGreen = lipgloss.Color("#22c55e")
	reportColorRed   = lipgloss.Color("#ef4444")
	reportColorDim   = lipgloss.Color("#6b7280")
)

var (
	reportOKStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(reportColorGreen)

	reportFailStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(reportColorRed)

	reportDimStyle = lipgloss.NewStyle().
			Foreground(reportColorDim)
)

// renderReport produces the run summary printed after a build.
func renderReport(report *image.Report, runErr error) string {
	var b strings.Builder

	if runErr != nil {
		b.WriteString(reportFailStyle.Render("Build failed"))
	} else {
		b.WriteString(reportOKStyle.Render("Build succeeded"))
	}
	b.WriteString(reportDimStyle.Render(fmt.Sprintf(" (run %s)", report.RunID)))
	b.WriteString("\n")

	if runErr == nil {
		fmt.Fprintf(&b, "  pushed:   %s\n", strings.Join(report.Images, ", "))
	}
	if report.Commit != "" {
		fmt.Fprintf(&b, "  commit:   %s\n", report.Commit)
	}
	if report.InstanceID != "" {
		state := reportDimStyle.Render("termination initiated")
		if !report.Terminated {
			state = reportFailStyle.Render("TERMINATION FAILED, run 'spotbuild cleanup'")
		}
		fmt.Fprintf(&b, "  instance: %s (%s)\n", report.InstanceID, state)
	}
	fmt.Fprintf(&b, "  duration: %s\n", report.Duration.Round(time.Second))

	return b.String()
}

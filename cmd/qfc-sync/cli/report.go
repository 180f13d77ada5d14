package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/davarch/qfc-sync/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Faint(true).Width(18)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func printReport(w io.Writer, s domain.SyncSummary) {
	_, _ = fmt.Fprintln(w, renderReport(s))
}

func renderReport(s domain.SyncSummary) string {
	var b strings.Builder

	if s.OK {
		b.WriteString(titleStyle.Render("QFieldCloud sync: " + okStyle.Render("OK")))
	} else {
		b.WriteString(titleStyle.Render("QFieldCloud sync: " + errStyle.Render("FAILED")))
	}
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}

	row("project", s.ProjectID)
	if s.ProjectIDResolved != "" {
		row("uuid", s.ProjectIDResolved)
	}
	row("local path", s.ProjectPath)
	if s.CreatedProject {
		row("created", "yes")
	}
	if s.UploadResult != nil {
		row("upload", uploadLine(*s.UploadResult))
	}
	if s.ProcessJob != nil {
		row("process job", jobLine(*s.ProcessJob))
	}
	if s.PackageJob != nil {
		row("package job", jobLine(*s.PackageJob))
	}
	if s.OK {
		present := errStyle.Render("missing")
		if s.HasExpectedGPKG {
			present = okStyle.Render("present")
		}
		row("remote files", fmt.Sprintf("%d (%s %s)", s.RemoteFileCount, s.ExpectedGPKG, present))
	}
	for _, w := range s.Warnings {
		row("warning", warnStyle.Render(w))
	}
	for _, e := range s.Errors {
		row("error", errStyle.Render(e))
	}

	return strings.TrimRight(b.String(), "\n")
}

func uploadLine(u domain.UploadOutcome) string {
	counts := map[domain.FileUploadStatus]int{}
	for _, f := range u.Files {
		counts[f.Status]++
	}
	return fmt.Sprintf("%d uploaded, %d skipped, %d failed",
		counts[domain.FileUploaded], counts[domain.FileSkipped], counts[domain.FileFailed])
}

func jobLine(j domain.JobOutcome) string {
	state := string(j.State)
	switch {
	case j.TimedOut:
		state = errStyle.Render("timeout") + " (" + state + ")"
	case j.OK:
		state = okStyle.Render(state)
	case j.State == domain.JobFailed:
		state = errStyle.Render(state)
	}
	return fmt.Sprintf("%s %s, %d polls", j.ID, state, j.Polls)
}

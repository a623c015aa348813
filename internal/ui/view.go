package ui

import (
	"fmt"
	"strings"

	"asciimation/internal/progress"
	"asciimation/internal/util/format"
)

func (m Model) viewHeader() string {
	title := m.styles.Title.Render("asciimation")
	sub := m.styles.Subtitle.Render("Preparing frames • q: quit")
	return title + "\n" + sub
}

func (m Model) viewJob() string {
	stageStyle := m.styles.JobInfo
	switch m.stage {
	case progress.StageMetadata:
		stageStyle = m.styles.StageMeta
	case progress.StageDownloading:
		stageStyle = m.styles.StageDL
	case progress.StageExtracting:
		stageStyle = m.styles.StageAudio
	case progress.StageConverting:
		stageStyle = m.styles.StageConv
	case progress.StageCompleted:
		stageStyle = m.styles.Success
	case progress.StageError:
		stageStyle = m.styles.Error
	}

	left := m.styles.JobTitle.Render(truncate(m.title, 48))
	stage := stageStyle.Render(string(m.stage))

	var right string
	switch {
	case m.percent >= 0 && m.percent <= 100:
		right = fmt.Sprintf("%s %5.1f%%", m.bar.ViewAs(m.percent/100.0), m.percent)
	case m.done && m.err == nil:
		right = m.styles.Success.Render("✓ done")
	case m.err != nil:
		right = m.styles.Error.Render("✗ error")
	default:
		right = m.styles.Spinner.Render(m.spinner.View()) + " " + m.styles.Faint.Render("working")
	}

	lines := []string{fmt.Sprintf("%s  %s", left, stage), right, m.styles.JobInfo.Render(m.detail())}
	for _, l := range m.logs {
		lines = append(lines, m.styles.Faint.Render(truncate(l, 72)))
	}
	return m.styles.Box.Render(strings.Join(lines, "\n"))
}

// detail is the status line plus frame counts, ETA and speed when known.
func (m Model) detail() string {
	parts := []string{m.status}
	if m.stage == progress.StageConverting && m.total > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d frames", m.current, m.total))
	}
	if m.eta != nil {
		parts = append(parts, "ETA "+format.Clock(*m.eta))
	}
	if m.speed != "" {
		parts = append(parts, m.speed)
	}
	return strings.Join(parts, " • ")
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
